// Package ordertest provides an in-memory order store with the same
// transactional semantics as the bun repository: WithGig runs serialized
// and commits only when its callback succeeds.
package ordertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/gigbid/internal/entity"
	repo "github.com/Additional-Code/gigbid/internal/repository/order"
)

// Store is a mutex-guarded ledger of users, gigs and orders.
type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]entity.User
	gigs   map[int64]entity.Gig
	orders []entity.Order

	// FailCancel, when set, is returned by CancelPendingExcept.
	FailCancel error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users: make(map[int64]entity.User),
		gigs:  make(map[int64]entity.Gig),
	}
}

// AddUser stores u with a fresh id and returns it.
func (s *Store) AddUser(u entity.User) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = u
	return u
}

// AddGig stores g with a fresh id and returns it.
func (s *Store) AddGig(g entity.Gig) entity.Gig {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g.ID = s.nextID
	s.gigs[g.ID] = g
	return g
}

// Orders returns a copy of every committed order, oldest first.
func (s *Store) Orders() []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Order(nil), s.orders...)
}

// WithGig implements the per-gig transaction on a working copy.
func (s *Store) WithGig(ctx context.Context, gigID int64, fn func(context.Context, repo.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	gig, ok := s.gigs[gigID]
	if !ok {
		return repo.ErrGigNotFound
	}

	l := &ledger{
		store:  s,
		gig:    gig,
		nextID: s.nextID,
		orders: append([]entity.Order(nil), s.orders...),
	}
	if err := fn(ctx, l); err != nil {
		return err
	}
	s.orders = l.orders
	s.nextID = l.nextID
	return nil
}

// GigIDForOrder implements the repository lookup.
func (s *Store) GigIDForOrder(_ context.Context, orderID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == orderID {
			return o.GigID, nil
		}
	}
	return 0, repo.ErrNotFound
}

// GetByID returns an order with relations loaded.
func (s *Store) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			hydrated := s.hydrate(o)
			return &hydrated, nil
		}
	}
	return nil, repo.ErrNotFound
}

// List returns matching orders, newest first.
func (s *Store) List(_ context.Context, filter repo.Filter) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Order, 0)
	for _, o := range s.orders {
		if filter.BuyerID != 0 && o.BuyerID != filter.BuyerID {
			continue
		}
		if filter.SellerID != 0 && o.SellerID != filter.SellerID {
			continue
		}
		out = append(out, s.hydrate(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// BidsForGig returns the gig's orders, oldest first.
func (s *Store) BidsForGig(_ context.Context, gigID int64) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gigs[gigID]; !ok {
		return nil, repo.ErrGigNotFound
	}
	return s.bids(s.orders, gigID), nil
}

// Stats aggregates committed orders.
func (s *Store) Stats(context.Context) (repo.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := repo.Stats{Revenue: decimal.Zero}
	for _, o := range s.orders {
		stats.Total++
		switch o.Status {
		case entity.OrderStatusPending:
			stats.Pending++
		case entity.OrderStatusCompleted:
			stats.Completed++
			stats.Revenue = stats.Revenue.Add(o.Price)
		case entity.OrderStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (s *Store) bids(orders []entity.Order, gigID int64) []entity.Order {
	out := make([]entity.Order, 0)
	for _, o := range orders {
		if o.GigID == gigID {
			out = append(out, s.hydrate(o))
		}
	}
	return out
}

func (s *Store) hydrate(o entity.Order) entity.Order {
	if g, ok := s.gigs[o.GigID]; ok {
		o.Gig = &g
	}
	if u, ok := s.users[o.BuyerID]; ok {
		o.Buyer = &u
	}
	if u, ok := s.users[o.SellerID]; ok {
		o.Seller = &u
	}
	return o
}

type ledger struct {
	store  *Store
	gig    entity.Gig
	nextID int64
	orders []entity.Order
}

func (l *ledger) Gig() *entity.Gig {
	g := l.gig
	return &g
}

func (l *ledger) Bids(context.Context) ([]entity.Order, error) {
	return l.store.bids(l.orders, l.gig.ID), nil
}

func (l *ledger) Insert(_ context.Context, order *entity.Order) error {
	l.nextID++
	order.ID = l.nextID
	stored := *order
	stored.Gig, stored.Buyer, stored.Seller = nil, nil, nil
	l.orders = append(l.orders, stored)
	return nil
}

func (l *ledger) Update(_ context.Context, order *entity.Order) error {
	for i := range l.orders {
		if l.orders[i].ID == order.ID {
			l.orders[i].Status = order.Status
			l.orders[i].IsWinner = order.IsWinner
			l.orders[i].LockedAt = order.LockedAt
			l.orders[i].UpdatedAt = order.UpdatedAt
			return nil
		}
	}
	return repo.ErrNotFound
}

func (l *ledger) CancelPendingExcept(_ context.Context, keepID int64, now time.Time) (int, error) {
	if l.store.FailCancel != nil {
		return 0, l.store.FailCancel
	}
	n := 0
	for i := range l.orders {
		o := &l.orders[i]
		if o.GigID == l.gig.ID && o.ID != keepID && o.Status == entity.OrderStatusPending {
			o.Status = entity.OrderStatusCancelled
			o.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (l *ledger) Order(_ context.Context, id int64) (*entity.Order, error) {
	for _, o := range l.orders {
		if o.ID == id && o.GigID == l.gig.ID {
			hydrated := l.store.hydrate(o)
			return &hydrated, nil
		}
	}
	return nil, repo.ErrNotFound
}
