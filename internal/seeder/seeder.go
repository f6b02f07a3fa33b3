// Package seeder fills a fresh database with a small marketplace for local
// development: users of every role, gigs, and a few bids per gig.
package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/gigbid/internal/auction"
	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/entity"
	gigrepo "github.com/Additional-Code/gigbid/internal/repository/gig"
	userrepo "github.com/Additional-Code/gigbid/internal/repository/user"
	serviceorder "github.com/Additional-Code/gigbid/internal/service/order"
)

// DefaultPassword is the plaintext password of every seeded user.
const DefaultPassword = "password"

const adminEmail = "admin@gigbid.test"

var bidStep = decimal.NewFromInt(5)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Users is the subset of the user repository the seeder writes through.
type Users interface {
	Create(ctx context.Context, user *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// Gigs is the subset of the gig repository the seeder writes through.
type Gigs interface {
	Create(ctx context.Context, gig *entity.Gig) error
}

// Bidder places bids through the auction rules.
type Bidder interface {
	ProposeBid(ctx context.Context, caller auth.Identity, gigID int64, amount decimal.Decimal) (*entity.Order, error)
}

// Result counts what a seeding run created.
type Result struct {
	Users int
	Gigs  int
	Bids  int
}

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	users  Users
	gigs   Gigs
	bidder Bidder
	logger *zap.Logger
	cost   int
}

// New constructs a Seeder on top of the repositories and the order service.
func New(users *userrepo.Repository, gigs *gigrepo.Repository, svc *serviceorder.Service, logger *zap.Logger) *Seeder {
	return newSeeder(users, gigs, svc, logger, bcrypt.DefaultCost)
}

func newSeeder(users Users, gigs Gigs, bidder Bidder, logger *zap.Logger, cost int) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, gigs: gigs, bidder: bidder, logger: logger, cost: cost}
}

type gigSample struct {
	title    string
	category string
	price    string
	days     int
}

var samples = []gigSample{
	{title: "Landing page in Go templates", category: "web", price: "150.00", days: 5},
	{title: "REST API with echo", category: "backend", price: "300.00", days: 10},
	{title: "Logo refresh", category: "design", price: "80.50", days: 3},
	{title: "Postgres performance review", category: "database", price: "220.00", days: 4},
	{title: "CI pipeline setup", category: "devops", price: "120.00", days: 2},
	{title: "Mobile app wireframes", category: "design", price: "95.00", days: 6},
}

// Run seeds the marketplace once; an existing administrator account means
// the database was already seeded and nothing is written.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	if _, err := s.users.GetByEmail(ctx, adminEmail); err == nil {
		s.logger.Info("seed data already present", zap.String("admin", adminEmail))
		return res, nil
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return res, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.cost)
	if err != nil {
		return res, fmt.Errorf("hash password: %w", err)
	}

	newUser := func(name, email string, role entity.Role) (*entity.User, error) {
		u := &entity.User{Name: name, Email: email, Password: string(hash), Role: role}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create %s: %w", email, err)
		}
		res.Users++
		return u, nil
	}

	if _, err := newUser("Admin", adminEmail, entity.RoleAdministrator); err != nil {
		return res, err
	}

	var sellers, buyers []*entity.User
	for i := 1; i <= 2; i++ {
		u, err := newUser(fmt.Sprintf("Seller %d", i), fmt.Sprintf("seller%d@gigbid.test", i), entity.RoleSeller)
		if err != nil {
			return res, err
		}
		sellers = append(sellers, u)
	}
	for i := 1; i <= 3; i++ {
		u, err := newUser(fmt.Sprintf("Buyer %d", i), fmt.Sprintf("buyer%d@gigbid.test", i), entity.RoleBuyer)
		if err != nil {
			return res, err
		}
		buyers = append(buyers, u)
	}

	for i, sample := range samples {
		gig := &entity.Gig{
			Title:        sample.title,
			Description:  sample.title + " delivered end to end.",
			Price:        decimal.RequireFromString(sample.price),
			DeliveryTime: sample.days,
			SellerID:     sellers[i%len(sellers)].ID,
			Category:     sample.category,
		}
		if err := s.gigs.Create(ctx, gig); err != nil {
			return res, fmt.Errorf("create gig %q: %w", sample.title, err)
		}
		res.Gigs++

		// 1-3 rising bids, each one step above the previous floor.
		amount := gig.Price
		for b := 0; b <= i%3; b++ {
			buyer := buyers[(i+b)%len(buyers)]
			caller := auth.Identity{UserID: buyer.ID, Role: buyer.Role}
			if _, err := s.bidder.ProposeBid(ctx, caller, gig.ID, amount); err != nil {
				return res, fmt.Errorf("bid on gig %d: %w", gig.ID, err)
			}
			res.Bids++
			amount = auction.Normalize(amount.Add(bidStep))
		}
	}

	s.logger.Info("seeded marketplace",
		zap.Int("users", res.Users),
		zap.Int("gigs", res.Gigs),
		zap.Int("bids", res.Bids),
	)
	return res, nil
}
