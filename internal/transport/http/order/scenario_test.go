package order

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/config"
	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/repository/order/ordertest"
	service "github.com/Additional-Code/gigbid/internal/service/order"
)

// Drives a whole auction through the router against the in-memory ledger.
func TestAuctionOverHTTP(t *testing.T) {
	store := ordertest.New()
	sam := store.AddUser(entity.User{Name: "Sam", Role: entity.RoleSeller})
	alice := store.AddUser(entity.User{Name: "Alice", Role: entity.RoleBuyer})
	bob := store.AddUser(entity.User{Name: "Bob", Role: entity.RoleBuyer})
	gig := store.AddGig(entity.Gig{Title: "Logo design", SellerID: sam.ID, Price: decimal.RequireFromString("100")})

	svc := service.NewService(service.Params{Store: store, Config: config.Config{}})
	srv := newTestServer(svc)

	asSam := &auth.Identity{UserID: sam.ID, Role: sam.Role}
	asAlice := &auth.Identity{UserID: alice.ID, Role: alice.Role}
	asBob := &auth.Identity{UserID: bob.ID, Role: bob.Role}

	bid := func(caller *auth.Identity, price float64) (int, envelope) {
		return srv.do(t, caller, http.MethodPost, "/orders", map[string]any{"gig_id": gig.ID, "price": price})
	}
	orderID := func(env envelope) int64 {
		var o struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &o))
		return o.ID
	}

	status, env := bid(asAlice, 100)
	require.Equal(t, http.StatusCreated, status)
	aliceOrder := orderID(env)

	status, env = bid(asBob, 90)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "100.00", env.Error.Details["floor"])

	status, _ = bid(asSam, 1000)
	require.Equal(t, http.StatusForbidden, status)

	status, env = bid(asBob, 120)
	require.Equal(t, http.StatusCreated, status)
	bobOrder := orderID(env)

	status, _ = srv.do(t, asBob, http.MethodPatch, "/orders/"+strconv.FormatInt(bobOrder, 10)+"/status", map[string]string{"status": "completed"})
	require.Equal(t, http.StatusForbidden, status)

	status, env = srv.do(t, asSam, http.MethodPatch, "/orders/"+strconv.FormatInt(bobOrder, 10)+"/status", map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, status)
	var settled map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &settled))
	require.Equal(t, "completed", settled["status"])
	require.Equal(t, true, settled["is_winner"])
	require.NotNil(t, settled["locked_at"])

	status, env = srv.do(t, asAlice, http.MethodGet, "/orders/"+strconv.FormatInt(aliceOrder, 10), nil)
	require.Equal(t, http.StatusOK, status)
	var rival map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rival))
	require.Equal(t, "cancelled", rival["status"])

	status, env = bid(asAlice, 200)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "conflict", env.Error.Kind)

	status, _ = srv.do(t, asSam, http.MethodPatch, "/orders/"+strconv.FormatInt(aliceOrder, 10)+"/status", map[string]string{"status": "completed"})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = srv.do(t, asBob, http.MethodGet, "/orders/"+strconv.FormatInt(aliceOrder, 10), nil)
	require.Equal(t, http.StatusForbidden, status)
}
