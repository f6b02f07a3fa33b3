package gig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/gigbid/internal/auction"
	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/transport/http/middleware"
	"github.com/Additional-Code/gigbid/pkg/errorbank"
)

type summarizerFunc func(ctx context.Context, gigID int64) (auction.Summary, error)

func (f summarizerFunc) Summarize(ctx context.Context, gigID int64) (auction.Summary, error) {
	return f(ctx, gigID)
}

func TestBidsSummary(t *testing.T) {
	issuer := auth.NewIssuer("secret", "gigbid", time.Hour)
	token, _, err := issuer.Issue(auth.Identity{UserID: 3, Role: entity.RoleBuyer})
	require.NoError(t, err)

	price := decimal.RequireFromString("120")
	name := "Bob"
	svc := summarizerFunc(func(_ context.Context, gigID int64) (auction.Summary, error) {
		switch gigID {
		case 1:
			return auction.Summary{}, nil
		case 2:
			return auction.Summary{HighestBid: &price, LeaderName: &name, IsLocked: true, WinnerName: &name, WinnerPrice: &price}, nil
		default:
			return auction.Summary{}, errorbank.NotFound("gig not found")
		}
	})

	e := echo.New()
	Register(e, NewHandler(svc), &middleware.Chain{Authenticate: middleware.Authenticate(issuer)})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{path: "/gigs/1/bids-summary", status: http.StatusOK, body: `{"success":true,"data":{"highest_bid":null,"leader_name":null,"is_locked":false,"winner_name":null,"winner_price":null}}`},
		{path: "/gigs/2/bids-summary", status: http.StatusOK, body: `{"success":true,"data":{"highest_bid":120,"leader_name":"Bob","is_locked":true,"winner_name":"Bob","winner_price":120}}`},
		{path: "/gigs/3/bids-summary", status: http.StatusNotFound, body: `{"success":false,"error":{"kind":"not_found","message":"gig not found"}}`},
		{path: "/gigs/x/bids-summary", status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				require.JSONEq(t, tc.body, rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gigs/1/bids-summary", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
