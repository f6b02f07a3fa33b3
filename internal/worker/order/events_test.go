package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/messaging"
	ordersvc "github.com/Additional-Code/gigbid/internal/service/order"
)

func message(t *testing.T, event any) messaging.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return messaging.Message{Topic: "orders.events", Value: raw}
}

func TestHandleEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := handleEvent(zap.New(core))
	ctx := context.Background()
	previous := decimal.RequireFromString("100")

	require.NoError(t, handler(ctx, message(t, ordersvc.BidPlacedEvent{
		Type:            ordersvc.EventBidPlaced,
		EventID:         "e-1",
		OrderID:         7,
		GigID:           3,
		BuyerID:         4,
		Price:           decimal.RequireFromString("120"),
		PreviousHighest: &previous,
		OccurredAt:      time.Now(),
	})))
	require.NoError(t, handler(ctx, message(t, ordersvc.OrderSettledEvent{
		Type:           ordersvc.EventOrderSettled,
		EventID:        "e-2",
		OrderID:        7,
		GigID:          3,
		Status:         entity.OrderStatusCompleted,
		CancelledCount: 2,
	})))
	require.NoError(t, handler(ctx, message(t, ordersvc.Envelope{Type: "gig.archived", EventID: "e-3"})))

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "bid placed event processed", entries[0].Message)
	require.Equal(t, "120.00", entries[0].ContextMap()["price"])
	require.Equal(t, "100.00", entries[0].ContextMap()["previous_highest"])
	require.Equal(t, "order settled event processed", entries[1].Message)
	require.EqualValues(t, 2, entries[1].ContextMap()["cancelled_count"])
	require.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestHandleEvent_RejectsGarbage(t *testing.T) {
	handler := handleEvent(zap.NewNop())
	err := handler(context.Background(), messaging.Message{Topic: "orders.events", Value: []byte("not json")})
	require.Error(t, err)

	err = handler(context.Background(), messaging.Message{Value: []byte(`{"type":"bid.placed","event_id":"x","price":"abc"}`)})
	require.ErrorContains(t, err, "decode bid.placed event x")
}
