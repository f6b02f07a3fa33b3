package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/messaging"
	ordersvc "github.com/Additional-Code/gigbid/internal/service/order"
	"github.com/Additional-Code/gigbid/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/gigbid/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewEventsHandler registers an audit handler for bid and settlement events
// on the client's topic.
func NewEventsHandler(logger *zap.Logger, client messaging.Client) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   client.Topic(),
		Handler: handleEvent(logger),
	}
}

func handleEvent(logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var env ordersvc.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("event.type", env.Type))

		switch env.Type {
		case ordersvc.EventBidPlaced:
			var event ordersvc.BidPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return decodeFailed(span, env, err)
			}
			fields := []zap.Field{
				zap.String("event_id", event.EventID),
				zap.Int64("order_id", event.OrderID),
				zap.Int64("gig_id", event.GigID),
				zap.Int64("buyer_id", event.BuyerID),
				zap.String("price", event.Price.StringFixed(2)),
			}
			if event.PreviousHighest != nil {
				fields = append(fields, zap.String("previous_highest", event.PreviousHighest.StringFixed(2)))
			}
			logger.Info("bid placed event processed", fields...)
		case ordersvc.EventOrderSettled:
			var event ordersvc.OrderSettledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return decodeFailed(span, env, err)
			}
			logger.Info("order settled event processed",
				zap.String("event_id", event.EventID),
				zap.Int64("order_id", event.OrderID),
				zap.Int64("gig_id", event.GigID),
				zap.String("status", string(event.Status)),
				zap.Int("cancelled_count", event.CancelledCount),
			)
		default:
			logger.Warn("ignoring unknown order event", zap.String("type", env.Type), zap.String("event_id", env.EventID))
		}
		return nil
	}
}

func decodeFailed(span trace.Span, env ordersvc.Envelope, err error) error {
	err = fmt.Errorf("decode %s event %s: %w", env.Type, env.EventID, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, "decode error")
	return err
}
