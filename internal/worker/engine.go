// Package worker consumes order events from the message bus.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/config"
	"github.com/Additional-Code/gigbid/internal/messaging"
)

// HandlerRegistration binds message topics to handlers.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine fans one messaging client out to a fixed number of consumer
// goroutines and routes each message to the handler registered for its topic.
type Engine struct {
	client        messaging.Client
	logger        *zap.Logger
	workers       config.Worker
	enabled       bool
	registrations map[string]messaging.Handler
	processed     metric.Int64Counter
	tracer        trace.Tracer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine constructs the worker Engine. Registrations without a topic or
// handler are ignored; a later registration for a topic replaces an earlier one.
func NewEngine(p Params) *Engine {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		reg[r.Topic] = r.Handler
	}

	processed, err := otel.Meter("github.com/Additional-Code/gigbid/worker").Int64Counter(
		"gigbid.worker.messages",
		metric.WithDescription("Messages handled by the worker, by outcome"),
	)
	if err != nil {
		logger.Warn("create worker counter", zap.Error(err))
	}

	workers := p.Config.Messaging.Workers
	workers.Concurrency = max(workers.Concurrency, 1)

	return &Engine{
		client:        p.Client,
		logger:        logger,
		workers:       workers,
		enabled:       p.Config.Messaging.Enabled && workers.Enabled,
		registrations: reg,
		processed:     processed,
		tracer:        otel.Tracer("github.com/Additional-Code/gigbid/worker"),
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

// Enabled reports whether the engine will consume anything on start.
func (e *Engine) Enabled() bool {
	return e.enabled && len(e.registrations) > 0
}

func (e *Engine) start(context.Context) error {
	if !e.Enabled() {
		e.logger.Info("worker engine idle",
			zap.Bool("enabled", e.enabled),
			zap.Int("handlers", len(e.registrations)),
		)
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := 0; i < e.workers.Concurrency; i++ {
		e.wg.Add(1)
		go func(workerID int) {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}(i)
	}

	e.logger.Info("worker engine started",
		zap.Int("concurrency", e.workers.Concurrency),
		zap.String("topic", e.client.Topic()),
	)
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

// consumeLoop restarts Consume after transport failures, waiting
// PollInterval and doubling up to 30s between attempts.
func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	delay := e.workers.PollInterval
	if delay <= 0 {
		delay = time.Second
	}
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, workerID, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Int("worker", workerID), zap.Duration("retry_in", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
		delay = min(2*delay, 30*time.Second)
	}
}

func (e *Engine) dispatch(ctx context.Context, workerID int, msg messaging.Message) (err error) {
	handler, ok := e.registrations[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		e.count(ctx, msg.Topic, "unrouted")
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "worker.dispatch", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
		attribute.Int("worker.id", workerID),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			e.logger.Error("message handler panicked", zap.String("topic", msg.Topic), zap.Any("panic", r))
		}
		outcome := "ok"
		if err != nil {
			outcome = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, "handler failed")
		}
		e.count(ctx, msg.Topic, outcome)
	}()

	e.logger.Debug("processing message", zap.String("topic", msg.Topic), zap.Int("worker", workerID))
	return handler(ctx, msg)
}

func (e *Engine) count(ctx context.Context, topic, outcome string) {
	if e.processed == nil {
		return
	}
	e.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("outcome", outcome),
	))
}
