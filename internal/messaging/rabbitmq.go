package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/config"
)

// rabbitClient implements the Client over a durable AMQP queue using the
// default exchange. Connections are opened lazily and reopened after failures.
type rabbitClient struct {
	url      string
	queue    string
	prefetch int
	logger   *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func newRabbitClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *rabbitClient {
	client := &rabbitClient{
		url:      cfg.Messaging.RabbitMQ.URL,
		queue:    cfg.Messaging.RabbitMQ.Queue,
		prefetch: cfg.Messaging.RabbitMQ.Prefetch,
		logger:   logger,
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("closing rabbitmq client")
			return client.close()
		},
	})
	return client
}

func (r *rabbitClient) Topic() string { return r.queue }

func (r *rabbitClient) Publish(ctx context.Context, key []byte, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.publishChannel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    string(key),
		Timestamp:    time.Now().UTC(),
		Body:         value,
	})
	if err != nil {
		r.resetLocked()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// publishChannel must be called with mu held.
func (r *rabbitClient) publishChannel() (*amqp.Channel, error) {
	if r.ch != nil && !r.ch.IsClosed() {
		return r.ch, nil
	}
	r.resetLocked()

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := r.declare(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	r.conn, r.ch = conn, ch
	return ch, nil
}

func (r *rabbitClient) declare(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(r.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return ch, nil
}

func (r *rabbitClient) resetLocked() {
	if r.ch != nil {
		_ = r.ch.Close()
		r.ch = nil
	}
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

func (r *rabbitClient) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
	return nil
}

// Consume reconnects with exponential backoff until ctx is done. Messages
// the handler rejects are dropped rather than requeued.
func (r *rabbitClient) Consume(ctx context.Context, handler Handler) error {
	retry := newBackoff()
	for {
		err := r.consumeOnce(ctx, handler, retry)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("rabbitmq consume loop ended; reconnecting", zap.Error(err), zap.Duration("backoff", retry.next))
		if !retry.wait(ctx) {
			return ctx.Err()
		}
	}
}

func (r *rabbitClient) consumeOnce(ctx context.Context, handler Handler, retry *backoff) error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := r.declare(conn)
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(r.prefetch, 0, false); err != nil {
		r.logger.Warn("rabbitmq qos failed", zap.Error(err))
	}

	deliveries, err := ch.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}
	retry.reset()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			msg := Message{
				Topic:   r.queue,
				Key:     []byte(d.MessageId),
				Value:   d.Body,
				Offset:  int64(d.DeliveryTag),
				Time:    d.Timestamp,
				Headers: tableHeaders(d.Headers),
			}
			if err := handler(ctx, msg); err != nil {
				r.logger.Error("message handler failed", zap.Error(err), zap.Uint64("delivery_tag", d.DeliveryTag))
				_ = d.Nack(false, false)
				continue
			}
			if err := d.Ack(false); err != nil {
				r.logger.Warn("ack failed", zap.Error(err))
			}
		}
	}
}

func tableHeaders(t amqp.Table) map[string]string {
	if len(t) == 0 {
		return nil
	}
	m := make(map[string]string, len(t))
	for k, v := range t {
		m[k] = fmt.Sprint(v)
	}
	return m
}
