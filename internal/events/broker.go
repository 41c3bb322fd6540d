package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Forwarder republishes bus events to a RabbitMQ topic exchange, using the
// event type as routing key.
type Forwarder struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	timeout  time.Duration
	logger   *zerolog.Logger
	mu       sync.Mutex
}

// DialForwarder connects to the broker and declares the exchange.
func DialForwarder(url, exchange string, logger *zerolog.Logger) (*Forwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel open: %w", err)
	}
	f, err := NewForwarder(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	f.conn = conn
	return f, nil
}

func NewForwarder(ch Channel, exchange string, logger *zerolog.Logger) (*Forwarder, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return &Forwarder{ch: ch, exchange: exchange, timeout: 5 * time.Second, logger: logger}, nil
}

// Attach subscribes the forwarder to the given event types on bus.
func (f *Forwarder) Attach(bus *EventBus, types ...string) {
	for _, t := range types {
		bus.Subscribe(t, f.Forward)
	}
}

func (f *Forwarder) Forward(event *Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.CreatedAt.UTC(),
		Body:         event.Payload,
	}

	// amqp channels are not safe for concurrent publishing
	f.mu.Lock()
	err := f.ch.PublishWithContext(ctx, f.exchange, event.Type, false, false, msg)
	f.mu.Unlock()
	if err != nil {
		f.logger.Error().Err(err).Str("event", event.Type).Msg("rabbitmq publish failed")
		return fmt.Errorf("rabbitmq publish %s: %w", event.Type, err)
	}
	return nil
}

func (f *Forwarder) Close() error {
	err := f.ch.Close()
	if f.conn != nil {
		if cerr := f.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
