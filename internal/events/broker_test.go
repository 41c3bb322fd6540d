package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []published
	publishErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	c.declared = append(c.declared, name+":"+kind)
	if !durable {
		return errors.New("exchange must be durable")
	}
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestForwarder(t *testing.T) {
	ch := &fakeChannel{}
	logger := zerolog.Nop()
	f, err := NewForwarder(ch, "hotelpos.events", &logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"hotelpos.events:topic"}, ch.declared)

	bus := NewEventBus()
	f.Attach(bus, EventInvoiceCancelled, EventOrderCreated)

	require.NoError(t, bus.PublishJSON(EventInvoiceCancelled, InvoiceEventPayload{InvoiceID: 1, InvoiceNumber: "009000"}))
	require.NoError(t, bus.PublishJSON(EventReservationCreated, ReservationEventPayload{ReservationID: 1}))

	require.Len(t, ch.published, 1, "only attached types are forwarded")
	p := ch.published[0]
	assert.Equal(t, "hotelpos.events", p.exchange)
	assert.Equal(t, EventInvoiceCancelled, p.key)
	assert.Equal(t, "application/json", p.msg.ContentType)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)
	assert.NotEmpty(t, p.msg.MessageId)
	assert.Contains(t, string(p.msg.Body), `"invoice_number":"009000"`)

	ch.publishErr = errors.New("channel closed")
	err = f.Forward(&Event{Type: EventOrderCreated})
	assert.Error(t, err)

	require.NoError(t, f.Close())
	assert.True(t, ch.closed)
}
