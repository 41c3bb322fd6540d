package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventReservationCreated    = "reservation.created"
	EventReservationCheckedIn  = "reservation.checked_in"
	EventReservationCheckedOut = "reservation.checked_out"
	EventReservationCancelled  = "reservation.cancelled"
	EventInvoiceCreated        = "invoice.created"
	EventInvoiceRecomputed     = "invoice.recomputed"
	EventInvoiceCancelled      = "invoice.cancelled"
	EventOrderCreated          = "order.created"
)

// AllTypes lists every event type the services publish.
var AllTypes = []string{
	EventReservationCreated,
	EventReservationCheckedIn,
	EventReservationCheckedOut,
	EventReservationCancelled,
	EventInvoiceCreated,
	EventInvoiceRecomputed,
	EventInvoiceCancelled,
	EventOrderCreated,
}

type ReservationEventPayload struct {
	ReservationID int64     `json:"reservation_id"`
	Status        string    `json:"status"`
	RoomID        *int64    `json:"room_id,omitempty"`
	GuestID       *int64    `json:"guest_id,omitempty"`
	InvoiceID     *int64    `json:"invoice_id,omitempty"`
	SubTotalUSD   string    `json:"sub_total_usd"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
}

type InvoiceEventPayload struct {
	InvoiceID           int64  `json:"invoice_id"`
	InvoiceNumber       string `json:"invoice_number"`
	Status              string `json:"status"`
	TotalUSD            string `json:"total_usd"`
	RemainingBalanceUSD string `json:"remaining_balance_usd"`
	GuestID             *int64 `json:"guest_id,omitempty"`
}

type OrderEventPayload struct {
	OrderID     int64  `json:"order_id"`
	Status      string `json:"status"`
	SubTotalUSD string `json:"sub_total_usd"`
	Lines       int    `json:"lines"`
	InvoiceID   *int64 `json:"invoice_id,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	onError     func(event *Event, err error)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError installs a callback for handler failures.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
