package events

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventInvoiceRecomputed, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventInvoiceRecomputed, InvoiceEventPayload{InvoiceID: 5, InvoiceNumber: "001225", TotalUSD: "300"})
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventInvoiceRecomputed {
		t.Errorf("expected type %s, got %s", EventInvoiceRecomputed, received.Type)
	}
	if received.ID == "" {
		t.Errorf("expected event id to be set")
	}

	var decoded InvoiceEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.InvoiceNumber != "001225" || decoded.TotalUSD != "300" {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	var failed []string
	bus.OnError(func(event *Event, err error) { failed = append(failed, event.Type+": "+err.Error()) })

	called := false
	bus.Subscribe("event", func(_ *Event) error { return errors.New("broker down") })
	bus.Subscribe("event", func(_ *Event) error { called = true; return nil })

	bus.Publish(&Event{Type: "event"})

	if !called {
		t.Errorf("later handlers must still run")
	}
	if len(failed) != 1 || failed[0] != "event: broker down" {
		t.Errorf("unexpected failures %v", failed)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	bus.Publish(&Event{Type: "unknown"})
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}

	var nilBus *EventBus
	if err := nilBus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("nil bus should be a no-op: %v", err)
	}
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent(EventOrderCreated, OrderEventPayload{OrderID: 123, Lines: 2})
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}
	if event.Type != EventOrderCreated {
		t.Errorf("expected %s, got %s", EventOrderCreated, event.Type)
	}
	if event.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded OrderEventPayload
	if err := json.Unmarshal(event.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.OrderID != 123 {
		t.Errorf("expected OrderID 123, got %d", decoded.OrderID)
	}

	if _, err := NewJSONEvent("bad", make(chan int)); err == nil {
		t.Errorf("expected marshal error")
	}
}
