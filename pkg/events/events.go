package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	// Published by the order service
	OrderCreated       EventType = "order.created"
	OrderStatusChanged EventType = "order.status_changed"
	OrderCancelled     EventType = "order.cancelled"

	// Consumed from fulfillment
	FulfillmentConfirmed EventType = "fulfillment.confirmed"
	FulfillmentShipped   EventType = "fulfillment.shipped"
	FulfillmentDelivered EventType = "fulfillment.delivered"
)

type Event struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       int64           `json:"order_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
	Service       string          `json:"service"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
}

// OrderPayload is carried by every outbound order event.
type OrderPayload struct {
	OrderID        int64           `json:"order_id"`
	UserID         int64           `json:"user_id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Total          decimal.Decimal `json:"total"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type FulfillmentPayload struct {
	OrderID int64  `json:"order_id"`
	Note    string `json:"note,omitempty"`
}

func NewEvent(service string, eventType EventType, orderID int64, payload interface{}) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("event payload serialization error: %w", err)
	}

	return Event{
		ID:            uuid.New(),
		OrderID:       orderID,
		EventType:     eventType,
		Payload:       body,
		Timestamp:     time.Now(),
		Service:       service,
		CorrelationID: uuid.New(),
	}, nil
}

func (e Event) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.EventType)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("event payload deserialize error: %w", err)
	}
	return nil
}
