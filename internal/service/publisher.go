package service

import (
	"log"

	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/pkg/events"
)

const serviceName = "order-service"

// EventPublisher sends integration events. Implementations are expected to be
// safe for concurrent use.
type EventPublisher interface {
	PublishEvent(event events.Event) error
}

// NoopPublisher is used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(events.Event) error { return nil }

// publishOrderEvent runs after commit. Failures are logged and never undo the
// stored change.
func publishOrderEvent(publisher EventPublisher, eventType events.EventType, order *domain.OrderAggregate, previous domain.OrderStatus) {
	payload := events.OrderPayload{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Total:          order.Total,
		OccurredAt:     order.UpdatedAt,
	}

	event, err := events.NewEvent(serviceName, eventType, order.ID, payload)
	if err != nil {
		log.Printf("Order event build error: OrderID=%d, Type=%s: %v", order.ID, eventType, err)
		return
	}

	if err := publisher.PublishEvent(event); err != nil {
		log.Printf("Order event publish error: OrderID=%d, Type=%s: %v", order.ID, eventType, err)
	}
}
