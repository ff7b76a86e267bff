package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/order-service/pkg/events"
	"github.com/streadway/amqp"
)

var ErrNotConnected = errors.New("there is no connection to RabbitMQ")

type Publisher struct {
	client     *RabbitMQClient
	maxRetries int
}

func NewPublisher(client *RabbitMQClient, maxRetries int) *Publisher {
	return &Publisher{
		client:     client,
		maxRetries: max(maxRetries, 1),
	}
}

func (p *Publisher) publish(event events.Event) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event serialization error: %w", err)
	}

	routingKey := RoutingKey(event.Service, string(event.EventType))

	err = p.client.Channel().Publish(
		p.client.Exchange(),
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Headers: amqp.Table{
				"order_id":       strconv.FormatInt(event.OrderID, 10),
				"correlation_id": event.CorrelationID.String(),
				"service":        event.Service,
				"event_type":     string(event.EventType),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("event publish error: %w", err)
	}

	log.Printf("Event published: %s -> %s", routingKey, event.EventType)
	return nil
}

// PublishEvent tries up to maxRetries times with a linear backoff.
func (p *Publisher) PublishEvent(event events.Event) error {
	var lastErr error

	for i := 0; i < p.maxRetries; i++ {
		err := p.publish(event)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Printf("Publish error (retry %d/%d): %v", i+1, p.maxRetries, err)

		if errors.Is(err, ErrNotConnected) {
			break
		}
		if i < p.maxRetries-1 {
			time.Sleep(time.Second * time.Duration(i+1))
		}
	}

	return fmt.Errorf("event publish failed after %d attempts: %w", p.maxRetries, lastErr)
}
