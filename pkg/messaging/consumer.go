package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/storefront/order-service/pkg/events"
	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

type EventHandler func(event events.Event) error

type Consumer struct {
	client      *RabbitMQClient
	queueName   string
	serviceName string
	maxRetries  int
	retryDelay  time.Duration
}

func NewConsumer(client *RabbitMQClient, queueName, serviceName string) *Consumer {
	return &Consumer{
		client:      client,
		queueName:   queueName,
		serviceName: serviceName,
		maxRetries:  max(client.config.RetryCount, 1),
		retryDelay:  2 * time.Second,
	}
}

func (c *Consumer) ConsumeEvents(routingKeys []string, handler EventHandler) error {
	if !c.client.IsConnected() {
		return ErrNotConnected
	}

	channel := c.client.Channel()

	queue, err := channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("queue declare error: %w", err)
	}

	for _, routingKey := range routingKeys {
		err = channel.QueueBind(
			queue.Name,          // queue name
			routingKey,          // routing key
			c.client.Exchange(), // exchange
			false,               // no-wait
			nil,                 // arguments
		)
		if err != nil {
			return fmt.Errorf("queue bind error (%s): %w", routingKey, err)
		}
		log.Printf("Queue %s bound to routing key: %s", queue.Name, routingKey)
	}

	messages, err := channel.Consume(
		queue.Name,    // queue
		c.serviceName, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("consume start error: %w", err)
	}

	log.Printf("Consuming events on queue: %s", queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					log.Printf("Delivery channel closed: %s", c.serviceName)
					return
				}
				c.handleMessage(msg, handler)
			case <-c.client.ctx.Done():
				log.Printf("Consumer is stopped: %s", c.serviceName)
				return
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(msg amqp.Delivery, handler EventHandler) {
	var event events.Event

	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("Event deserialize error: %v", err)
		msg.Nack(false, false)
		return
	}

	log.Printf("Event received: %s from %s", event.EventType, event.Service)

	if err := handler(event); err != nil {
		log.Printf("Event process error: %v", err)

		if retryCount(msg.Headers) < c.maxRetries {
			c.republishWithRetry(msg, event)
		} else {
			log.Printf("Max retry is reached, message dead lettered: %s", event.EventType)
			msg.Nack(false, false)
		}
		return
	}

	msg.Ack(false)
	log.Printf("Event processed successfully: %s", event.EventType)
}

// retryCount reads how often a message has been republished, falling back to
// the broker's x-death bookkeeping.
func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}

	if deaths, ok := headers["x-death"].([]interface{}); ok && len(deaths) > 0 {
		if death, ok := deaths[0].(amqp.Table); ok {
			if count, ok := death["count"].(int64); ok {
				return int(count)
			}
		}
	}
	return 0
}

func (c *Consumer) republishWithRetry(msg amqp.Delivery, event events.Event) {
	time.Sleep(c.retryDelay)

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retryCount(msg.Headers) + 1)

	err := c.client.Channel().Publish(
		msg.Exchange,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			DeliveryMode: msg.DeliveryMode,
			Headers:      headers,
		},
	)

	if err != nil {
		log.Printf("Retry publish error: %v", err)
		msg.Nack(false, false)
		return
	}

	msg.Ack(false)
	log.Printf("Re-published: %s", event.EventType)
}
