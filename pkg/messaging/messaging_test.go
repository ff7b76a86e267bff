package messaging

import (
	"testing"

	"github.com/storefront/order-service/pkg/events"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestConnectionURL(t *testing.T) {
	cfg := &RabbitMQConfig{Host: "mq", Port: 5672, Username: "guest", Password: "p@ss", VHost: "/"}
	assert.Equal(t, "amqp://guest:p%40ss@mq:5672/", cfg.ConnectionURL())

	cfg.VHost = "shop"
	assert.Equal(t, "amqp://guest:p%40ss@mq:5672/shop", cfg.ConnectionURL())
}

func TestNewRabbitMQConfigDefaults(t *testing.T) {
	t.Setenv("RABBITMQ_HOST", "")
	t.Setenv("RABBITMQ_EXCHANGE", "")
	t.Setenv("RABBITMQ_RETRY_COUNT", "5")

	cfg := NewRabbitMQConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "storefront.events", cfg.Exchange)
	assert.Equal(t, 5, cfg.RetryCount)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "storefront.order-service.order.created", RoutingKey("order-service", "order.created"))
}

func TestRetryCount(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"no headers", nil, 0},
		{"own header", amqp.Table{retryHeader: int32(2)}, 2},
		{"x-death", amqp.Table{"x-death": []interface{}{amqp.Table{"count": int64(3)}}}, 3},
		{"malformed x-death", amqp.Table{"x-death": "oops"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryCount(tt.headers))
		})
	}
}

func TestPublisherRequiresConnection(t *testing.T) {
	client := NewRabbitMQClient(&RabbitMQConfig{Exchange: "storefront.events"})
	defer client.Close()

	assert.False(t, client.IsConnected())
	assert.ErrorIs(t, NewPublisher(client, 1).PublishEvent(eventsFixture()), ErrNotConnected)
}

func eventsFixture() events.Event {
	return events.Event{OrderID: 1, EventType: events.OrderCreated, Service: "order-service"}
}
