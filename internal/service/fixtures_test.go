package service

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository/memory"
	"github.com/storefront/order-service/pkg/events"
	"github.com/storefront/order-service/pkg/metrics"
)

var (
	customer = domain.Identity{UserID: 7, Email: "customer@example.com"}
	stranger = domain.Identity{UserID: 8, Email: "stranger@example.com"}
	admin    = domain.Identity{UserID: 1, Email: "admin@example.com", Admin: true}
)

const (
	productA           int64 = 1
	productB           int64 = 2
	productUnavailable int64 = 3
	activeMethod       int64 = 1
	inactiveMethod     int64 = 2
	customerAddress    int64 = 1
	strangerAddress    int64 = 2
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishEvent(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

// stepClock returns a strictly increasing clock starting at start.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type fixture struct {
	store     *memory.Store
	orders    *OrderService
	carts     *CartService
	wishlists *WishlistService
	timeline  *TimelineRecorder
	published *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.AddProduct(domain.Product{ID: productA, Name: "A", Price: decimal.RequireFromString("10.00"), Available: true})
	store.AddProduct(domain.Product{ID: productB, Name: "B", Price: decimal.RequireFromString("5.00"), Available: true})
	store.AddProduct(domain.Product{ID: productUnavailable, Name: "Sold out", Price: decimal.RequireFromString("1.00")})
	store.AddPaymentMethod(domain.PaymentMethod{ID: activeMethod, Name: "Card", Active: true})
	store.AddPaymentMethod(domain.PaymentMethod{ID: inactiveMethod, Name: "Cheque"})
	store.AddAddress(domain.Address{ID: customerAddress, UserID: customer.UserID, Name: "Home", Line: "1 Main St"})
	store.AddAddress(domain.Address{ID: strangerAddress, UserID: stranger.UserID, Name: "Work", Line: "2 Side St"})

	clock := stepClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	timeline := NewTimelineRecorder(store)
	timeline.now = clock

	published := &recordingPublisher{}
	orders := NewOrderService(store, timeline, published, metrics.NewOrderMetrics(nil))
	orders.now = clock

	return &fixture{
		store:     store,
		orders:    orders,
		carts:     NewCartService(store),
		wishlists: NewWishlistService(store),
		timeline:  timeline,
		published: published,
	}
}

func directOrder(items ...domain.OrderItemRequest) domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		PaymentMethodID:   activeMethod,
		ShippingAddressID: customerAddress,
		ShippingCost:      decimal.RequireFromString("3.00"),
		Items:             items,
	}
}

func fromCart() domain.CreateOrderFromCartRequest {
	return domain.CreateOrderFromCartRequest{
		PaymentMethodID:   activeMethod,
		ShippingAddressID: customerAddress,
		ShippingCost:      decimal.RequireFromString("3.00"),
	}
}

func firstPage() domain.PageRequest {
	return domain.PageRequest{}
}
