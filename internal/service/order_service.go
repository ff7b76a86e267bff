package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
	"github.com/storefront/order-service/pkg/events"
	"github.com/storefront/order-service/pkg/metrics"
)

const (
	orderPlacedNote    = "Order placed"
	orderCancelledNote = "Order cancelled"
)

type OrderService struct {
	store     repository.Store
	timeline  *TimelineRecorder
	publisher EventPublisher
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

func NewOrderService(store repository.Store, timeline *TimelineRecorder, publisher EventPublisher, orderMetrics *metrics.OrderMetrics) *OrderService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &OrderService{
		store:     store,
		timeline:  timeline,
		publisher: publisher,
		metrics:   orderMetrics,
		now:       now,
	}
}

// CreateOrderFromCart turns the caller's cart into a PENDING order and empties
// the cart, all in one transaction.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, identity domain.Identity, request domain.CreateOrderFromCartRequest) (*domain.OrderAggregate, error) {
	if identity.UserID == 0 {
		return nil, domain.AccessDenied("an authenticated user is required to check out a cart")
	}
	if request.ShippingCost.IsNegative() {
		return nil, domain.BadRequest("shipping cost must be positive or zero")
	}

	var order *domain.OrderAggregate
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := checkCheckout(ctx, repos, identity.UserID, request.PaymentMethodID, request.ShippingAddressID); err != nil {
			return err
		}

		cart, err := repos.Carts().FindByUserIDForUpdate(ctx, identity.UserID)
		if errors.Is(err, domain.ErrResourceNotFound) {
			return domain.EmptyCart("cart of user %d is empty", identity.UserID)
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.EmptyCart("cart of user %d is empty", identity.UserID)
		}

		items := make([]domain.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			item, err := snapshotItem(ctx, repos, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		order, err = s.placeOrder(ctx, repos, identity.UserID, items, request.ShippingCost,
			request.PaymentMethodID, request.ShippingAddressID)
		if err != nil {
			return err
		}

		if err := repos.Carts().ClearItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("cart clear error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.orderPlaced(order, "cart")
	return order, nil
}

// CreateOrder places an order from explicit lines. Prices always come from the
// catalog. Only admins may order on behalf of another user.
func (s *OrderService) CreateOrder(ctx context.Context, identity domain.Identity, request domain.CreateOrderRequest) (*domain.OrderAggregate, error) {
	userID := identity.UserID
	if request.UserID != 0 && request.UserID != identity.UserID {
		if !identity.Admin {
			return nil, domain.AccessDenied("cannot place an order for user %d", request.UserID)
		}
		userID = request.UserID
	}
	if userID == 0 {
		return nil, domain.BadRequest("userId is required")
	}

	if len(request.Items) == 0 {
		return nil, domain.BadRequest("order must contain at least one item")
	}
	for _, line := range request.Items {
		if err := domain.ValidateQuantity(line.Quantity); err != nil {
			return nil, err
		}
	}
	if request.ShippingCost.IsNegative() {
		return nil, domain.BadRequest("shipping cost must be positive or zero")
	}

	var order *domain.OrderAggregate
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := checkCheckout(ctx, repos, userID, request.PaymentMethodID, request.ShippingAddressID); err != nil {
			return err
		}

		items := make([]domain.OrderItem, 0, len(request.Items))
		for _, line := range request.Items {
			item, err := snapshotItem(ctx, repos, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		var err error
		order, err = s.placeOrder(ctx, repos, userID, items, request.ShippingCost,
			request.PaymentMethodID, request.ShippingAddressID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.orderPlaced(order, "direct")
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, repos repository.Repositories, userID int64, items []domain.OrderItem,
	shippingCost decimal.Decimal, paymentMethodID, shippingAddressID int64) (*domain.OrderAggregate, error) {
	order, err := domain.NewOrderAggregate(userID, items, shippingCost, paymentMethodID, shippingAddressID, s.now())
	if err != nil {
		return nil, err
	}

	if err := repos.Orders().Create(ctx, order); err != nil {
		return nil, fmt.Errorf("order creation error: %w", err)
	}
	if _, err := s.timeline.Append(ctx, repos, order, orderPlacedNote); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) orderPlaced(order *domain.OrderAggregate, source string) {
	log.Printf("Order created: OrderID=%d, UserID=%d, Total=%s, Items=%d",
		order.ID, order.UserID, order.Total.StringFixed(2), len(order.Items))

	s.metrics.OrderCreated(source)
	publishOrderEvent(s.publisher, events.OrderCreated, order, "")
}

// checkCheckout validates the payment method and that the shipping address
// belongs to the ordering user.
func checkCheckout(ctx context.Context, repos repository.Repositories, userID, paymentMethodID, shippingAddressID int64) error {
	method, err := repos.Catalog().FindPaymentMethodByID(ctx, paymentMethodID)
	if err != nil {
		return err
	}
	if !method.Active {
		return domain.NotFound("payment method %d is not available", paymentMethodID)
	}

	address, err := repos.Catalog().FindAddressByID(ctx, shippingAddressID)
	if err != nil {
		return err
	}
	if address.UserID != userID {
		return domain.AccessDenied("address %d does not belong to user %d", shippingAddressID, userID)
	}
	return nil
}

func snapshotItem(ctx context.Context, repos repository.Repositories, productID int64, quantity int) (domain.OrderItem, error) {
	product, err := repos.Catalog().FindProductByID(ctx, productID)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if !product.Available {
		return domain.OrderItem{}, domain.NotFound("product %d is not available", productID)
	}
	return domain.SnapshotItem(*product, quantity), nil
}

// UpdateOrderStatus applies one admin driven step of the status state machine.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, identity domain.Identity, orderID int64, status string, note string) (*domain.OrderAggregate, error) {
	if !identity.Admin {
		return nil, domain.AccessDenied("only administrators can change order status")
	}

	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, orderID, next, note, nil)
}

// CancelOrder is open to the order owner and to admins.
func (s *OrderService) CancelOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.OrderAggregate, error) {
	guard := func(order *domain.OrderAggregate) error {
		if !identity.CanAccess(order.UserID) {
			return domain.AccessDenied("order %d does not belong to user %d", order.ID, identity.UserID)
		}
		return nil
	}

	return s.transition(ctx, orderID, domain.OrderStatusCancelled, orderCancelledNote, guard)
}

func (s *OrderService) transition(ctx context.Context, orderID int64, next domain.OrderStatus, note string,
	guard func(order *domain.OrderAggregate) error) (*domain.OrderAggregate, error) {
	if note == "" {
		note = fmt.Sprintf("Order status changed to %s", next)
	}

	var (
		order    *domain.OrderAggregate
		previous domain.OrderStatus
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		current, err := repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}

		previous = current.Status
		if err := current.TransitionTo(next, s.now()); err != nil {
			return err
		}
		if err := repos.Orders().UpdateStatus(ctx, current); err != nil {
			return fmt.Errorf("order status update error: %w", err)
		}
		if _, err := s.timeline.Append(ctx, repos, current, note); err != nil {
			return err
		}

		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order status changed: OrderID=%d, %s -> %s", order.ID, previous, order.Status)
	s.metrics.StatusChanged(string(previous), string(order.Status))

	eventType := events.OrderStatusChanged
	if order.Status == domain.OrderStatusCancelled {
		eventType = events.OrderCancelled
	}
	publishOrderEvent(s.publisher, eventType, order, previous)

	return order, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, identity domain.Identity, orderID int64) (*domain.OrderAggregate, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccess(order.UserID) {
		return nil, domain.AccessDenied("order %d does not belong to user %d", orderID, identity.UserID)
	}
	return order, nil
}

func (s *OrderService) GetOrderTimeline(ctx context.Context, identity domain.Identity, orderID int64) ([]domain.TimelineEntry, error) {
	if _, err := s.GetOrderByID(ctx, identity, orderID); err != nil {
		return nil, err
	}
	return s.timeline.List(ctx, orderID)
}

func (s *OrderService) GetUserOrders(ctx context.Context, identity domain.Identity, page domain.PageRequest) (domain.Page[*domain.OrderAggregate], error) {
	if identity.UserID == 0 {
		return domain.Page[*domain.OrderAggregate]{}, domain.AccessDenied("an authenticated user is required")
	}
	return s.listOrders(ctx, repository.OrderFilter{UserID: identity.UserID}, page)
}

// GetOrdersByStatus lists every matching order for admins and only the
// caller's own orders otherwise.
func (s *OrderService) GetOrdersByStatus(ctx context.Context, identity domain.Identity, status string, page domain.PageRequest) (domain.Page[*domain.OrderAggregate], error) {
	parsed, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Page[*domain.OrderAggregate]{}, err
	}

	filter := repository.OrderFilter{Status: parsed}
	if !identity.Admin {
		filter.UserID = identity.UserID
	}
	return s.listOrders(ctx, filter, page)
}

// GetOrdersByUserAndStatus lists one user's orders in a given status. Admins
// may query any user; everyone else only themselves.
func (s *OrderService) GetOrdersByUserAndStatus(ctx context.Context, identity domain.Identity, userID int64, status string, page domain.PageRequest) (domain.Page[*domain.OrderAggregate], error) {
	if userID <= 0 {
		return domain.Page[*domain.OrderAggregate]{}, domain.BadRequest("invalid user id: %d", userID)
	}
	if !identity.CanAccess(userID) {
		return domain.Page[*domain.OrderAggregate]{}, domain.AccessDenied("user %d cannot list orders of user %d", identity.UserID, userID)
	}

	parsed, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Page[*domain.OrderAggregate]{}, err
	}
	return s.listOrders(ctx, repository.OrderFilter{UserID: userID, Status: parsed}, page)
}

func (s *OrderService) GetAllOrders(ctx context.Context, identity domain.Identity, page domain.PageRequest) (domain.Page[*domain.OrderAggregate], error) {
	if !identity.Admin {
		return domain.Page[*domain.OrderAggregate]{}, domain.AccessDenied("only administrators can list all orders")
	}
	return s.listOrders(ctx, repository.OrderFilter{}, page)
}

func (s *OrderService) listOrders(ctx context.Context, filter repository.OrderFilter, page domain.PageRequest) (domain.Page[*domain.OrderAggregate], error) {
	resolved, err := page.Resolve(domain.OrderSortFields, "orderDate", domain.SortDesc)
	if err != nil {
		return domain.Page[*domain.OrderAggregate]{}, err
	}

	orders, total, err := s.store.Orders().List(ctx, filter, resolved)
	if err != nil {
		return domain.Page[*domain.OrderAggregate]{}, err
	}
	return domain.NewPage(orders, resolved, total), nil
}

var fulfillmentTransitions = map[events.EventType]domain.OrderStatus{
	events.FulfillmentConfirmed: domain.OrderStatusConfirmed,
	events.FulfillmentShipped:   domain.OrderStatusShipped,
	events.FulfillmentDelivered: domain.OrderStatusDelivered,
}

// ProcessFulfillmentEvent applies an inbound fulfillment step as the system
// identity. Events that can never succeed (unknown order, illegal transition)
// are logged and swallowed so the consumer acknowledges them.
func (s *OrderService) ProcessFulfillmentEvent(ctx context.Context, event events.Event) error {
	next, ok := fulfillmentTransitions[event.EventType]
	if !ok {
		return fmt.Errorf("unknown fulfillment event: %s", event.EventType)
	}

	var payload events.FulfillmentPayload
	if err := event.DecodePayload(&payload); err != nil {
		log.Printf("Fulfillment event dropped: %v", err)
		return nil
	}
	orderID := payload.OrderID
	if orderID == 0 {
		orderID = event.OrderID
	}

	_, err := s.UpdateOrderStatus(ctx, domain.SystemIdentity(), orderID, string(next), payload.Note)
	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrResourceNotFound) {
		log.Printf("Fulfillment event ignored: OrderID=%d, Type=%s: %v", orderID, event.EventType, err)
		return nil
	}
	return err
}
