package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// orderTransitions lists the allowed next states. DELIVERED and CANCELLED
// have no entry and are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// Sortable order fields, as accepted in PageRequest.SortBy.
var OrderSortFields = []string{"id", "orderDate", "total", "status"}

func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return status, nil
	}
	return "", BadRequest("unknown order status: %q", value)
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// SnapshotItem captures the catalog name and price at order time.
func SnapshotItem(product Product, quantity int) OrderItem {
	return OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		Price:       product.Price,
	}
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type TimelineEntry struct {
	ID        int64       `json:"id"`
	OrderID   int64       `json:"orderId"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"date"`
	Note      string      `json:"description,omitempty"`
}

type OrderAggregate struct {
	ID                int64           `json:"id" db:"id"`
	UserID            int64           `json:"userId" db:"user_id"`
	OrderDate         time.Time       `json:"orderDate" db:"order_date"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
	Status            OrderStatus     `json:"status" db:"status"`
	Total             decimal.Decimal `json:"total" db:"total"`
	ShippingCost      decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	PaymentMethodID   int64           `json:"paymentMethodId" db:"payment_method_id"`
	ShippingAddressID int64           `json:"shippingAddressId" db:"shipping_address_id"`
	Items             []OrderItem     `json:"items"`
	Timeline          []TimelineEntry `json:"timeline"`
}

// NewOrderAggregate builds a PENDING order. The total is always derived from
// the item snapshots plus shipping; it is never taken from input.
func NewOrderAggregate(userID int64, items []OrderItem, shippingCost decimal.Decimal,
	paymentMethodID, shippingAddressID int64, now time.Time) (*OrderAggregate, error) {
	if len(items) == 0 {
		return nil, BadRequest("order must contain at least one item")
	}
	if shippingCost.IsNegative() {
		return nil, BadRequest("shipping cost must be positive or zero")
	}

	for _, item := range items {
		if err := ValidateQuantity(item.Quantity); err != nil {
			return nil, BadRequest("product %d: %v", item.ProductID, err)
		}
		if item.Price.IsNegative() {
			return nil, BadRequest("price must be positive or zero for product %d", item.ProductID)
		}
	}

	// Stored as NUMERIC(12,2); the returned order must match the stored row.
	shippingCost = shippingCost.Round(2)

	order := &OrderAggregate{
		UserID:            userID,
		OrderDate:         now,
		UpdatedAt:         now,
		Status:            OrderStatusPending,
		ShippingCost:      shippingCost,
		PaymentMethodID:   paymentMethodID,
		ShippingAddressID: shippingAddressID,
		Items:             append([]OrderItem(nil), items...),
	}
	order.Total = order.ItemsTotal().Add(shippingCost)

	return order, nil
}

func (o *OrderAggregate) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TransitionTo applies one step of the status state machine.
func (o *OrderAggregate) TransitionTo(next OrderStatus, at time.Time) error {
	if o.Status.IsTerminal() {
		return InvalidTransition("order %d is %s and can no longer change status", o.ID, o.Status)
	}
	if !o.Status.CanTransitionTo(next) {
		return InvalidTransition("order %d cannot move from %s to %s", o.ID, o.Status, next)
	}

	o.Status = next
	o.UpdatedAt = at
	return nil
}

func (o *OrderAggregate) LastTimelineEntry() (TimelineEntry, bool) {
	if len(o.Timeline) == 0 {
		return TimelineEntry{}, false
	}
	return o.Timeline[len(o.Timeline)-1], true
}

type OrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,max=1000"`
}

type CreateOrderRequest struct {
	// UserID is honoured for admins only; other callers always order for themselves.
	UserID            int64              `json:"userId" validate:"gte=0"`
	PaymentMethodID   int64              `json:"paymentMethodId" validate:"required,gt=0"`
	ShippingAddressID int64              `json:"shippingAddressId" validate:"required,gt=0"`
	ShippingCost      decimal.Decimal    `json:"shippingCost"`
	Items             []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreateOrderFromCartRequest struct {
	PaymentMethodID   int64           `json:"paymentMethodId" validate:"required,gt=0"`
	ShippingAddressID int64           `json:"shippingAddressId" validate:"required,gt=0"`
	ShippingCost      decimal.Decimal `json:"shippingCost"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}
