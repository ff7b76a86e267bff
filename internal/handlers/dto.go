package handlers

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/service"
)

type OrderResponse struct {
	ID                int64                   `json:"id"`
	UserID            int64                   `json:"userId"`
	OrderDate         time.Time               `json:"orderDate"`
	UpdatedAt         time.Time               `json:"updatedAt"`
	Status            string                  `json:"status"`
	Total             decimal.Decimal         `json:"total"`
	ShippingCost      decimal.Decimal         `json:"shippingCost"`
	PaymentMethodID   int64                   `json:"paymentMethodId"`
	ShippingAddressID int64                   `json:"shippingAddressId"`
	Items             []OrderItemResponse     `json:"items"`
	Timeline          []TimelineEntryResponse `json:"timeline"`
}

type OrderItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type TimelineEntryResponse struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
}

type CartResponse struct {
	ID     int64              `json:"id"`
	UserID int64              `json:"userId"`
	Items  []CartItemResponse `json:"items"`
	Total  decimal.Decimal    `json:"total"`
}

type CartItemResponse struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	Price        decimal.Decimal `json:"price"`
	Availability bool            `json:"availability"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type WishlistResponse struct {
	ID     int64                            `json:"id"`
	UserID int64                            `json:"userId"`
	Items  domain.Page[domain.WishlistItem] `json:"items"`
}

func mapOrder(order *domain.OrderAggregate) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		}
	}

	return OrderResponse{
		ID:                order.ID,
		UserID:            order.UserID,
		OrderDate:         order.OrderDate,
		UpdatedAt:         order.UpdatedAt,
		Status:            string(order.Status),
		Total:             order.Total,
		ShippingCost:      order.ShippingCost,
		PaymentMethodID:   order.PaymentMethodID,
		ShippingAddressID: order.ShippingAddressID,
		Items:             items,
		Timeline:          mapTimeline(order.Timeline),
	}
}

func mapTimeline(entries []domain.TimelineEntry) []TimelineEntryResponse {
	responses := make([]TimelineEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = TimelineEntryResponse{
			ID:          entry.ID,
			Status:      string(entry.Status),
			Date:        entry.Timestamp,
			Description: entry.Note,
		}
	}
	return responses
}

func mapCart(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Price:        item.Price,
			Availability: item.Available,
			Quantity:     item.Quantity,
			Subtotal:     item.Subtotal(),
		}
	}

	return CartResponse{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  items,
		Total:  cart.Total(),
	}
}

func mapWishlist(view *service.WishlistView) WishlistResponse {
	return WishlistResponse{
		ID:     view.Wishlist.ID,
		UserID: view.Wishlist.UserID,
		Items:  view.Items,
	}
}
