package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	Items     []CartItem `json:"items"`
}

// CartItem carries the live catalog name and price; they are only frozen
// when the cart is turned into an order.
type CartItem struct {
	ID          int64           `json:"id"`
	CartID      int64           `json:"cartId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"availability"`
	Quantity    int             `json:"quantity"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// MaxQuantity bounds a single cart or order line.
const MaxQuantity = 1000

func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return BadRequest("quantity must be a positive integer, got %d", quantity)
	}
	if quantity > MaxQuantity {
		return BadRequest("quantity must be at most %d, got %d", MaxQuantity, quantity)
	}
	return nil
}

// Quantity of productID currently in the cart, zero when absent.
func (c *Cart) Quantity(productID int64) int {
	if c == nil {
		return 0
	}
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

type CartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,max=1000"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0,max=1000"`
}
