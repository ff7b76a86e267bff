package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var WishlistSortFields = []string{"id"}

type Wishlist struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type WishlistItem struct {
	ID           int64           `json:"id"`
	WishlistID   int64           `json:"wishlistId"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Available    bool            `json:"availability"`
}

type WishlistItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}
