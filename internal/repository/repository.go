package repository

import (
	"context"

	"github.com/storefront/order-service/internal/domain"
)

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	UserID int64
	Status domain.OrderStatus
}

type OrderRepository interface {
	// Create inserts the order and its items and assigns their ids.
	Create(ctx context.Context, order *domain.OrderAggregate) error
	FindByID(ctx context.Context, id int64) (*domain.OrderAggregate, error)
	// FindByIDForUpdate locks the order row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.OrderAggregate, error)
	UpdateStatus(ctx context.Context, order *domain.OrderAggregate) error
	List(ctx context.Context, filter OrderFilter, page domain.PageRequest) ([]*domain.OrderAggregate, int64, error)
}

// TimelineRepository is append only.
type TimelineRepository interface {
	Append(ctx context.Context, entry *domain.TimelineEntry) error
	ListByOrderID(ctx context.Context, orderID int64) ([]domain.TimelineEntry, error)
}

type CartRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Cart, error)
	// FindByUserIDForUpdate locks the cart row until the transaction ends.
	// Cart mutations and checkout both take it, so they serialize per cart.
	FindByUserIDForUpdate(ctx context.Context, userID int64) (*domain.Cart, error)
	// AddOrIncrementItem merges into an existing line for the same product.
	AddOrIncrementItem(ctx context.Context, cartID, productID int64, quantity int) error
	UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID int64) error
	ClearItems(ctx context.Context, cartID int64) error
}

type WishlistRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*domain.Wishlist, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Wishlist, error)
	FindItem(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error)
	// AddItem fails with domain.ErrDuplicateItem when the product is already present.
	AddItem(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error)
	RemoveItem(ctx context.Context, wishlistID, productID int64) error
	ListItems(ctx context.Context, wishlistID int64, page domain.PageRequest) ([]domain.WishlistItem, int64, error)
	ClearItems(ctx context.Context, wishlistID int64) error
}

type CatalogRepository interface {
	FindProductByID(ctx context.Context, id int64) (*domain.Product, error)
	FindPaymentMethodByID(ctx context.Context, id int64) (*domain.PaymentMethod, error)
	FindAddressByID(ctx context.Context, id int64) (*domain.Address, error)
}

type Repositories interface {
	Orders() OrderRepository
	Timeline() TimelineRepository
	Carts() CartRepository
	Wishlists() WishlistRepository
	Catalog() CatalogRepository
}

// Store gives non-transactional reads through Repositories and scoped
// transactions through WithinTx. fn's repositories are bound to the
// transaction; it commits when fn returns nil and rolls back otherwise.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
