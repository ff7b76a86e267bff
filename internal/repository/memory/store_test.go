package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, userID int64, price string, at time.Time) *domain.OrderAggregate {
	t.Helper()
	order, err := domain.NewOrderAggregate(userID,
		[]domain.OrderItem{{ProductID: 1, ProductName: "A", Quantity: 1, Price: decimal.RequireFromString(price)}},
		decimal.Zero, 1, 1, at)
	require.NoError(t, err)
	return order
}

func TestWithinTxRestoresStateOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(repos repository.Repositories) error {
		cart, err := repos.Carts().GetOrCreate(ctx, 7)
		require.NoError(t, err)
		require.NoError(t, repos.Carts().AddOrIncrementItem(ctx, cart.ID, 1, 2))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Carts().FindByUserID(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestWithinTxRestoresStateOnPanic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = store.WithinTx(ctx, func(repos repository.Repositories) error {
			_, _ = repos.Wishlists().GetOrCreate(ctx, 7)
			panic("unexpected")
		})
	})

	_, err := store.Wishlists().FindByUserID(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestOrderCreateAssemblesChildren(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now()

	order := newOrder(t, 7, "10.00", now)
	require.NoError(t, store.Orders().Create(ctx, order))
	require.NotZero(t, order.Items[0].ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	entry := &domain.TimelineEntry{OrderID: order.ID, Status: order.Status, Timestamp: now}
	require.NoError(t, store.Timeline().Append(ctx, entry))

	loaded, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 1)
	assert.Len(t, loaded.Timeline, 1)

	assert.ErrorIs(t, store.Timeline().Append(ctx, &domain.TimelineEntry{OrderID: 404}), domain.ErrResourceNotFound)
}

func TestOrderListFiltersAndSorts(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, price := range []string{"30.00", "10.00", "20.00"} {
		require.NoError(t, store.Orders().Create(ctx, newOrder(t, 7, price, start.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, store.Orders().Create(ctx, newOrder(t, 8, "99.00", start)))

	orders, total, err := store.Orders().List(ctx, repository.OrderFilter{UserID: 7},
		domain.PageRequest{PageSize: 2, SortBy: "total", SortDir: domain.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].Total.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, orders[1].Total.Equal(decimal.RequireFromString("20.00")))

	_, _, err = store.Orders().List(ctx, repository.OrderFilter{}, domain.PageRequest{PageSize: 2, SortBy: "nope"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestWishlistRejectsDuplicates(t *testing.T) {
	store := NewStore()
	store.AddProduct(domain.Product{ID: 5, Name: "Mug", Price: decimal.RequireFromString("9.50"), Available: true})
	ctx := context.Background()

	wishlist, err := store.Wishlists().GetOrCreate(ctx, 7)
	require.NoError(t, err)

	item, err := store.Wishlists().AddItem(ctx, wishlist.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, "Mug", item.ProductName)

	_, err = store.Wishlists().AddItem(ctx, wishlist.ID, 5)
	assert.ErrorIs(t, err, domain.ErrDuplicateItem)
}

func TestSeedingKeepsSequenceAhead(t *testing.T) {
	store := NewStore()

	explicit := store.AddProduct(domain.Product{ID: 10, Name: "X"})
	generated := store.AddProduct(domain.Product{Name: "Y"})

	assert.Equal(t, int64(10), explicit.ID)
	assert.Equal(t, int64(11), generated.ID)
}
