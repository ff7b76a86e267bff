package service

import (
	"context"
	"testing"

	"github.com/storefront/order-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistDuplicateAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.wishlists.AddItem(ctx, customer, productA)
	require.NoError(t, err)
	assert.Equal(t, "A", item.ProductName)

	_, err = f.wishlists.AddItem(ctx, customer, productA)
	assert.ErrorIs(t, err, domain.ErrDuplicateItem)

	view, err := f.wishlists.GetWishlist(ctx, customer, firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Items.TotalElements)
	require.Len(t, view.Items.Content, 1)
	assert.Equal(t, productA, view.Items.Content[0].ProductID)
}

func TestWishlistAddUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.wishlists.AddItem(context.Background(), customer, 404)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestWishlistRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.wishlists.Clear(ctx, customer), domain.ErrResourceNotFound)
	assert.ErrorIs(t, f.wishlists.RemoveItem(ctx, customer, productA), domain.ErrResourceNotFound)

	_, err := f.wishlists.AddItem(ctx, customer, productA)
	require.NoError(t, err)
	_, err = f.wishlists.AddItem(ctx, customer, productB)
	require.NoError(t, err)

	require.NoError(t, f.wishlists.RemoveItem(ctx, customer, productA))
	assert.ErrorIs(t, f.wishlists.RemoveItem(ctx, customer, productA), domain.ErrResourceNotFound)

	require.NoError(t, f.wishlists.Clear(ctx, customer))

	view, err := f.wishlists.GetWishlist(ctx, customer, firstPage())
	require.NoError(t, err)
	assert.Empty(t, view.Items.Content)
}

func TestWishlistPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []int64{productA, productB, productUnavailable} {
		_, err := f.wishlists.AddItem(ctx, customer, id)
		require.NoError(t, err)
	}

	view, err := f.wishlists.GetWishlist(ctx, customer, domain.PageRequest{PageSize: 2, SortDir: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.Items.TotalElements)
	assert.Equal(t, 2, view.Items.TotalPages)
	require.Len(t, view.Items.Content, 2)
	assert.Equal(t, productUnavailable, view.Items.Content[0].ProductID)
	assert.False(t, view.Items.Content[0].Available)

	_, err = f.wishlists.GetWishlist(ctx, customer, domain.PageRequest{SortBy: "productName"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
