package service

import (
	"context"
	"fmt"

	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
)

type CartService struct {
	store repository.Store
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store}
}

func (s *CartService) GetCart(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	if identity.UserID == 0 {
		return nil, domain.AccessDenied("an authenticated user is required")
	}

	cart, err := s.store.Carts().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("cart receive error: %w", err)
	}
	return cart, nil
}

// mutate runs fn against the caller's cart in a transaction and returns the
// cart as it looks afterwards.
func (s *CartService) mutate(ctx context.Context, identity domain.Identity, fn func(repos repository.Repositories, cart *domain.Cart) error) (*domain.Cart, error) {
	if identity.UserID == 0 {
		return nil, domain.AccessDenied("an authenticated user is required")
	}

	var cart *domain.Cart
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Carts().GetOrCreate(ctx, identity.UserID); err != nil {
			return fmt.Errorf("cart receive error: %w", err)
		}
		current, err := repos.Carts().FindByUserIDForUpdate(ctx, identity.UserID)
		if err != nil {
			return fmt.Errorf("cart lock error: %w", err)
		}
		if err := fn(repos, current); err != nil {
			return err
		}
		cart, err = repos.Carts().FindByUserID(ctx, identity.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds a product or, when already present, increases its quantity.
func (s *CartService) AddItem(ctx context.Context, identity domain.Identity, productID int64, quantity int) (*domain.Cart, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	return s.mutate(ctx, identity, func(repos repository.Repositories, cart *domain.Cart) error {
		if err := domain.ValidateQuantity(cart.Quantity(productID) + quantity); err != nil {
			return err
		}
		product, err := repos.Catalog().FindProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Available {
			return domain.NotFound("product %d is not available", productID)
		}
		return repos.Carts().AddOrIncrementItem(ctx, cart.ID, productID, quantity)
	})
}

func (s *CartService) UpdateItem(ctx context.Context, identity domain.Identity, productID int64, quantity int) (*domain.Cart, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	return s.mutate(ctx, identity, func(repos repository.Repositories, cart *domain.Cart) error {
		return repos.Carts().UpdateItemQuantity(ctx, cart.ID, productID, quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, identity domain.Identity, productID int64) (*domain.Cart, error) {
	return s.mutate(ctx, identity, func(repos repository.Repositories, cart *domain.Cart) error {
		return repos.Carts().RemoveItem(ctx, cart.ID, productID)
	})
}

// Clear empties the cart but keeps it.
func (s *CartService) Clear(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	return s.mutate(ctx, identity, func(repos repository.Repositories, cart *domain.Cart) error {
		return repos.Carts().ClearItems(ctx, cart.ID)
	})
}
