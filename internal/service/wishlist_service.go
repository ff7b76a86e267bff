package service

import (
	"context"
	"fmt"
	"log"

	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
)

type WishlistService struct {
	store repository.Store
}

func NewWishlistService(store repository.Store) *WishlistService {
	return &WishlistService{store: store}
}

type WishlistView struct {
	Wishlist *domain.Wishlist                 `json:"wishlist"`
	Items    domain.Page[domain.WishlistItem] `json:"items"`
}

func (s *WishlistService) GetWishlist(ctx context.Context, identity domain.Identity, page domain.PageRequest) (*WishlistView, error) {
	if identity.UserID == 0 {
		return nil, domain.AccessDenied("an authenticated user is required")
	}

	resolved, err := page.Resolve(domain.WishlistSortFields, "id", domain.SortAsc)
	if err != nil {
		return nil, err
	}

	wishlist, err := s.store.Wishlists().GetOrCreate(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("wishlist receive error: %w", err)
	}

	items, total, err := s.store.Wishlists().ListItems(ctx, wishlist.ID, resolved)
	if err != nil {
		return nil, err
	}

	return &WishlistView{Wishlist: wishlist, Items: domain.NewPage(items, resolved, total)}, nil
}

func (s *WishlistService) AddItem(ctx context.Context, identity domain.Identity, productID int64) (*domain.WishlistItem, error) {
	if identity.UserID == 0 {
		return nil, domain.AccessDenied("an authenticated user is required")
	}

	var item *domain.WishlistItem
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Catalog().FindProductByID(ctx, productID); err != nil {
			return err
		}

		wishlist, err := repos.Wishlists().GetOrCreate(ctx, identity.UserID)
		if err != nil {
			return fmt.Errorf("wishlist receive error: %w", err)
		}

		item, err = repos.Wishlists().AddItem(ctx, wishlist.ID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Wishlist item added: UserID=%d, ProductID=%d", identity.UserID, productID)
	return item, nil
}

func (s *WishlistService) RemoveItem(ctx context.Context, identity domain.Identity, productID int64) error {
	if identity.UserID == 0 {
		return domain.AccessDenied("an authenticated user is required")
	}

	return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		wishlist, err := repos.Wishlists().FindByUserID(ctx, identity.UserID)
		if err != nil {
			return err
		}
		return repos.Wishlists().RemoveItem(ctx, wishlist.ID, productID)
	})
}

// Clear fails with ErrResourceNotFound if the user never had a wishlist.
func (s *WishlistService) Clear(ctx context.Context, identity domain.Identity) error {
	if identity.UserID == 0 {
		return domain.AccessDenied("an authenticated user is required")
	}

	return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		wishlist, err := repos.Wishlists().FindByUserID(ctx, identity.UserID)
		if err != nil {
			return err
		}
		return repos.Wishlists().ClearItems(ctx, wishlist.ID)
	})
}
