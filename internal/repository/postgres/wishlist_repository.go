package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storefront/order-service/internal/domain"
)

type WishlistRepository struct {
	db DBTX
}

func NewWishlistRepository(db DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

func (r *WishlistRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	query := `INSERT INTO wishlists (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("wishlist creation error: %w", err)
	}
	return r.FindByUserID(ctx, userID)
}

func (r *WishlistRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	wishlist := &domain.Wishlist{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM wishlists WHERE user_id = $1`, userID,
	).Scan(&wishlist.ID, &wishlist.UserID, &wishlist.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("wishlist not found for user %d", userID)
		}
		return nil, fmt.Errorf("wishlist receive error: %w", err)
	}
	return wishlist, nil
}

const wishlistItemSelect = `
	SELECT wi.id, wi.wishlist_id, wi.product_id,
		   COALESCE(p.name, ''), COALESCE(p.price, 0), COALESCE(p.availability, FALSE)
	FROM wishlist_items wi
	LEFT JOIN products p ON p.id = wi.product_id
`

func (r *WishlistRepository) FindItem(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error) {
	query := wishlistItemSelect + ` WHERE wi.wishlist_id = $1 AND wi.product_id = $2`

	item, err := scanWishlistItem(r.db.QueryRowContext(ctx, query, wishlistID, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("product %d is not in the wishlist", productID)
		}
		return nil, fmt.Errorf("wishlist item receive error: %w", err)
	}
	return item, nil
}

func (r *WishlistRepository) AddItem(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO wishlist_items (wishlist_id, product_id) VALUES ($1, $2) RETURNING id`,
		wishlistID, productID,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.DuplicateItem("product %d is already in the wishlist", productID)
		}
		return nil, fmt.Errorf("wishlist item creation error: %w", err)
	}
	return r.FindItem(ctx, wishlistID, productID)
}

func (r *WishlistRepository) RemoveItem(ctx context.Context, wishlistID, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE wishlist_id = $1 AND product_id = $2`, wishlistID, productID)
	if err != nil {
		return fmt.Errorf("wishlist item delete error: %w", err)
	}
	return expectAffected(result, domain.NotFound("product %d is not in the wishlist", productID))
}

func (r *WishlistRepository) ListItems(ctx context.Context, wishlistID int64, page domain.PageRequest) ([]domain.WishlistItem, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wishlist_items WHERE wishlist_id = $1`, wishlistID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("wishlist items count error: %w", err)
	}

	direction := "ASC"
	if page.SortDir == domain.SortDesc {
		direction = "DESC"
	}
	query := wishlistItemSelect + ` WHERE wi.wishlist_id = $1 ORDER BY wi.id ` + direction + ` LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, wishlistID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("wishlist items retrieval error: %w", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		item, err := scanWishlistItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("wishlist item scan error: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("wishlist items retrieval error: %w", err)
	}
	return items, total, nil
}

func (r *WishlistRepository) ClearItems(ctx context.Context, wishlistID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = $1`, wishlistID); err != nil {
		return fmt.Errorf("wishlist clear error: %w", err)
	}
	return nil
}

func scanWishlistItem(row rowScanner) (*domain.WishlistItem, error) {
	item := &domain.WishlistItem{}
	err := row.Scan(&item.ID, &item.WishlistID, &item.ProductID,
		&item.ProductName, &item.ProductPrice, &item.Available)
	if err != nil {
		return nil, err
	}
	return item, nil
}
