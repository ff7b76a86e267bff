package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storefront/order-service/internal/domain"
)

type CartRepository struct {
	db DBTX
}

func NewCartRepository(db DBTX) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("cart creation error: %w", err)
	}
	return r.FindByUserID(ctx, userID)
}

func (r *CartRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.findByUserID(ctx, userID, false)
}

func (r *CartRepository) FindByUserIDForUpdate(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.findByUserID(ctx, userID, true)
}

func (r *CartRepository) findByUserID(ctx context.Context, userID int64, lock bool) (*domain.Cart, error) {
	query := `SELECT id, user_id, created_at FROM carts WHERE user_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("cart not found for user %d", userID)
		}
		return nil, fmt.Errorf("cart receive error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id,
			   COALESCE(p.name, ''), COALESCE(p.price, 0), COALESCE(p.availability, FALSE),
			   ci.quantity
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("cart items retrieval error: %w", err)
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID,
			&item.ProductName, &item.Price, &item.Available, &item.Quantity); err != nil {
			return nil, fmt.Errorf("cart item scan error: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart items retrieval error: %w", err)
	}

	return cart, nil
}

// AddOrIncrementItem relies on uq_cart_items_cart_product so concurrent adds
// of the same product end up on one row.
func (r *CartRepository) AddOrIncrementItem(ctx context.Context, cartID, productID int64, quantity int) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID, quantity); err != nil {
		return fmt.Errorf("cart item upsert error: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("cart item update error: %w", err)
	}
	return expectAffected(result, domain.NotFound("product %d is not in the cart", productID))
}

func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("cart item delete error: %w", err)
	}
	return expectAffected(result, domain.NotFound("product %d is not in the cart", productID))
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("cart clear error: %w", err)
	}
	return nil
}

func expectAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
