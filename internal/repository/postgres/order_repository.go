package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
)

var orderSortColumns = map[string]string{
	"id":        "id",
	"orderDate": "order_date",
	"total":     "total",
	"status":    "status",
}

const orderColumns = `id, user_id, order_date, updated_at, status, total,
	shipping_cost, payment_method_id, shipping_address_id`

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.OrderAggregate) error {
	query := `
		INSERT INTO orders (
			user_id, order_date, updated_at, status, total,
			shipping_cost, payment_method_id, shipping_address_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		order.UserID,
		order.OrderDate,
		order.UpdatedAt,
		order.Status,
		order.Total,
		order.ShippingCost,
		order.PaymentMethodID,
		order.ShippingAddressID,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("order creation error: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		err := r.db.QueryRowContext(ctx, itemQuery,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.Price,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("order item creation error: %w", err)
		}
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.OrderAggregate, error) {
	return r.findByID(ctx, id, false)
}

func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.OrderAggregate, error) {
	return r.findByID(ctx, id, true)
}

func (r *OrderRepository) findByID(ctx context.Context, id int64, lock bool) (*domain.OrderAggregate, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("order not found: %d", id)
		}
		return nil, fmt.Errorf("order receive error: %w", err)
	}

	if err := r.attachChildren(ctx, []*domain.OrderAggregate{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.OrderAggregate) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, order.ID, order.Status, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("order update error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.NotFound("order not found: %d", order.ID)
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter, page domain.PageRequest) ([]*domain.OrderAggregate, int64, error) {
	column, ok := orderSortColumns[page.SortBy]
	if !ok {
		return nil, 0, domain.BadRequest("invalid sort field: %s", page.SortBy)
	}
	direction := "DESC"
	if page.SortDir == domain.SortAsc {
		direction = "ASC"
	}

	var conditions []string
	var args []interface{}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders count error: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		orderColumns, where, column, direction, direction, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders retrieval error: %w", err)
	}
	defer rows.Close()

	var orders []*domain.OrderAggregate
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("order scan error: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("orders retrieval error: %w", err)
	}

	if err := r.attachChildren(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// attachChildren loads items and timeline for a batch of orders with one
// query per child table.
func (r *OrderRepository) attachChildren(ctx context.Context, orders []*domain.OrderAggregate) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*domain.OrderAggregate, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
		order.Items = []domain.OrderItem{}
		order.Timeline = []domain.TimelineEntry{}
		byID[order.ID] = order
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("order items retrieval error: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("order item scan error: %w", err)
		}
		order := byID[item.OrderID]
		order.Items = append(order.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("order items retrieval error: %w", err)
	}

	entries, err := NewTimelineRepository(r.db).listByOrderIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		order := byID[entry.OrderID]
		order.Timeline = append(order.Timeline, entry)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.OrderAggregate, error) {
	order := &domain.OrderAggregate{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderDate,
		&order.UpdatedAt,
		&order.Status,
		&order.Total,
		&order.ShippingCost,
		&order.PaymentMethodID,
		&order.ShippingAddressID,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}
