package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/storefront/order-service/internal/domain"
)

type TimelineRepository struct {
	db DBTX
}

func NewTimelineRepository(db DBTX) *TimelineRepository {
	return &TimelineRepository{db: db}
}

func (r *TimelineRepository) Append(ctx context.Context, entry *domain.TimelineEntry) error {
	query := `
		INSERT INTO order_timeline (order_id, status, date, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	note := sql.NullString{String: entry.Note, Valid: entry.Note != ""}
	err := r.db.QueryRowContext(ctx, query, entry.OrderID, entry.Status, entry.Timestamp, note).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("timeline append error: %w", err)
	}
	return nil
}

func (r *TimelineRepository) ListByOrderID(ctx context.Context, orderID int64) ([]domain.TimelineEntry, error) {
	return r.listByOrderIDs(ctx, []int64{orderID})
}

func (r *TimelineRepository) listByOrderIDs(ctx context.Context, orderIDs []int64) ([]domain.TimelineEntry, error) {
	query := `
		SELECT id, order_id, status, date, description
		FROM order_timeline
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("timeline retrieval error: %w", err)
	}
	defer rows.Close()

	entries := []domain.TimelineEntry{}
	for rows.Next() {
		var entry domain.TimelineEntry
		var note sql.NullString
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Timestamp, &note); err != nil {
			return nil, fmt.Errorf("timeline scan error: %w", err)
		}
		entry.Note = note.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timeline retrieval error: %w", err)
	}
	return entries, nil
}
