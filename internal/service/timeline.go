package service

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
)

// TimelineRecorder appends status history. Entries are never updated or removed.
type TimelineRecorder struct {
	store repository.Repositories
	now   func() time.Time
}

func NewTimelineRecorder(store repository.Repositories) *TimelineRecorder {
	return &TimelineRecorder{store: store, now: now}
}

// Append records the order's current status. The timestamp never goes below
// the previous entry, so the history stays ordered if the clock steps back.
func (r *TimelineRecorder) Append(ctx context.Context, repos repository.Repositories, order *domain.OrderAggregate, note string) (domain.TimelineEntry, error) {
	at := r.now()
	if last, ok := order.LastTimelineEntry(); ok && at.Before(last.Timestamp) {
		at = last.Timestamp
	}

	entry := domain.TimelineEntry{
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: at,
		Note:      note,
	}
	if err := repos.Timeline().Append(ctx, &entry); err != nil {
		return domain.TimelineEntry{}, fmt.Errorf("timeline append error: %w", err)
	}

	order.Timeline = append(order.Timeline, entry)
	return entry, nil
}

func (r *TimelineRecorder) List(ctx context.Context, orderID int64) ([]domain.TimelineEntry, error) {
	entries, err := r.store.Timeline().ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("timeline receive error: %w", err)
	}
	return entries, nil
}

// now is truncated to microseconds, the precision PostgreSQL keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
