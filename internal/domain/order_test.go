package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newPendingOrder(t *testing.T) *OrderAggregate {
	t.Helper()
	items := []OrderItem{
		SnapshotItem(Product{ID: 1, Name: "A", Price: dec("10.00")}, 2),
		SnapshotItem(Product{ID: 2, Name: "B", Price: dec("5.00")}, 1),
	}
	order, err := NewOrderAggregate(7, items, dec("3.00"), 1, 1, time.Now())
	require.NoError(t, err)
	return order
}

func TestNewOrderAggregateDerivesTotal(t *testing.T) {
	order := newPendingOrder(t)

	assert.Equal(t, OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(dec("28.00")), "total was %s", order.Total)
	assert.True(t, order.ItemsTotal().Add(order.ShippingCost).Equal(order.Total))
}

func TestNewOrderAggregateRejectsInvalidInput(t *testing.T) {
	now := time.Now()
	item := SnapshotItem(Product{ID: 1, Name: "A", Price: dec("1.00")}, 1)

	_, err := NewOrderAggregate(1, nil, decimal.Zero, 1, 1, now)
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = NewOrderAggregate(1, []OrderItem{item}, dec("-1"), 1, 1, now)
	assert.ErrorIs(t, err, ErrBadRequest)

	zeroQty := item
	zeroQty.Quantity = 0
	_, err = NewOrderAggregate(1, []OrderItem{zeroQty}, decimal.Zero, 1, 1, now)
	assert.ErrorIs(t, err, ErrBadRequest)

	hugeQty := item
	hugeQty.Quantity = MaxQuantity + 1
	_, err = NewOrderAggregate(1, []OrderItem{hugeQty}, decimal.Zero, 1, 1, now)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestNewOrderAggregateRoundsShippingCost(t *testing.T) {
	item := SnapshotItem(Product{ID: 1, Name: "A", Price: dec("10.00")}, 2)

	order, err := NewOrderAggregate(1, []OrderItem{item}, dec("4.999"), 1, 1, time.Now())
	require.NoError(t, err)
	assert.True(t, order.ShippingCost.Equal(dec("5.00")), "shipping was %s", order.ShippingCost)
	assert.True(t, order.Total.Equal(dec("25.00")), "total was %s", order.Total)

	order, err = NewOrderAggregate(1, []OrderItem{item}, dec("1.005"), 1, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1.01", order.ShippingCost.StringFixed(2))
	assert.GreaterOrEqual(t, order.Total.Exponent(), int32(-2))
}

func TestOrderTransitionsStepwise(t *testing.T) {
	order := newPendingOrder(t)

	for _, next := range []OrderStatus{OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered} {
		require.NoError(t, order.TransitionTo(next, time.Now()))
		assert.Equal(t, next, order.Status)
	}

	err := order.TransitionTo(OrderStatusCancelled, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderStatusDelivered, order.Status)
}

func TestOrderTransitionRules(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			order := newPendingOrder(t)
			order.Status = tc.from

			err := order.TransitionTo(tc.to, time.Now())
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, order.Status)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)
			assert.Equal(t, tc.from, order.Status)
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	_, err = ParseOrderStatus("LOST")
	assert.ErrorIs(t, err, ErrBadRequest)
}
