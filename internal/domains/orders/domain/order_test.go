package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewOrder_TotalIsDecimalSumOfSubtotals(t *testing.T) {
	order, err := NewOrder("o-1", 1, []Item{
		{ProductID: 1, Quantity: 3, Subtotal: 0.3},
		{ProductID: 2, Quantity: 1, Subtotal: 0.1},
		{ProductID: 3, Quantity: 2, Subtotal: 0.2},
	})
	require.NoError(t, err)
	require.Equal(t, 0.6, order.Total)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, int64(1), order.Version)
}

func TestNewOrder_Validation(t *testing.T) {
	_, err := NewOrder("", 1, []Item{{ProductID: 1, Quantity: 1, Subtotal: 1}})
	require.ErrorIs(t, err, ErrInvalidID)
	_, err = NewOrder("o", 0, []Item{{ProductID: 1, Quantity: 1, Subtotal: 1}})
	require.ErrorIs(t, err, ErrInvalidUser)
	_, err = NewOrder("o", 1, nil)
	require.ErrorIs(t, err, ErrNoItems)
	_, err = NewOrder("o", 1, []Item{{ProductID: 1, Quantity: 0, Subtotal: 1}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	order := &Order{ID: "o", UserID: 1, Items: []Item{{ProductID: 1, Quantity: 1, Subtotal: 10}}, Total: 9, Status: StatusPending}
	require.ErrorIs(t, order.Validate(), ErrTotalMismatch)
}

func TestOrder_StatusMachine(t *testing.T) {
	cases := []struct {
		from, to Status
		err      error
	}{
		{StatusPending, StatusPaid, nil},
		{StatusPending, StatusFailed, nil},
		{StatusPending, StatusCancelled, nil},
		{StatusPending, StatusPending, ErrInvalidTransition},
		{StatusFailed, StatusPaid, nil},
		{StatusFailed, StatusCancelled, nil},
		{StatusFailed, StatusPending, ErrInvalidTransition},
		{StatusPaid, StatusCancelled, ErrAlreadyPaid},
		{StatusPaid, StatusPaid, ErrAlreadyPaid},
		{StatusCancelled, StatusPaid, ErrOrderCancelled},
		{StatusPending, Status("SHIPPED"), ErrInvalidStatus},
	}
	for _, tc := range cases {
		order := &Order{Status: tc.from, Version: 3}
		err := order.TransitionTo(tc.to, time.Now())
		if tc.err == nil {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			require.Equal(t, tc.to, order.Status)
			require.Equal(t, int64(4), order.Version)
			continue
		}
		require.ErrorIs(t, err, tc.err, "%s -> %s", tc.from, tc.to)
		require.Equal(t, tc.from, order.Status)
		require.Equal(t, int64(3), order.Version)
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" paid ")
	require.NoError(t, err)
	require.Equal(t, StatusPaid, status)
	_, err = ParseStatus("shipped")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestClone_IsDeep(t *testing.T) {
	order, err := NewOrder("o", 1, []Item{{ProductID: 1, Quantity: 1, Subtotal: 1}})
	require.NoError(t, err)
	clone := order.Clone()
	clone.Items[0].Quantity = 9
	require.Equal(t, int64(1), order.Items[0].Quantity)
}
