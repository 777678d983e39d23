package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	usersports "github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
)

func TestMapError_ClassifiesCollaboratorErrors(t *testing.T) {
	cases := []struct {
		in    error
		class error
		code  string
	}{
		{usersports.ErrNotFound, ErrNotFound, "USER_NOT_FOUND"},
		{fmt.Errorf("reserve: %w", inventorydomain.ErrOutOfStock), ErrConflict, "OUT_OF_STOCK"},
		{ordersports.ErrNotFound, ErrNotFound, "ORDER_NOT_FOUND"},
		{ordersdomain.ErrAlreadyPaid, ErrConflict, "ALREADY_PAID"},
		{ordersports.ErrVersionConflict, ErrConflict, "CONFLICT"},
		{&AmountMismatchError{Expected: 20, Provided: 19.98}, ErrConflict, "AMOUNT_MISMATCH"},
		{ErrInvalidOrderTotal, ErrDataIntegrity, "INVALID_ORDER_TOTAL"},
	}
	for _, tc := range cases {
		mapped := mapError(tc.in)
		require.ErrorIs(t, mapped, tc.class, tc.code)
		require.Equal(t, tc.code, Code(mapped))
	}

	opaque := errors.New("socket closed")
	require.Same(t, opaque, mapError(opaque))
	require.Equal(t, "INTERNAL_ERROR", Code(opaque))
	require.Empty(t, Code(nil))
}

func TestAmountMismatchError_Message(t *testing.T) {
	err := &AmountMismatchError{Expected: 20, Provided: 19.98}
	require.Equal(t, "payment amount 19.98 does not match order total 20.00", err.Error())
}

func TestFromCode_RoundTripsClass(t *testing.T) {
	err := FromCode(Code(ErrOutOfStock), "product 3 has 0 units")
	require.ErrorIs(t, err, ErrOutOfStock)
	require.ErrorIs(t, err, ErrConflict)
	require.True(t, IsBusinessError(err))

	require.Nil(t, FromCode("INTERNAL_ERROR", "boom"))
	require.False(t, IsBusinessError(errors.New("timeout")))
}
