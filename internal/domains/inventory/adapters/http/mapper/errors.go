package mapper

import (
	"errors"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
)

const (
	CodeNotFound          = "PRODUCT_NOT_FOUND"
	CodeOutOfStock        = "OUT_OF_STOCK"
	CodeInvalidAdjustment = "INVALID_ADJUSTMENT"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
)

var sentinels = []struct {
	code string
	err  error
}{
	{CodeNotFound, ports.ErrNotFound},
	{CodeOutOfStock, domain.ErrOutOfStock},
	{CodeInvalidAdjustment, domain.ErrInvalidAdjustment},
	{CodeInvalidQuantity, domain.ErrInvalidQuantity},
}

// ErrorCode returns the problem code of an inventory error, or "".
func ErrorCode(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return ""
}

func ErrorFromCode(code string) error {
	for _, s := range sentinels {
		if s.code == code {
			return s.err
		}
	}
	return nil
}
