package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
)

type normalizedCreateOrderInput struct {
	UserID int64             `json:"userId"`
	Items  []types.ItemInput `json:"items"`
}

// FingerprintCreateOrder hashes the request payload, excluding the
// idempotency key. Item order does not change the fingerprint.
func FingerprintCreateOrder(input types.CreateOrderInput) (string, error) {
	items := append([]types.ItemInput(nil), input.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ProductID != items[j].ProductID {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].Quantity < items[j].Quantity
	})
	payload, err := json.Marshal(normalizedCreateOrderInput{UserID: input.UserID, Items: items})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// createIdempotent claims the key for a fresh order id before any side
// effect. A replay returns the order the key points at; when that order was
// never persisted (the first attempt failed early) creation is retried under
// the same id.
func (s *Service) createIdempotent(ctx context.Context, input types.CreateOrderInput, key string) (*ordersdomain.Order, error) {
	hash, err := FingerprintCreateOrder(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	existing, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.RequestHash != hash {
		return nil, fmt.Errorf("%w: key %q", ErrIdempotencyConflict, key)
	}

	if existing != nil {
		order, err := s.orders.GetOrder(ctx, existing.OrderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, ordersports.ErrNotFound) {
			return nil, mapError(err)
		}
	}

	prepared, err := s.Prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		prepared.OrderID = existing.OrderID
		return s.Execute(ctx, prepared)
	}

	claimed, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: prepared.OrderID})
	if err != nil {
		return nil, mapError(err)
	}
	if claimed.OrderID != prepared.OrderID {
		// another request claimed the key first
		if order, err := s.orders.GetOrder(ctx, claimed.OrderID); err == nil {
			return order, nil
		}
		return nil, fmt.Errorf("%w: key %q", ErrCreationInProgress, key)
	}
	return s.Execute(ctx, prepared)
}
