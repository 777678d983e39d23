package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory payment ledger indexed by id and idempotency key.
type Repository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	byKey    map[string]string
}

func NewRepository() *Repository {
	return &Repository{payments: map[string]*domain.Payment{}, byKey: map[string]string{}}
}

func (r *Repository) Record(_ context.Context, payments []*domain.Payment) ([]*domain.Payment, error) {
	for _, p := range payments {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if id, ok := r.byKey[p.IdempotencyKey]; ok {
			stored := *r.payments[id]
			out = append(out, &stored)
			continue
		}
		clone := *p
		r.payments[clone.ID] = &clone
		r.byKey[clone.IdempotencyKey] = clone.ID
		result := clone
		out = append(out, &result)
	}
	return out, nil
}

func (r *Repository) Void(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		p, ok := r.payments[id]
		if !ok {
			continue
		}
		delete(r.byKey, p.IdempotencyKey)
		delete(r.payments, id)
	}
	return nil
}

func (r *Repository) ListByOrder(_ context.Context, orderID string) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := []*domain.Payment{}
	for _, p := range r.payments {
		if p.OrderID != orderID {
			continue
		}
		clone := *p
		list = append(list, &clone)
	}
	sortNewestFirst(list)
	return list, nil
}

func sortNewestFirst(list []*domain.Payment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].IdempotencyKey > list[j].IdempotencyKey
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
