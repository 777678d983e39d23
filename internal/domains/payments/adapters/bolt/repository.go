// Package bolt keeps the payment ledger in a single-file embedded database
// for single-node deployments without PostgreSQL.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

var (
	paymentsBucket = []byte("payments")
	keysBucket     = []byte("payment_keys")
)

// Repository stores payments as JSON under their id, with a second bucket
// mapping idempotency keys to ids.
type Repository struct {
	db *bolt.DB
}

type paymentRecord struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	Method         string    `json:"method"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	IdempotencyKey string    `json:"idempotencyKey"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Open opens (or creates) the ledger file at path.
func Open(path string) (*Repository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{paymentsBucket, keysBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Close releases the file lock.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Record writes all new payments in one transaction.
func (r *Repository) Record(_ context.Context, payments []*domain.Payment) ([]*domain.Payment, error) {
	for _, p := range payments {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	out := make([]*domain.Payment, 0, len(payments))
	err := r.db.Update(func(tx *bolt.Tx) error {
		items, keys := tx.Bucket(paymentsBucket), tx.Bucket(keysBucket)
		for _, p := range payments {
			if id := keys.Get([]byte(p.IdempotencyKey)); id != nil {
				stored, err := decode(items.Get(id))
				if err != nil {
					return err
				}
				out = append(out, stored)
				continue
			}
			data, err := json.Marshal(toRecord(p))
			if err != nil {
				return err
			}
			if err := items.Put([]byte(p.ID), data); err != nil {
				return err
			}
			if err := keys.Put([]byte(p.IdempotencyKey), []byte(p.ID)); err != nil {
				return err
			}
			clone := *p
			out = append(out, &clone)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Void(_ context.Context, ids []string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		items, keys := tx.Bucket(paymentsBucket), tx.Bucket(keysBucket)
		for _, id := range ids {
			raw := items.Get([]byte(id))
			if raw == nil {
				continue
			}
			stored, err := decode(raw)
			if err != nil {
				return err
			}
			if err := keys.Delete([]byte(stored.IdempotencyKey)); err != nil {
				return err
			}
			if err := items.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListByOrder(_ context.Context, orderID string) ([]*domain.Payment, error) {
	list := []*domain.Payment{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(paymentsBucket).ForEach(func(_, v []byte) error {
			p, err := decode(v)
			if err != nil {
				return err
			}
			if p.OrderID == orderID {
				list = append(list, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].IdempotencyKey > list[j].IdempotencyKey
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func decode(raw []byte) (*domain.Payment, error) {
	if raw == nil {
		return nil, errors.New("payment key index points at a missing record")
	}
	var rec paymentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &domain.Payment{
		ID:             rec.ID,
		OrderID:        rec.OrderID,
		Method:         domain.Method(rec.Method),
		Amount:         rec.Amount,
		Status:         domain.Status(rec.Status),
		Source:         domain.Source(rec.Source),
		IdempotencyKey: rec.IdempotencyKey,
		CreatedAt:      rec.CreatedAt,
	}, nil
}

func toRecord(p *domain.Payment) paymentRecord {
	return paymentRecord{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Method:         string(p.Method),
		Amount:         p.Amount,
		Status:         string(p.Status),
		Source:         string(p.Source),
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      p.CreatedAt,
	}
}
