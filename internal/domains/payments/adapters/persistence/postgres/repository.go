package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-commerce/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
	platformpostgres "github.com/Apurer/go-gin-commerce/internal/platform/postgres"
)

var _ ports.Repository = (*Repository)(nil)

// ErrDuplicatePayment is returned when a payment id collides with a stored row.
var ErrDuplicatePayment = errors.New("payment id already stored")

// Repository persists payments in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type paymentRecord struct {
	ID             string    `gorm:"primaryKey;column:id;type:uuid"`
	OrderID        string    `gorm:"column:order_id;type:uuid;not null;index:idx_payments_order_created"`
	Method         string    `gorm:"column:method;type:varchar(16);not null"`
	Amount         float64   `gorm:"column:amount;type:numeric(14,2);not null"`
	Status         string    `gorm:"column:status;type:varchar(16);not null"`
	Source         string    `gorm:"column:source;type:varchar(32);not null"`
	IdempotencyKey string    `gorm:"column:idempotency_key;not null;uniqueIndex"`
	CreatedAt      time.Time `gorm:"column:created_at;index:idx_payments_order_created"`
}

func (paymentRecord) TableName() string { return "payments" }

// Record inserts the batch in one transaction. Rows whose idempotency key
// already exists are skipped by ON CONFLICT and read back instead.
func (r *Repository) Record(ctx context.Context, payments []*domain.Payment) ([]*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	out := make([]*domain.Payment, 0, len(payments))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range payments {
			if err := p.Validate(); err != nil {
				return err
			}
			record := toRecord(p)
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "idempotency_key"}},
				DoNothing: true,
			}).Create(&record)
			if result.Error != nil {
				if platformpostgres.IsUniqueViolation(result.Error) {
					return fmt.Errorf("%w: %s", ErrDuplicatePayment, p.ID)
				}
				return result.Error
			}
			if result.RowsAffected == 1 {
				out = append(out, record.toDomain())
				continue
			}
			var stored paymentRecord
			if err := tx.First(&stored, "idempotency_key = ?", p.IdempotencyKey).Error; err != nil {
				return err
			}
			out = append(out, stored.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Void(ctx context.Context, ids []string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&paymentRecord{}).Error
}

func (r *Repository) ListByOrder(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []paymentRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("idempotency_key DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	list := make([]*domain.Payment, 0, len(records))
	for i := range records {
		list = append(list, records[i].toDomain())
	}
	return list, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres payment repository not configured")
	}
	return nil
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

func (r paymentRecord) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:             r.ID,
		OrderID:        r.OrderID,
		Method:         domain.Method(r.Method),
		Amount:         r.Amount,
		Status:         domain.Status(r.Status),
		Source:         domain.Source(r.Source),
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      r.CreatedAt,
	}
}
