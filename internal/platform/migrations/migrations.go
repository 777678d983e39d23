package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema of every ledger. Adapters never automigrate on
// their own; the mirrors below must track their record types.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&userRecord{},
		&orderRecord{},
		&paymentRecord{},
		&idempotencyRecord{},
	)
}

// Product schema mirrors the inventory Postgres adapter.
type productRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"column:name;not null"`
	Price     float64   `gorm:"column:price;type:numeric(12,2);not null"`
	Stock     int64     `gorm:"column:stock;not null;check:stock >= 0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// User schema mirrors the users Postgres adapter.
type userRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Order schema mirrors the orders Postgres adapter. Items are a jsonb array.
type orderRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:uuid"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Items     []byte    `gorm:"column:items;type:jsonb;not null"`
	Total     float64   `gorm:"column:total;type:numeric(14,2);not null"`
	Status    string    `gorm:"column:status;type:varchar(16);not null;index:idx_orders_status_created"`
	Version   int64     `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_orders_status_created"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Payment schema mirrors the payments Postgres adapter.
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

// Idempotency schema mirrors the checkout Postgres idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	OrderID     string    `gorm:"column:order_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }
