package ports

import "context"

// LowStockAlert describes a product whose stock fell to or below the threshold.
type LowStockAlert struct {
	To           string
	ProductID    int64
	ProductName  string
	CurrentStock int64
	Threshold    int64
}

// LowStockNotifier delivers alerts. Implementations must not block the caller.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, alert LowStockAlert) error
}
