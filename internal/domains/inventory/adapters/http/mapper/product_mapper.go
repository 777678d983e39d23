package mapper

import (
	"errors"
	"time"

	"github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
)

// ProductPayload is the inbound body of create and update.
type ProductPayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int64   `json:"stock"`
}

// Product is the HTTP representation of a product.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// StockChange is the body of PATCH /products/:id/stock. Older callers send
// the absolute stock instead of a delta.
type StockChange struct {
	Delta *int64 `json:"delta,omitempty"`
	Stock *int64 `json:"stock,omitempty"`
}

// Quantity is the body of the reserve and release routes.
type Quantity struct {
	Quantity int64 `json:"quantity"`
}

var errEmptyStockChange = errors.New("delta or stock is required")

// ResolveDelta turns either form of StockChange into a delta against current.
func (s StockChange) ResolveDelta(current int64) (int64, error) {
	switch {
	case s.Delta != nil:
		return *s.Delta, nil
	case s.Stock != nil:
		return *s.Stock - current, nil
	default:
		return 0, errEmptyStockChange
	}
}

func (p ProductPayload) ToDomain() *domain.Product {
	return &domain.Product{Name: p.Name, Price: p.Price, Stock: p.Stock}
}

func FromDomain(p *domain.Product) Product {
	if p == nil {
		return Product{}
	}
	return Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func FromDomainList(products []*domain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, FromDomain(p))
	}
	return out
}

func ToDomain(p Product) *domain.Product {
	return &domain.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}
