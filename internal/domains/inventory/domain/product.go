package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrEmptyName         = errors.New("product name is required")
	ErrInvalidPrice      = errors.New("product price must be a finite number greater than or equal to zero")
	ErrNegativeStock     = errors.New("product stock must not be negative")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrOutOfStock        = errors.New("insufficient stock")
	ErrInvalidAdjustment = errors.New("stock adjustment would make stock negative")
)

// Product is the inventory aggregate. Stock never drops below zero.
type Product struct {
	ID        int64
	Name      string
	Price     float64
	Stock     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct validates and constructs a product.
func NewProduct(id int64, name string, price float64, stock int64) (*Product, error) {
	p := &Product{ID: id, Name: strings.TrimSpace(name), Price: price, Stock: stock}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrEmptyName
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// Reserve takes quantity units out of stock.
func (p *Product) Reserve(quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.Stock < quantity {
		return ErrOutOfStock
	}
	p.Stock -= quantity
	return nil
}

// Adjust applies a signed delta to stock.
func (p *Product) Adjust(delta int64) error {
	if p.Stock+delta < 0 {
		return ErrInvalidAdjustment
	}
	p.Stock += delta
	return nil
}

// CrossesLowStock reports whether stock moved from above threshold to at or below it.
func CrossesLowStock(before, after, threshold int64) bool {
	return before > threshold && after <= threshold
}
