package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxNameLength is the upper bound on a product name, matching the
// column width of the unique name index.
const MaxNameLength = 100

// Product is the aggregate root. It owns its own invariants: the name is
// always trimmed and non-empty, the price is never negative, and ID and
// CreatedAtUTC are assigned once at construction.
type Product struct {
	ID           string          `gorm:"primaryKey;type:uuid"`
	Name         string          `gorm:"size:100;not null;uniqueIndex"`
	Price        decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Active       bool            `gorm:"not null"`
	CreatedAtUTC time.Time       `gorm:"column:created_at_utc;not null"`
}

// TableName sets the gorm table name.
func (Product) TableName() string { return "products" }

// NewProduct creates a product with a fresh id and UTC creation timestamp.
// It returns a *ValidationError when name or price violate the entity rules.
func NewProduct(name string, price decimal.Decimal) (*Product, error) {
	p := &Product{
		ID:           uuid.New().String(),
		Active:       true,
		CreatedAtUTC: time.Now().UTC(),
	}
	if err := p.Update(name, price); err != nil {
		return nil, err
	}
	return p, nil
}

// Update overwrites name (trimmed) and price after re-validating them.
// ID, Active and CreatedAtUTC are never touched.
func (p *Product) Update(name string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if err := ValidateNameAndPrice(name, price); err != nil {
		return err
	}
	p.Name = name
	p.Price = price
	return nil
}

// Deactivate clears the active flag. Idempotent.
func (p *Product) Deactivate() { p.Active = false }

// ValidateNameAndPrice checks the entity rules for an already-trimmed name
// and a price, collecting every violated rule.
func ValidateNameAndPrice(name string, price decimal.Decimal) error {
	var verr ValidationError
	if name == "" {
		verr.Add("name", "the product name is required")
	} else if len(name) > MaxNameLength {
		verr.Add("name", "the name must have a maximum of 100 characters")
	}
	if price.IsNegative() {
		verr.Add("price", "the price must not be negative")
	}
	if len(verr.Violations) > 0 {
		return &verr
	}
	return nil
}
