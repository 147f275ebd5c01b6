package dto

import (
	"strings"
	"time"

	"github.com/mrops-br/products-crud-api/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateProductRequest is the payload for POST /api/products.
type CreateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Validate reports every violated rule as a *domain.ValidationError.
func (r *CreateProductRequest) Validate() error {
	return domain.ValidateNameAndPrice(strings.TrimSpace(r.Name), r.Price)
}

// UpdateProductRequest is the payload for PUT /api/products/{id}.
type UpdateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Validate reports every violated rule as a *domain.ValidationError.
func (r *UpdateProductRequest) Validate() error {
	return domain.ValidateNameAndPrice(strings.TrimSpace(r.Name), r.Price)
}

// ProductResponse represents a product at the API boundary.
type ProductResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Active       bool            `json:"active"`
	CreatedAtUTC time.Time       `json:"created_at_utc"`
}

// PagedResponse is one page of product responses. Page and PageSize echo
// the caller's raw values; TotalItems counts the filtered set before
// pagination.
type PagedResponse struct {
	Items      []*ProductResponse `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalItems int                `json:"total_items"`
	TotalPages int                `json:"total_pages"`
}

// ToProductResponse converts a domain Product to ProductResponse.
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Active:       p.Active,
		CreatedAtUTC: p.CreatedAtUTC,
	}
}

// ToProductResponseList converts a list of domain Products, preserving order.
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
