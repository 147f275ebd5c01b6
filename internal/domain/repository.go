package domain

import (
	"context"
	"strings"
)

// Sort keys accepted by GetPaged. Anything else falls back to SortByName.
const (
	SortByName    = "name"
	SortByPrice   = "price"
	SortByCreated = "created"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageQuery describes one page of a filtered, sorted product listing.
type PageQuery struct {
	Page     int
	PageSize int
	Search   string
	SortBy   string
	Desc     bool
}

// Normalized clamps page and page size into their valid ranges and
// canonicalizes the sort key. All paging normalization lives here so the
// repositories and the service cannot disagree about it.
func (q PageQuery) Normalized() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	} else if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	switch strings.ToLower(q.SortBy) {
	case SortByPrice:
		q.SortBy = SortByPrice
	case SortByCreated:
		q.SortBy = SortByCreated
	default:
		q.SortBy = SortByName
	}
	return q
}

// ProductRepository is the persistence contract for the product aggregate.
// Add, Update and Remove stage mutations into the unit of work scoped on
// the context; nothing is durable until that unit of work commits. Absence
// is reported as (nil, nil), not as an error.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	Add(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Remove(ctx context.Context, product *Product) error

	// NameExists reports whether a product with exactly this name exists,
	// optionally excluding one id (self-exclusion on update).
	NameExists(ctx context.Context, name, excludeID string) (bool, error)

	// GetPaged returns the windowed slice for the normalized query plus the
	// total count over the filtered set before pagination.
	GetPaged(ctx context.Context, query PageQuery) ([]*Product, int, error)
}

// UnitOfWork scopes and commits the staged changes of one logical
// operation. Scope attaches a fresh, empty batch to the context; the
// repository stages into that batch and Commit applies exactly it,
// atomically, returning the number of rows affected. Batches on different
// contexts never see each other, so concurrent operations cannot commit
// or discard one another's staged mutations.
type UnitOfWork interface {
	Scope(ctx context.Context) context.Context
	Commit(ctx context.Context) (int, error)
}
