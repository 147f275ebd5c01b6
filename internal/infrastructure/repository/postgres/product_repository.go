package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/products-crud-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var sortColumns = map[string]string{
	domain.SortByName:    "name",
	domain.SortByPrice:   "price",
	domain.SortByCreated: "created_at_utc",
}

// ProductRepository is the Postgres implementation of
// domain.ProductRepository, composing the generic crudStore with the
// product-specific name and paging queries.
type ProductRepository struct {
	crudStore[domain.Product]
	tracer trace.Tracer
	logger *slog.Logger
}

// NewProductRepository wires a product repository and its unit of work over
// one connection.
func NewProductRepository(db *gorm.DB, tracer trace.Tracer, logger *slog.Logger) (*ProductRepository, *UnitOfWork) {
	uow := NewUnitOfWork(db)
	repo := &ProductRepository{
		crudStore: crudStore[domain.Product]{db: db, uow: uow},
		tracer:    tracer,
		logger:    logger,
	}
	return repo, uow
}

// GetByID returns (nil, nil) when the product does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))
	return r.getByID(ctx, id)
}

// Add stages an insert into the unit of work scoped on the context. A
// unique-index rejection at commit is translated to a domain.ConflictError
// naming the duplicate.
func (r *ProductRepository) Add(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "postgres.Add")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))
	return r.stageCreate(ctx, product, translateDuplicate(product.Name))
}

// Update stages a full-row save.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "postgres.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))
	return r.stageSave(ctx, product, translateDuplicate(product.Name))
}

// Remove stages a hard delete.
func (r *ProductRepository) Remove(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "postgres.Remove")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))
	return r.stageDelete(ctx, product.ID)
}

// NameExists reports a case-sensitive exact name match, optionally
// excluding one id.
func (r *ProductRepository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.NameExists")
	defer span.End()

	q := r.db.WithContext(ctx).Model(&domain.Product{}).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check name: %w", err)
	}
	return count > 0, nil
}

// GetPaged normalizes the query, applies the contains-filter and sort, and
// returns the requested window plus the pre-pagination total.
func (r *ProductRepository) GetPaged(ctx context.Context, query domain.PageQuery) ([]*domain.Product, int, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.GetPaged")
	defer span.End()

	q := query.Normalized()
	span.SetAttributes(
		attribute.Int("query.page", q.Page),
		attribute.Int("query.page_size", q.PageSize),
		attribute.String("query.sort_by", q.SortBy),
	)

	base := r.db.WithContext(ctx).Model(&domain.Product{})
	if q.Search != "" {
		base = base.Where("name ILIKE ?", "%"+q.Search+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	direction := "asc"
	if q.Desc {
		direction = "desc"
	}
	order := sortColumns[q.SortBy] + " " + direction

	var items []*domain.Product
	err := base.
		Order(order).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(items)))
	return items, int(total), nil
}

func translateDuplicate(name string) func(error) error {
	return func(err error) error {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domain.ConflictError{Name: name}
		}
		return err
	}
}
