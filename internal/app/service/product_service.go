package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mrops-br/products-crud-api/internal/app/dto"
	"github.com/mrops-br/products-crud-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService orchestrates product use cases: validation, the
// duplicate-name fail-fast check, entity mutation and the unit-of-work
// commit. Each mutating operation runs under its own unit-of-work scope,
// so concurrent requests cannot commit each other's staged changes.
// Absence of a product is a normal outcome (nil / false), never an error.
type ProductService struct {
	repo              domain.ProductRepository
	uow               domain.UnitOfWork
	tracer            trace.Tracer
	logger            *slog.Logger
	productsCreated   metric.Int64Counter
	productOperations metric.Int64Counter
}

// NewProductService creates a new product service.
func NewProductService(
	repo domain.ProductRepository,
	uow domain.UnitOfWork,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productsCreated, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:              repo,
		uow:               uow,
		tracer:            tracer,
		logger:            logger,
		productsCreated:   productsCreated,
		productOperations: productOperations,
	}
}

func (s *ProductService) countOperation(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// Create validates the request, rejects duplicate names and persists a new
// product through one unit-of-work commit.
func (s *ProductService) Create(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Create")
	defer span.End()
	ctx = s.uow.Scope(ctx)

	name := strings.TrimSpace(req.Name)
	span.SetAttributes(attribute.String("product.name", name))

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.countOperation(ctx, "create", "invalid")
		return nil, err
	}

	exists, err := s.repo.NameExists(ctx, name, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Name lookup failed")
		s.countOperation(ctx, "create", "failure")
		return nil, err
	}
	if exists {
		err := &domain.ConflictError{Name: name}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Duplicate name")
		s.logger.WarnContext(ctx, "Duplicate product name",
			slog.String("name", name),
		)
		s.countOperation(ctx, "create", "conflict")
		return nil, err
	}

	product, err := domain.NewProduct(name, req.Price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.countOperation(ctx, "create", "invalid")
		return nil, err
	}
	span.SetAttributes(attribute.String("product.id", product.ID))

	if err := s.repo.Add(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to stage product")
		s.countOperation(ctx, "create", "failure")
		return nil, err
	}
	if _, err := s.uow.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		s.logger.ErrorContext(ctx, "Failed to persist product",
			slog.String("error", err.Error()),
		)
		s.countOperation(ctx, "create", "failure")
		return nil, err
	}

	s.productsCreated.Add(ctx, 1)
	s.countOperation(ctx, "create", "success")
	s.logger.InfoContext(ctx, "Product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product created")
	return dto.ToProductResponse(product), nil
}

// Get fetches a product by id. It returns (nil, nil) when the product does
// not exist; the HTTP layer maps that to 404.
func (s *ProductService) Get(ctx context.Context, id string) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Get")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		s.countOperation(ctx, "read", "failure")
		return nil, err
	}
	if product == nil {
		s.countOperation(ctx, "read", "not_found")
		return nil, nil
	}

	s.countOperation(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product found")
	return dto.ToProductResponse(product), nil
}

// GetPaged delegates filtering, sorting and windowing to the repository and
// maps the result. Page and PageSize echo the caller's raw values; the
// max(pageSize, 1) guard only protects the total-pages division.
func (s *ProductService) GetPaged(ctx context.Context, query domain.PageQuery) (*dto.PagedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetPaged")
	defer span.End()

	span.SetAttributes(
		attribute.Int("query.page", query.Page),
		attribute.Int("query.page_size", query.PageSize),
		attribute.String("query.sort_by", query.SortBy),
	)

	items, total, err := s.repo.GetPaged(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Listing failed")
		s.countOperation(ctx, "list", "failure")
		return nil, err
	}

	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (total + pageSize - 1) / pageSize

	span.SetAttributes(attribute.Int("product.count", len(items)))
	s.countOperation(ctx, "list", "success")
	span.SetStatus(codes.Ok, "Products listed")

	return &dto.PagedResponse{
		Items:      dto.ToProductResponseList(items),
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// Update validates the request, fetches the product, rejects duplicate
// names excluding the product itself, then persists the new name and price.
// It returns (nil, nil) when the product does not exist.
func (s *ProductService) Update(ctx context.Context, id string, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Update")
	defer span.End()
	ctx = s.uow.Scope(ctx)

	span.SetAttributes(attribute.String("product.id", id))

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.countOperation(ctx, "update", "invalid")
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		s.countOperation(ctx, "update", "failure")
		return nil, err
	}
	if product == nil {
		s.countOperation(ctx, "update", "not_found")
		return nil, nil
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.NameExists(ctx, name, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Name lookup failed")
		s.countOperation(ctx, "update", "failure")
		return nil, err
	}
	if exists {
		err := &domain.ConflictError{Name: name}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Duplicate name")
		s.countOperation(ctx, "update", "conflict")
		return nil, err
	}

	if err := product.Update(name, req.Price); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.countOperation(ctx, "update", "invalid")
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to stage product")
		s.countOperation(ctx, "update", "failure")
		return nil, err
	}
	if _, err := s.uow.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		s.logger.ErrorContext(ctx, "Failed to persist product update",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.countOperation(ctx, "update", "failure")
		return nil, err
	}

	s.countOperation(ctx, "update", "success")
	s.logger.InfoContext(ctx, "Product updated",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product updated")
	return dto.ToProductResponse(product), nil
}

// Delete removes a product. It returns false when the product does not
// exist, without staging or committing anything.
func (s *ProductService) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Delete")
	defer span.End()
	ctx = s.uow.Scope(ctx)

	span.SetAttributes(attribute.String("product.id", id))

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		s.countOperation(ctx, "delete", "failure")
		return false, err
	}
	if product == nil {
		s.countOperation(ctx, "delete", "not_found")
		return false, nil
	}

	if err := s.repo.Remove(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to stage removal")
		s.countOperation(ctx, "delete", "failure")
		return false, err
	}
	if _, err := s.uow.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		s.countOperation(ctx, "delete", "failure")
		return false, err
	}

	s.countOperation(ctx, "delete", "success")
	s.logger.InfoContext(ctx, "Product deleted",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return true, nil
}
