package memory

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mrops-br/products-crud-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errNotScoped = errors.New("unit of work not scoped on context")

type mutationKind int

const (
	mutationAdd mutationKind = iota
	mutationUpdate
	mutationRemove
)

type mutation struct {
	kind    mutationKind
	product domain.Product
}

// batch is the staged mutations of one logical operation, carried on the
// operation's context so concurrent operations never share one.
type batch struct {
	mu        sync.Mutex
	mutations []mutation
}

type batchKey struct{}

func batchFrom(ctx context.Context) *batch {
	b, _ := ctx.Value(batchKey{}).(*batch)
	return b
}

// Store is an in-memory implementation of domain.ProductRepository and
// domain.UnitOfWork. Add, Update and Remove stage mutations into the batch
// scoped on the context; nothing is visible to readers until Commit
// applies that batch. Commit re-checks the unique-name invariant so a
// duplicate that slipped past the NameExists pre-check still fails with a
// ConflictError, the same way a unique index rejects a transaction.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewStore creates an empty in-memory product store.
func NewStore(tracer trace.Tracer, logger *slog.Logger) *Store {
	return &Store{
		products: make(map[string]domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// GetByID returns a copy of the product, or (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	_, span := s.tracer.Start(ctx, "memory.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Add stages an insert.
func (s *Store) Add(ctx context.Context, product *domain.Product) error {
	return s.stage(ctx, "memory.Add", mutation{kind: mutationAdd, product: *product})
}

// Update stages an overwrite.
func (s *Store) Update(ctx context.Context, product *domain.Product) error {
	return s.stage(ctx, "memory.Update", mutation{kind: mutationUpdate, product: *product})
}

// Remove stages a hard delete.
func (s *Store) Remove(ctx context.Context, product *domain.Product) error {
	return s.stage(ctx, "memory.Remove", mutation{kind: mutationRemove, product: *product})
}

// Scope attaches a fresh staged-mutation batch to the context. Every
// logical operation must run under its own scope.
func (s *Store) Scope(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchKey{}, &batch{})
}

func (s *Store) stage(ctx context.Context, spanName string, m mutation) error {
	_, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(attribute.String("product.id", m.product.ID))

	b := batchFrom(ctx)
	if b == nil {
		span.RecordError(errNotScoped)
		return errNotScoped
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mutations = append(b.mutations, m)
	return nil
}

// NameExists reports a case-sensitive exact match on committed names,
// optionally excluding one id.
func (s *Store) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	_, span := s.tracer.Start(ctx, "memory.NameExists")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// GetPaged filters, sorts and windows the committed products. The query is
// normalized here; callers get back the total over the filtered set plus
// copies of the requested page.
func (s *Store) GetPaged(ctx context.Context, query domain.PageQuery) ([]*domain.Product, int, error) {
	_, span := s.tracer.Start(ctx, "memory.GetPaged")
	defer span.End()

	q := query.Normalized()
	span.SetAttributes(
		attribute.Int("query.page", q.Page),
		attribute.Int("query.page_size", q.PageSize),
	)

	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	filtered := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		filtered = append(filtered, p)
	}

	// Map iteration order is random; fix it before the stable sort so ties
	// stay stable within a run.
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	sort.SliceStable(filtered, func(i, j int) bool {
		c := compareByKey(&filtered[i], &filtered[j], q.SortBy)
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	total := len(filtered)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	items := make([]*domain.Product, 0, end-start)
	for i := start; i < end; i++ {
		p := filtered[i]
		items = append(items, &p)
	}

	span.SetAttributes(attribute.Int("product.count", len(items)))
	return items, total, nil
}

func compareByKey(a, b *domain.Product, sortBy string) int {
	switch sortBy {
	case domain.SortByPrice:
		return a.Price.Cmp(b.Price)
	case domain.SortByCreated:
		return a.CreatedAtUTC.Compare(b.CreatedAtUTC)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

// Commit applies the batch scoped on the context atomically: the whole
// batch is validated against the unique-name invariant first, and either
// every mutation lands or none does. It returns the number of rows
// affected. A context without a scope commits zero rows.
func (s *Store) Commit(ctx context.Context) (int, error) {
	_, span := s.tracer.Start(ctx, "memory.Commit")
	defer span.End()

	b := batchFrom(ctx)
	if b == nil {
		return 0, nil
	}
	b.mu.Lock()
	staged := b.mutations
	b.mutations = nil
	b.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]string, len(s.products))
	for id, p := range s.products {
		names[p.Name] = id
	}
	for _, m := range staged {
		switch m.kind {
		case mutationAdd, mutationUpdate:
			if owner, ok := names[m.product.Name]; ok && owner != m.product.ID {
				err := &domain.ConflictError{Name: m.product.Name}
				span.RecordError(err)
				span.SetStatus(codes.Error, "Unique name violated")
				return 0, err
			}
			// The batch sees its own writes.
			for n, id := range names {
				if id == m.product.ID {
					delete(names, n)
				}
			}
			names[m.product.Name] = m.product.ID
		case mutationRemove:
			for n, id := range names {
				if id == m.product.ID {
					delete(names, n)
				}
			}
		}
	}

	rows := 0
	for _, m := range staged {
		switch m.kind {
		case mutationAdd, mutationUpdate:
			s.products[m.product.ID] = m.product
			rows++
		case mutationRemove:
			if _, ok := s.products[m.product.ID]; ok {
				delete(s.products, m.product.ID)
				rows++
			}
		}
	}

	if rows > 0 {
		s.logger.DebugContext(ctx, "Committed staged mutations",
			slog.Int("rows", rows),
		)
	}
	span.SetAttributes(attribute.Int("rows_affected", rows))
	span.SetStatus(codes.Ok, "Committed")
	return rows, nil
}
