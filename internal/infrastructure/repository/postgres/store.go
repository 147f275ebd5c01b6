package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mrops-br/products-crud-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres and migrates the products schema (uuid primary
// key, unique index on name, numeric(18,2) price).
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&domain.Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

var errNotScoped = errors.New("unit of work not scoped on context")

// stagedOp is one pending mutation, executed inside the commit transaction.
type stagedOp func(tx *gorm.DB) (int64, error)

// opBatch is the staged mutations of one logical operation, carried on the
// operation's context so concurrent operations never share one.
type opBatch struct {
	mu  sync.Mutex
	ops []stagedOp
}

type batchKey struct{}

func batchFrom(ctx context.Context) *opBatch {
	b, _ := ctx.Value(batchKey{}).(*opBatch)
	return b
}

// UnitOfWork applies the staged mutations of one logical operation in a
// single database transaction. The unique index is the source of truth for
// name uniqueness: a duplicate that passed the NameExists pre-check fails
// here and surfaces as a domain.ConflictError, not a fatal storage error.
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a unit of work over the given connection.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Scope attaches a fresh staged-mutation batch to the context. Every
// logical operation must run under its own scope.
func (u *UnitOfWork) Scope(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchKey{}, &opBatch{})
}

func (u *UnitOfWork) stage(ctx context.Context, op stagedOp) error {
	b := batchFrom(ctx)
	if b == nil {
		return errNotScoped
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, op)
	return nil
}

// Commit runs the batch scoped on the context in one transaction and
// returns the number of rows affected. An empty batch, or a context
// without a scope, commits zero rows without touching the database.
func (u *UnitOfWork) Commit(ctx context.Context) (int, error) {
	b := batchFrom(ctx)
	if b == nil {
		return 0, nil
	}
	b.mu.Lock()
	staged := b.ops
	b.ops = nil
	b.mu.Unlock()

	if len(staged) == 0 {
		return 0, nil
	}

	var rows int64
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range staged {
			n, err := op(tx)
			if err != nil {
				return err
			}
			rows += n
		}
		return nil
	})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return 0, conflict
		}
		return 0, fmt.Errorf("commit failed: %w", err)
	}
	return int(rows), nil
}

// crudStore provides the generic CRUD primitives shared by entity
// repositories: lookup by id and staged create/save/delete. Specific
// repositories compose it and add their own queries on top.
type crudStore[T any] struct {
	db  *gorm.DB
	uow *UnitOfWork
}

func (s *crudStore[T]) getByID(ctx context.Context, id string) (*T, error) {
	var model T
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entity: %w", err)
	}
	return &model, nil
}

func (s *crudStore[T]) stageCreate(ctx context.Context, model *T, translate func(error) error) error {
	return s.uow.stage(ctx, func(tx *gorm.DB) (int64, error) {
		res := tx.Create(model)
		if res.Error != nil {
			return 0, translate(res.Error)
		}
		return res.RowsAffected, nil
	})
}

func (s *crudStore[T]) stageSave(ctx context.Context, model *T, translate func(error) error) error {
	return s.uow.stage(ctx, func(tx *gorm.DB) (int64, error) {
		res := tx.Save(model)
		if res.Error != nil {
			return 0, translate(res.Error)
		}
		return res.RowsAffected, nil
	})
}

func (s *crudStore[T]) stageDelete(ctx context.Context, id string) error {
	return s.uow.stage(ctx, func(tx *gorm.DB) (int64, error) {
		var model T
		res := tx.Delete(&model, "id = ?", id)
		if res.Error != nil {
			return 0, res.Error
		}
		return res.RowsAffected, nil
	})
}
