package postgres

import (
	"context"
	"testing"

	"gorm.io/gorm"
)

// The batch mechanics never touch the database until a non-empty commit,
// so a nil connection is enough to pin the scoping contract.

func TestStagingRequiresScope(t *testing.T) {
	uow := NewUnitOfWork(nil)

	err := uow.stage(context.Background(), func(tx *gorm.DB) (int64, error) { return 1, nil })
	if err == nil {
		t.Fatalf("staging without a scoped unit of work must fail")
	}
}

func TestScopesHoldSeparateBatches(t *testing.T) {
	uow := NewUnitOfWork(nil)
	ctxA := uow.Scope(context.Background())
	ctxB := uow.Scope(context.Background())

	op := func(tx *gorm.DB) (int64, error) { return 1, nil }
	if err := uow.stage(ctxA, op); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := uow.stage(ctxA, op); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := uow.stage(ctxB, op); err != nil {
		t.Fatalf("stage: %v", err)
	}

	if got := len(batchFrom(ctxA).ops); got != 2 {
		t.Fatalf("expected 2 staged ops, got %d", got)
	}
	if got := len(batchFrom(ctxB).ops); got != 1 {
		t.Fatalf("expected 1 staged op, got %d", got)
	}
}

func TestCommitWithoutWorkSkipsDatabase(t *testing.T) {
	uow := NewUnitOfWork(nil)

	rows, err := uow.Commit(context.Background())
	if err != nil || rows != 0 {
		t.Fatalf("expected 0 rows without a scope, got %d/%v", rows, err)
	}

	rows, err = uow.Commit(uow.Scope(context.Background()))
	if err != nil || rows != 0 {
		t.Fatalf("expected 0 rows for an empty scope, got %d/%v", rows, err)
	}
}
