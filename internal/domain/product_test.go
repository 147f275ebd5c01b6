package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewProductTrimsAndDefaults(t *testing.T) {
	p, err := NewProduct("  Widget  ", decimal.NewFromFloat(9.99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Widget" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if !p.Active {
		t.Fatalf("expected active by default")
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
	if p.CreatedAtUTC.IsZero() {
		t.Fatalf("expected creation timestamp")
	}
}

func TestNewProductRejectsBlankName(t *testing.T) {
	_, err := NewProduct("   ", decimal.NewFromInt(1))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0].Field != "name" {
		t.Fatalf("unexpected violations: %+v", verr.Violations)
	}
}

func TestNewProductRejectsLongNameAndNegativePrice(t *testing.T) {
	long := strings.Repeat("x", MaxNameLength+1)
	_, err := NewProduct(long, decimal.NewFromInt(-1))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("expected both rules reported, got %+v", verr.Violations)
	}
}

func TestNewProductAllowsZeroPrice(t *testing.T) {
	if _, err := NewProduct("Freebie", decimal.Zero); err != nil {
		t.Fatalf("zero price must be valid: %v", err)
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	p, err := NewProduct("Before", decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, created := p.ID, p.CreatedAtUTC

	if err := p.Update("  After ", decimal.NewFromInt(7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "After" {
		t.Fatalf("expected updated trimmed name, got %q", p.Name)
	}
	if p.ID != id || !p.CreatedAtUTC.Equal(created) {
		t.Fatalf("identity must not change on update")
	}
	if !p.Active {
		t.Fatalf("update must not touch the active flag")
	}
}

func TestUpdateRejectsInvalidWithoutMutating(t *testing.T) {
	p, _ := NewProduct("Keep", decimal.NewFromInt(5))
	if err := p.Update("", decimal.NewFromInt(-1)); err == nil {
		t.Fatalf("expected error")
	}
	if p.Name != "Keep" || !p.Price.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("failed update must leave entity untouched, got %q %s", p.Name, p.Price)
	}
}

func TestDeactivateIsIdempotent(t *testing.T) {
	p, _ := NewProduct("A", decimal.NewFromInt(1))
	p.Deactivate()
	p.Deactivate()
	if p.Active {
		t.Fatalf("expected inactive")
	}
}

func TestPageQueryNormalized(t *testing.T) {
	cases := []struct {
		name string
		in   PageQuery
		want PageQuery
	}{
		{"defaults", PageQuery{}, PageQuery{Page: 1, PageSize: 10, SortBy: SortByName}},
		{"negative page", PageQuery{Page: -3, PageSize: 5}, PageQuery{Page: 1, PageSize: 5, SortBy: SortByName}},
		{"zero page size", PageQuery{Page: 2, PageSize: 0}, PageQuery{Page: 2, PageSize: 10, SortBy: SortByName}},
		{"oversized page size", PageQuery{Page: 1, PageSize: 500}, PageQuery{Page: 1, PageSize: 100, SortBy: SortByName}},
		{"sort key case", PageQuery{Page: 1, PageSize: 10, SortBy: "PRICE"}, PageQuery{Page: 1, PageSize: 10, SortBy: SortByPrice}},
		{"unknown sort key", PageQuery{Page: 1, PageSize: 10, SortBy: "bogus"}, PageQuery{Page: 1, PageSize: 10, SortBy: SortByName}},
		{"search trimmed", PageQuery{Page: 1, PageSize: 10, Search: "  abc "}, PageQuery{Page: 1, PageSize: 10, Search: "abc", SortBy: SortByName}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalized(); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
