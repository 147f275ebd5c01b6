package domain

import (
	"fmt"
	"strings"
)

// FieldViolation is a single broken validation rule, scoped to a field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule for a request, not just the
// first one found.
type ValidationError struct {
	Violations []FieldViolation
}

// Add appends a violation.
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ConflictError signals a duplicate product name. The unique index on the
// store is the real enforcement; this error is also used when the index
// rejects a commit that passed the fail-fast pre-check.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product name '%s' already exists", e.Name)
}
