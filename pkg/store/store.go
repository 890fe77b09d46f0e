// Package store holds the household collections: tasks, the shopping list,
// recipes, users and the ingredient and location dictionaries. Every store
// calls the API through a guarded transport and re-reads the canonical
// collection after each successful write.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/naveenspark/homedash/pkg/domain"
)

// API is the guarded transport the stores call through. *session.Guard
// satisfies it.
type API interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// ErrNotFound is returned when an id is not in the canonical collection.
var ErrNotFound = errors.New("not found")

// LineError is one recipe line that could not be added to the shopping list.
type LineError struct {
	Line       int // zero-based position in the recipe
	Ingredient string
	Err        error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line+1, e.Ingredient, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// PartialFailureError reports a batch where some submissions failed. Items
// that were created are kept.
type PartialFailureError struct {
	Recipe string
	Total  int
	Failed []LineError
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("recipe %q: %d of %d ingredients not added: %s",
		e.Recipe, len(e.Failed), e.Total, strings.Join(parts, "; "))
}

func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}

// Added returns how many submissions succeeded.
func (e *PartialFailureError) Added() int { return e.Total - len(e.Failed) }

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	return nil
}

func escape(id string) string { return url.PathEscape(id) }

type validator interface{ Validate() error }

// validateAll rejects the whole payload on the first malformed entry.
func validateAll[T validator](items []T) error {
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}
