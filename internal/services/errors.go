// Package services defines the business logic of the todo store: the
// repository façade consumed by presentation code and the one-time import
// reconciler. This file centralizes service-level error values so they can
// be consistently returned by service methods and checked by callers.
//
// These errors are intended for the presentation layer to branch on;
// translating them into user-facing messages happens there, not here.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTitle is returned when a create or update request carries a
	// title that is empty after trimming whitespace.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrTodoNotFound indicates that the targeted todo no longer exists in
	// the store (e.g. it was deleted by another committed write scope).
	ErrTodoNotFound = errors.New("todo not found")
)

// ImportError wraps whatever made importIfNeeded fail: a remote fetch
// failure, a commit failure, or the flag write after commit. The cause is
// reachable through errors.Is/As via Unwrap.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string { return fmt.Sprintf("import failed: %v", e.Err) }
func (e *ImportError) Unwrap() error { return e.Err }
