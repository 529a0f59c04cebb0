// Package services – TodoService
//
// This file implements TodoService, the repository façade and the only
// entry point presentation code talks to. It validates input, runs every
// mutation inside its own short-lived write scope (a GORM transaction),
// re-reads committed state through the shared read handle, and publishes a
// change event after each successful commit so subscribers can re-pull.
//
// Each public call completes its full read-modify-commit-reread cycle
// before returning; the façade never pipelines.
//
// Observability: public methods are OpenTelemetry-instrumented; write
// scopes carry a correlation id in the logs.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skorn/go-todo-store/internal/domain"
	"github.com/skorn/go-todo-store/internal/events"
	"github.com/skorn/go-todo-store/internal/metrics"
	"github.com/skorn/go-todo-store/internal/repo"
	"github.com/skorn/go-todo-store/internal/search"
)

// TodoService exposes CRUD and search over the durable store.
type TodoService struct {
	// DB is the shared GORM handle; it doubles as the read-optimized view.
	DB *gorm.DB
	// Bus receives a change event after every successful commit. Optional.
	Bus *events.Bus
}

// NewTodoService constructs a TodoService over db, publishing changes to bus.
func NewTodoService(db *gorm.DB, bus *events.Bus) *TodoService {
	return &TodoService{DB: db, Bus: bus}
}

// Load returns all todos ordered by creation time descending (id as
// tie-break). It reflects every previously committed write, including those
// committed by other write scopes.
func (s *TodoService) Load(ctx context.Context) ([]domain.Todo, error) {
	tr := otel.Tracer("services/TodoService")
	ctx, span := tr.Start(ctx, "Load")
	defer span.End()

	return repo.ListTodos(ctx, s.DB)
}

// LoadOrEmpty is the legacy read path: any read error degrades to an empty
// slice after being logged. New callers should use Load and handle the
// error; this shim exists for callers ported from the old contract where
// reads could not fail visibly.
func (s *TodoService) LoadOrEmpty(ctx context.Context) []domain.Todo {
	out, err := s.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load degraded to empty result")
		return []domain.Todo{}
	}
	return out
}

// Search returns todos whose title or details contain query, matched
// case- and diacritic-insensitively, ordered newest first. An empty (or
// all-whitespace) query is equivalent to Load. Records with nil details
// never match on the details clause.
func (s *TodoService) Search(ctx context.Context, query string) ([]domain.Todo, error) {
	tr := otel.Tracer("services/TodoService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.Int("query.len", len(query))),
	)
	defer span.End()

	all, err := repo.ListTodos(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	m := search.NewMatcher(query)
	if m.Empty() {
		return all, nil
	}
	out := make([]domain.Todo, 0, len(all))
	for _, t := range all {
		if m.Match(t.Title, t.Details) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Create validates the title, commits a new todo in its own write scope,
// and returns the record re-read through the shared read handle so callers
// hold the canonical committed value, not a scope-local one.
//
// userID is nil for locally authored todos. The repo layer itself accepts
// any title; the non-empty rule lives here, at the façade boundary.
func (s *TodoService) Create(ctx context.Context, title string, details *string, userID *int64) (*domain.Todo, error) {
	tr := otel.Tracer("services/TodoService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	uid := domain.LocalUserID
	if userID != nil {
		uid = *userID
	}

	scope := uuid.NewString()
	var created *domain.Todo
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := repo.CreateTodo(ctx, tx, title, details, uid)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	metrics.ObserveCommit("create", err == nil)
	if err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("create commit failed")
		return nil, err
	}

	// Re-read through the shared handle: only committed state leaves here.
	got, err := repo.GetTodo(ctx, s.DB, created.ID)
	if err != nil {
		return nil, err
	}
	s.publish(events.Change{Op: events.OpCreate, ID: got.ID})
	log.Debug().Str("scope", scope).Int64("id", got.ID).Msg("todo created")
	return got, nil
}

// Update overwrites the three mutable fields of the todo identified by id
// inside a fresh write scope. CreatedAt and UserID are never touched, and
// no duplicate row is created. Returns ErrTodoNotFound when the target no
// longer exists.
func (s *TodoService) Update(ctx context.Context, id int64, title string, details *string, completed bool) error {
	tr := otel.Tracer("services/TodoService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}

	scope := uuid.NewString()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.UpdateTodoFields(ctx, tx, id, title, details, completed)
	})
	metrics.ObserveCommit("update", err == nil)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrTodoNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("scope", scope).Int64("id", id).Msg("update commit failed")
		return err
	}
	s.publish(events.Change{Op: events.OpUpdate, ID: id})
	return nil
}

// Delete removes the todo identified by id inside a fresh write scope.
// Returns ErrTodoNotFound when the target no longer exists.
func (s *TodoService) Delete(ctx context.Context, id int64) error {
	tr := otel.Tracer("services/TodoService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	scope := uuid.NewString()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.DeleteTodo(ctx, tx, id)
	})
	metrics.ObserveCommit("delete", err == nil)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrTodoNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("scope", scope).Int64("id", id).Msg("delete commit failed")
		return err
	}
	s.publish(events.Change{Op: events.OpDelete, ID: id})
	return nil
}

func (s *TodoService) publish(c events.Change) {
	if s.Bus != nil {
		s.Bus.Publish(c)
	}
}
