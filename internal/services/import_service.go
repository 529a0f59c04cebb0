// Package services – ImportService
//
// This file implements the import reconciler: the seed todo list is pulled
// from the remote source and materialized into the store exactly once
// across the application's lifetime, gated by a persisted flag.
//
// The sequence is check-flag → fetch → commit → set-flag. The flag is set
// only after the imported batch has durably committed; setting it earlier
// would silently drop data if the commit then failed. A fetch or commit
// failure leaves the flag false so the next call retries from scratch.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skorn/go-todo-store/internal/domain"
	"github.com/skorn/go-todo-store/internal/events"
	"github.com/skorn/go-todo-store/internal/metrics"
	"github.com/skorn/go-todo-store/internal/remote"
	"github.com/skorn/go-todo-store/internal/repo"
)

// Fetcher is the remote collaborator contract required by ImportService.
// remote.Client satisfies it; tests substitute their own.
type Fetcher interface {
	// FetchTodos performs one independent fetch of the seed list.
	FetchTodos(ctx context.Context) ([]remote.TodoDTO, error)
}

// ImportService ensures the remote seed is imported at most once.
type ImportService struct {
	// DB is the shared GORM handle; it doubles as the read-optimized view.
	DB *gorm.DB
	// Fetcher retrieves the seed list.
	Fetcher Fetcher
	// Bus receives an import event after a successful seed. Optional.
	Bus *events.Bus

	// mu single-flights ImportIfNeeded. Concurrent callers would race the
	// window between commit and flag-set and import the batch twice.
	mu sync.Mutex
}

// NewImportService constructs an ImportService over db and fetcher.
func NewImportService(db *gorm.DB, fetcher Fetcher, bus *events.Bus) *ImportService {
	return &ImportService{DB: db, Fetcher: fetcher, Bus: bus}
}

// ImportIfNeeded returns the store contents, seeding them from the remote
// source first if that has never succeeded before.
//
// When the persisted flag is already set, no fetch happens and the current
// contents are returned read-through. Otherwise the seed list is fetched
// (single attempt), inserted in one write scope, and the flag is set only
// after the commit succeeds. Every failure is returned as *ImportError with
// the cause wrapped; the flag stays false on fetch/commit failure, so a
// later call retries the whole sequence.
func (s *ImportService) ImportIfNeeded(ctx context.Context) ([]domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr := otel.Tracer("services/ImportService")
	ctx, span := tr.Start(ctx, "ImportIfNeeded")
	defer span.End()

	done, err := repo.GetFlag(ctx, s.DB, repo.ImportedFlagKey)
	if err != nil {
		metrics.ObserveImport("error")
		return nil, &ImportError{Err: err}
	}
	if done {
		metrics.ObserveImport("skipped")
		out, err := repo.ListTodos(ctx, s.DB)
		if err != nil {
			return nil, &ImportError{Err: err}
		}
		return out, nil
	}

	dtos, err := s.Fetcher.FetchTodos(ctx)
	if err != nil {
		metrics.ObserveImport("error")
		log.Warn().Err(err).Msg("seed fetch failed, import flag stays unset")
		return nil, &ImportError{Err: err}
	}
	span.SetAttributes(attribute.Int("seed.count", len(dtos)))

	// One row per DTO. The source has no creation timestamp, so CreatedAt
	// is the import time; details start absent.
	now := time.Now().UTC()
	rows := make([]domain.Todo, 0, len(dtos))
	for _, d := range dtos {
		rows = append(rows, domain.Todo{
			ID:        d.ID,
			Title:     d.Todo,
			Details:   nil,
			Completed: d.Completed,
			CreatedAt: now,
			UserID:    d.UserID,
		})
	}

	scope := uuid.NewString()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.InsertTodos(tx, rows)
	})
	metrics.ObserveCommit("import", err == nil)
	if err != nil {
		metrics.ObserveImport("error")
		log.Error().Err(err).Str("scope", scope).Msg("seed commit failed, import flag stays unset")
		return nil, &ImportError{Err: err}
	}

	// Flag only after the batch is durable. If this write fails the rows
	// are already committed and the flag stays false; the next call would
	// import again. Surfaced as an error rather than papered over.
	if err := repo.SetFlag(ctx, s.DB, repo.ImportedFlagKey, true); err != nil {
		metrics.ObserveImport("error")
		log.Error().Err(err).Str("scope", scope).Msg("import flag write failed after commit")
		return nil, &ImportError{Err: err}
	}

	metrics.ObserveImport("ok")
	log.Info().Str("scope", scope).Int("count", len(rows)).Msg("remote todos imported")
	if s.Bus != nil {
		s.Bus.Publish(events.Change{Op: events.OpImport})
	}

	out, err := repo.ListTodos(ctx, s.DB)
	if err != nil {
		return nil, &ImportError{Err: err}
	}
	return out, nil
}
