// Package todostore is the embedded persistence-and-sync core of the todo
// application: a durable local SQLite store, a one-time remote seed import,
// and a repository façade with CRUD, search, and a change feed.
//
// Presentation code holds a *Store and nothing else. Reads always go back
// to the database, so callers observe exactly the committed state; every
// mutation runs in its own write scope and is followed by a change event
// subscribers can use to re-pull.
package todostore

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/skorn/go-todo-store/internal/config"
	"github.com/skorn/go-todo-store/internal/domain"
	"github.com/skorn/go-todo-store/internal/events"
	"github.com/skorn/go-todo-store/internal/observability"
	"github.com/skorn/go-todo-store/internal/remote"
	"github.com/skorn/go-todo-store/internal/repo"
	"github.com/skorn/go-todo-store/internal/services"
	"github.com/skorn/go-todo-store/internal/sysutil"
)

// Version is stamped into trace resources.
const Version = "1.0.0"

// Todo is the read-only record handed to presentation code.
type Todo = domain.Todo

// Change is one committed mutation as seen by subscribers.
type Change = events.Change

// Service-level errors callers branch on.
var (
	ErrEmptyTitle   = services.ErrEmptyTitle
	ErrTodoNotFound = services.ErrTodoNotFound
)

// Store is the repository façade over the durable store, the import
// reconciler, and the change bus.
type Store struct {
	db       *gorm.DB
	todos    *services.TodoService
	importer *services.ImportService
	bus      *events.Bus
	shutdown func(context.Context) error
}

// Open loads configuration from the environment, opens the store, and wires
// the remote seed client. It is the only constructor presentation code needs.
func Open(ctx context.Context) (*Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return OpenWith(ctx, cfg)
}

// OpenWith is Open with an explicit configuration, for embedders and tests.
func OpenWith(ctx context.Context, cfg config.Config) (*Store, error) {
	sysutil.ConfigureLogging(cfg.LogLevel, cfg.LogPretty)

	shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return nil, err
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			return nil, err
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}

	bus := &events.Bus{}
	fetcher := remote.New(cfg.RemoteBaseURL, &http.Client{Timeout: cfg.RemoteTimeout})

	return &Store{
		db:       db,
		todos:    services.NewTodoService(db, bus),
		importer: services.NewImportService(db, fetcher, bus),
		bus:      bus,
		shutdown: shutdown,
	}, nil
}

// Load returns all todos, newest first.
func (s *Store) Load(ctx context.Context) ([]Todo, error) {
	return s.todos.Load(ctx)
}

// LoadOrEmpty is the legacy read path: errors degrade to an empty result.
func (s *Store) LoadOrEmpty(ctx context.Context) []Todo {
	return s.todos.LoadOrEmpty(ctx)
}

// Search returns todos whose title or details contain query
// (case-insensitively); an empty query is equivalent to Load.
func (s *Store) Search(ctx context.Context, query string) ([]Todo, error) {
	return s.todos.Search(ctx, query)
}

// Create persists a new todo and returns the committed record.
func (s *Store) Create(ctx context.Context, title string, details *string, userID *int64) (*Todo, error) {
	return s.todos.Create(ctx, title, details, userID)
}

// Update overwrites title, details, and completed of the todo with id.
func (s *Store) Update(ctx context.Context, id int64, title string, details *string, completed bool) error {
	return s.todos.Update(ctx, id, title, details, completed)
}

// Delete removes the todo with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.todos.Delete(ctx, id)
}

// ImportIfNeeded seeds the store from the remote source once and returns
// the current contents.
func (s *Store) ImportIfNeeded(ctx context.Context) ([]Todo, error) {
	return s.importer.ImportIfNeeded(ctx)
}

// Subscribe registers for committed-change notifications. The cancel func
// must be called when the subscriber goes away.
func (s *Store) Subscribe() (<-chan Change, func()) {
	return s.bus.Subscribe()
}

// Close flushes tracing and releases the database handle.
func (s *Store) Close(ctx context.Context) error {
	if err := s.shutdown(ctx); err != nil {
		return err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
