// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Todo model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a todo is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.TodoService) which enforces business rules, change
// notification, and the write-scope discipline.
package repo

import (
	"context"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"

	"github.com/skorn/go-todo-store/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// localIDFloor keeps locally generated ids clear of the small sequential
// range the remote seed uses.
const localIDFloor int64 = 1000

// NewLocalID returns a random identifier in [localIDFloor, MaxInt64) for a
// locally created todo. Collisions with imported ids are not expected; the
// primary-key constraint would reject one if it ever happened.
func NewLocalID() int64 {
	return localIDFloor + rand.Int64N(1<<62)
}

// CreateTodo inserts a new locally authored Todo row. The id is a random
// large integer, CreatedAt is set to UTC now, and Completed starts false.
//
// On success, it returns the persisted Todo. On failure, it returns a DB error.
func CreateTodo(ctx context.Context, db *gorm.DB, title string, details *string, userID int64) (*domain.Todo, error) {
	t := &domain.Todo{
		ID:        NewLocalID(),
		Title:     title,
		Details:   details,
		Completed: false,
		CreatedAt: time.Now().UTC(),
		UserID:    userID,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// InsertTodos bulk-inserts pre-built rows. Callers run it inside a write
// scope (transaction) so the whole batch lands atomically or not at all.
func InsertTodos(tx *gorm.DB, todos []domain.Todo) error {
	if len(todos) == 0 {
		return nil
	}
	return tx.Create(&todos).Error
}

// ListTodos returns all todos ordered by creation time descending (most
// recent first), with the id as a deterministic tie-break. It returns an
// empty slice when the store is empty. On DB error, it returns the error.
func ListTodos(ctx context.Context, db *gorm.DB) ([]domain.Todo, error) {
	var out []domain.Todo
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// CountTodos returns the total number of todo rows.
func CountTodos(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Todo{}).
		Count(&total).Error
	return total, err
}

// GetTodo fetches a single todo by id. If the record does not exist, it
// returns ErrNotFound. On other DB errors, the raw error is returned.
func GetTodo(ctx context.Context, db *gorm.DB, id int64) (*domain.Todo, error) {
	var t domain.Todo
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTodoFields overwrites the three mutable columns of a todo. Only
// title, details, and completed are written; id, created_at, and user_id are
// never touched, so the last committer wins per field rather than per row.
// If no rows are affected (todo missing), it returns ErrNotFound.
func UpdateTodoFields(ctx context.Context, db *gorm.DB, id int64, title string, details *string, completed bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Todo{}).
		Where("id = ?", id).
		Select("title", "details", "completed").
		Updates(domain.Todo{Title: title, Details: details, Completed: completed})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTodo removes a todo by id. If no rows are affected (todo missing or
// already deleted), it returns ErrNotFound.
func DeleteTodo(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Todo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
