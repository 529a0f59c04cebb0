// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Setting
// model, used for small pieces of process-durable key/value state such as
// the one-time import flag.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skorn/go-todo-store/internal/domain"
)

// ImportedFlagKey names the setting row gating the one-time remote seed.
const ImportedFlagKey = "did_import_remote_todos"

// GetFlag reads a boolean setting. A missing row reads as false, matching
// the defaults-style semantics the import gate relies on.
func GetFlag(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	var s domain.Setting
	err := db.WithContext(ctx).
		Where("key = ?", key).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.Value == "true", nil
}

// SetFlag upserts a boolean setting.
func SetFlag(ctx context.Context, db *gorm.DB, key string, value bool) error {
	v := "false"
	if value {
		v = "true"
	}
	s := domain.Setting{Key: key, Value: v, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}
