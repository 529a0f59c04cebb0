// Package domain defines the persistence models for todos and application
// settings. These types are mapped with GORM and form the core data layer
// of the todo store.
package domain

import "time"

// LocalUserID marks rows created on this device rather than imported from
// the remote seed. Imported rows carry the user id reported by the source API.
const LocalUserID int64 = 0

// Todo represents a single todo item. Rows originate either from the
// one-time remote seed import (small sequential ids, UserID from the source)
// or from local creation (random large ids, UserID = LocalUserID).
//
// Fields:
//   - ID: stable integer primary key. Not auto-incremented: imported rows
//     keep their remote id, local rows get a randomly generated large id.
//   - Title: todo text. Storage permits the empty string; the non-empty
//     rule is enforced at the service boundary.
//   - Details: optional free-form notes; nil when never set.
//   - Completed: done marker, defaults to false.
//   - CreatedAt: set once at insert, never updated afterwards. Sole sort
//     key for listing (descending, newest first).
//   - UserID: provenance of imported rows; LocalUserID for local ones.
type Todo struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement:false"`
	Title     string    `json:"title"      gorm:"type:text"`
	Details   *string   `json:"details,omitempty" gorm:"type:text"`
	Completed bool      `json:"completed"  gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_todos_created_at"`
	UserID    int64     `json:"user_id"    gorm:"not null;default:0"`
}

// TableName returns the database table name for Todo.
func (Todo) TableName() string { return "todos" }

// Setting is a single key/value row in the application settings table.
// It backs small pieces of process-durable state, currently only the
// import flag that gates the one-time remote seed.
type Setting struct {
	Key       string    `json:"key"        gorm:"type:varchar(64);primaryKey"`
	Value     string    `json:"value"      gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }
