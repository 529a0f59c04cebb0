package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skorn/go-todo-store/internal/domain"
	"github.com/skorn/go-todo-store/internal/events"
	"github.com/skorn/go-todo-store/internal/repo"
)

// test DB helper
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func strptr(s string) *string { return &s }

func TestCreate_RoundTrip(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	created, err := svc.Create(ctx, "X", strptr("Y"), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Completed {
		t.Fatalf("new todo must start incomplete")
	}
	if created.CreatedAt.Before(before) {
		t.Fatalf("CreatedAt earlier than call time: %v", created.CreatedAt)
	}
	if created.UserID != domain.LocalUserID {
		t.Fatalf("nil userID must map to local sentinel, got %d", created.UserID)
	}

	out, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("want exactly one record, got %d", len(out))
	}
	got := out[0]
	if got.ID != created.ID || got.Title != "X" || got.Details == nil || *got.Details != "Y" || got.Completed {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreate_RejectsBlankTitle(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Create(ctx, title, nil, nil); !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("title %q: want ErrEmptyTitle, got %v", title, err)
		}
	}
	out, _ := svc.Load(ctx)
	if len(out) != 0 {
		t.Fatalf("rejected creates must not persist, got %d rows", len(out))
	}
}

func TestCreate_KeepsCallerUserID(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)

	uid := int64(99)
	created, err := svc.Create(context.Background(), "remote-style", nil, &uid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.UserID != 99 {
		t.Fatalf("userID not kept: %+v", created)
	}
}

func TestLoad_SortInvariant(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)
	ctx := context.Background()

	t0 := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	seed := []domain.Todo{
		{ID: 10, Title: "a", CreatedAt: t0},
		{ID: 11, Title: "b", CreatedAt: t0.Add(time.Hour)},
		{ID: 12, Title: "c", CreatedAt: t0.Add(time.Hour)}, // tie with 11
		{ID: 13, Title: "d", CreatedAt: t0.Add(2 * time.Hour)},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	check := func(out []domain.Todo, label string) {
		t.Helper()
		if len(out) != 4 {
			t.Fatalf("%s: want 4, got %d", label, len(out))
		}
		for i := 1; i < len(out); i++ {
			prev, cur := out[i-1], out[i]
			if cur.CreatedAt.After(prev.CreatedAt) {
				t.Fatalf("%s: not descending at %d", label, i)
			}
			if cur.CreatedAt.Equal(prev.CreatedAt) && cur.ID > prev.ID {
				t.Fatalf("%s: tie not broken by id at %d", label, i)
			}
		}
	}

	out, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	check(out, "Load")

	out, err = svc.Search(ctx, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	check(out, `Search("")`)
}

func TestSearch_TitleOrDetails(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)
	ctx := context.Background()

	t0 := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	seed := []domain.Todo{
		{ID: 1, Title: "Buy milk", Details: nil, CreatedAt: t0.Add(2 * time.Hour)},
		{ID: 2, Title: "Walk", Details: strptr("buy a leash"), CreatedAt: t0.Add(time.Hour)},
		{ID: 3, Title: "Sleep", Details: nil, CreatedAt: t0},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, q := range []string{"buy", "BUY", "Buy"} {
		out, err := svc.Search(ctx, q)
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(out) != 2 || out[0].ID != 1 || out[1].ID != 2 {
			t.Fatalf("Search(%q): want [1 2], got %+v", q, out)
		}
	}
}

func TestUpdate_ReflectsChangeWithoutDuplicate(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "old", strptr("keep me"), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Update(ctx, created.ID, "Z", created.Details, true); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("update created a duplicate: %d rows", len(out))
	}
	got := out[0]
	if got.Title != "Z" || !got.Completed || got.Details == nil || *got.Details != "keep me" {
		t.Fatalf("update not reflected: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("CreatedAt must be immutable")
	}
}

func TestUpdate_MissingTarget(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)

	err := svc.Update(context.Background(), 12345, "x", nil, false)
	if !errors.Is(err, ErrTodoNotFound) {
		t.Fatalf("want ErrTodoNotFound, got %v", err)
	}
}

func TestDelete_RemovesExactlyOne(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		c, err := svc.Create(ctx, fmt.Sprintf("t%d", i), nil, nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, c.ID)
	}

	if err := svc.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	out, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("want 3 rows, got %d", len(out))
	}
	for _, tt := range out {
		if tt.ID == ids[1] {
			t.Fatalf("deleted id still visible")
		}
	}
	found, err := svc.Search(ctx, "t1")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("deleted record still matches search: %+v", found)
	}

	if err := svc.Delete(ctx, ids[1]); !errors.Is(err, ErrTodoNotFound) {
		t.Fatalf("second delete: want ErrTodoNotFound, got %v", err)
	}
}

func TestMutations_PublishChangeEvents(t *testing.T) {
	db := newServiceDB(t)
	var bus events.Bus
	svc := NewTodoService(db, &bus)
	ctx := context.Background()

	ch, cancel := bus.Subscribe()
	defer cancel()

	created, err := svc.Create(ctx, "watched", nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Update(ctx, created.ID, "watched", nil, true); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []events.Op{events.OpCreate, events.OpUpdate, events.OpDelete}
	for i, op := range want {
		select {
		case c := <-ch:
			if c.Op != op || c.ID != created.ID {
				t.Fatalf("event %d: got %+v, want op %s id %d", i, c, op, created.ID)
			}
		default:
			t.Fatalf("event %d (%s) not published", i, op)
		}
	}
}

func TestLoadOrEmpty_DegradesReadErrors(t *testing.T) {
	db := newServiceDB(t)
	svc := NewTodoService(db, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "x", nil, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out := svc.LoadOrEmpty(ctx); len(out) != 1 {
		t.Fatalf("healthy path: want 1, got %d", len(out))
	}

	// break the read path; the shim must map the error to an empty slice
	if err := db.Migrator().DropTable(&domain.Todo{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	out := svc.LoadOrEmpty(ctx)
	if out == nil || len(out) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", out)
	}
}
