package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

func TestNewDependencies_Memory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new memory dependencies: %v", err)
	}
	t.Cleanup(func() {
		_ = deps.Close()
	})

	if deps.Books == nil || deps.Users == nil || deps.Loans == nil {
		t.Fatal("expected all repositories to be initialized")
	}
	if deps.Store == nil || deps.Outbox == nil || deps.Timeline == nil {
		t.Fatal("expected store, outbox and timeline to be initialized")
	}
	if deps.Ping != nil {
		t.Fatal("memory storage should not expose ping")
	}
}

func TestNewDependencies_SQLite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "library.db")

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new sqlite dependencies: %v", err)
	}
	t.Cleanup(func() {
		_ = deps.Close()
	})

	if deps.Ping == nil {
		t.Fatal("sqlite storage should expose ping")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := deps.Ping(ctx); err != nil {
		t.Fatalf("ping sqlite: %v", err)
	}

	now := time.Now().UTC()
	book := domain.Book{
		ID:          "dep-book-1",
		Title:       "Ficciones",
		Author:      "Jorge Luis Borges",
		ISBN:        "isbn-deps",
		PublishedAt: now,
		Genre:       "short stories",
		State:       domain.BookStateAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := deps.Books.Create(book); err != nil {
		t.Fatalf("create book via sqlite deps: %v", err)
	}
	if _, err := deps.Books.Get(book.ID); err != nil {
		t.Fatalf("get book via sqlite deps: %v", err)
	}
}

func TestNewDependencies_UnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "cassandra"

	_, err := NewDependencies(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestDependencies_CloseNil(t *testing.T) {
	var deps *Dependencies
	if err := deps.Close(); err != nil {
		t.Fatalf("close nil dependencies should not fail: %v", err)
	}
}
