package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/todo/domain"
	sqliteInfra "github.com/fastygo/todo/internal/infrastructure/sqlite"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/repository/repotest"
	"github.com/fastygo/todo/repository/sqlite"
)

var migrationsDir = filepath.Join("..", "..", "assets", "migrations", "sqlite")

func newTestRepository(t *testing.T) repository.TodoRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todos.sqlite")

	if err := sqliteInfra.RunMigrations(path, migrationsDir, nil); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	db, err := sqliteInfra.Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return sqlite.NewTodoRepository(db)
}

func TestTodoRepository_Contract(t *testing.T) {
	repotest.Run(t, newTestRepository)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.sqlite")

	for i := 0; i < 2; i++ {
		if err := sqliteInfra.RunMigrations(path, migrationsDir, nil); err != nil {
			t.Fatalf("run %d: RunMigrations failed: %v", i+1, err)
		}
	}
}

func TestTodoRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todos.sqlite")
	if err := sqliteInfra.RunMigrations(path, migrationsDir, nil); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	db, err := sqliteInfra.Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	repo := sqlite.NewTodoRepository(db)
	todos, _ := repo.List(ctx, repository.TodoFilter{})
	if len(todos) != 0 {
		t.Fatalf("expected empty store, got %d", len(todos))
	}

	todo := domain.NewTodo("persisted", nil, time.Now())
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	db.Close()

	db, err = sqliteInfra.Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	got, err := sqlite.NewTodoRepository(db).GetByID(ctx, todo.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen failed: %v", err)
	}
	if got.Title != "persisted" {
		t.Errorf("expected title 'persisted', got '%s'", got.Title)
	}
}
