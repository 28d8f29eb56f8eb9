// Package repotest holds the behavior every TodoRepository implementation must share.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) repository.TodoRepository

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the contract suite against repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("CreateAssignsIDs", func(t *testing.T) { testCreateAssignsIDs(t, newRepo(t)) })
	t.Run("GetByIDRoundTrip", func(t *testing.T) { testGetByIDRoundTrip(t, newRepo(t)) })
	t.Run("GetByIDNotFound", func(t *testing.T) { testGetByIDNotFound(t, newRepo(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("UpdateNotFound", func(t *testing.T) { testUpdateNotFound(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("ListOrderingAndFilters", func(t *testing.T) { testListOrderingAndFilters(t, newRepo(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newRepo(t)) })
	t.Run("CancelledCreate", func(t *testing.T) { testCancelledCreate(t, newRepo(t)) })
	t.Run("Ping", func(t *testing.T) { testPing(t, newRepo(t)) })
}

func create(t *testing.T, repo repository.TodoRepository, title string, createdAt time.Time) *domain.Todo {
	t.Helper()
	todo := domain.NewTodo(title, nil, createdAt)
	if err := repo.Create(context.Background(), todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return todo
}

func complete(t *testing.T, repo repository.TodoRepository, todo *domain.Todo, at time.Time) {
	t.Helper()
	todo.Complete(at)
	if err := repo.Update(context.Background(), todo); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func testCreateAssignsIDs(t *testing.T, repo repository.TodoRepository) {
	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		todo := create(t, repo, "item", base.Add(time.Duration(i)*time.Second))
		if todo.ID <= 0 {
			t.Fatalf("expected positive id, got %d", todo.ID)
		}
		if seen[todo.ID] {
			t.Fatalf("duplicate id %d", todo.ID)
		}
		seen[todo.ID] = true
	}
}

func testGetByIDRoundTrip(t *testing.T, repo repository.TodoRepository) {
	ctx := context.Background()
	desc := "with details"
	todo := domain.NewTodo("Write report", &desc, base)
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	bare := create(t, repo, "No description", base)

	got, err := repo.GetByID(ctx, todo.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Write report" {
		t.Errorf("expected title 'Write report', got '%s'", got.Title)
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("expected description %q, got %v", desc, got.Description)
	}
	if got.IsCompleted || got.CompletedAt != nil {
		t.Errorf("expected pending item, got %+v", got)
	}
	if !got.CreatedAt.Equal(base) || !got.UpdatedAt.Equal(base) {
		t.Errorf("expected timestamps %v, got %v / %v", base, got.CreatedAt, got.UpdatedAt)
	}

	gotBare, err := repo.GetByID(ctx, bare.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if gotBare.Description != nil {
		t.Errorf("expected null description, got %q", *gotBare.Description)
	}
}

func testGetByIDNotFound(t *testing.T, repo repository.TodoRepository) {
	todo := create(t, repo, "only", base)

	_, err := repo.GetByID(context.Background(), todo.ID+100)
	if !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected ErrTodoNotFound, got %v", err)
	}
}

func testUpdate(t *testing.T, repo repository.TodoRepository) {
	ctx := context.Background()
	todo := create(t, repo, "before", base)

	desc := "now described"
	todo.Title = "after"
	todo.Description = &desc
	complete(t, repo, todo, base.Add(time.Hour))

	got, err := repo.GetByID(ctx, todo.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "after" || got.Description == nil || *got.Description != desc {
		t.Errorf("expected updated fields, got %+v", got)
	}
	if !got.IsCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected completion at %v, got %+v", base.Add(time.Hour), got)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected UpdatedAt %v, got %v", base.Add(time.Hour), got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("expected CreatedAt unchanged, got %v", got.CreatedAt)
	}
}

func testUpdateNotFound(t *testing.T, repo repository.TodoRepository) {
	ghost := domain.NewTodo("ghost", nil, base)
	ghost.ID = 4242

	if err := repo.Update(context.Background(), ghost); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected ErrTodoNotFound, got %v", err)
	}
}

func testDelete(t *testing.T, repo repository.TodoRepository) {
	ctx := context.Background()
	keep := create(t, repo, "keep", base)
	drop := create(t, repo, "drop", base.Add(time.Second))

	if err := repo.Delete(ctx, drop.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, drop.ID); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected deleted item to be gone, got %v", err)
	}
	if err := repo.Delete(ctx, drop.ID); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected ErrTodoNotFound on second delete, got %v", err)
	}
	if _, err := repo.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("expected other item to survive, got %v", err)
	}
}

func testListOrderingAndFilters(t *testing.T, repo repository.TodoRepository) {
	ctx := context.Background()
	a := create(t, repo, "A", base)
	b := create(t, repo, "B", base.Add(1*time.Minute))
	c := create(t, repo, "C", base.Add(2*time.Minute))
	d := create(t, repo, "D", base.Add(3*time.Minute))

	// Completion order differs from creation order.
	complete(t, repo, c, base.Add(10*time.Minute))
	complete(t, repo, a, base.Add(20*time.Minute))

	all, err := repo.List(ctx, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	assertIDs(t, "all", all, d.ID, c.ID, b.ID, a.ID)

	completed, err := repo.List(ctx, repository.TodoFilter{Status: repository.StatusCompleted})
	if err != nil {
		t.Fatalf("List completed failed: %v", err)
	}
	assertIDs(t, "completed", completed, a.ID, c.ID)

	pending, err := repo.List(ctx, repository.TodoFilter{Status: repository.StatusPending})
	if err != nil {
		t.Fatalf("List pending failed: %v", err)
	}
	assertIDs(t, "pending", pending, d.ID, b.ID)
}

func testListEmpty(t *testing.T, repo repository.TodoRepository) {
	todos, err := repo.List(context.Background(), repository.TodoFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("expected empty list, got %d items", len(todos))
	}
}

func testCancelledCreate(t *testing.T, repo repository.TodoRepository) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.Create(ctx, domain.NewTodo("never", nil, base)); err == nil {
		t.Fatal("expected cancelled create to fail")
	}

	todos, err := repo.List(context.Background(), repository.TodoFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("expected nothing persisted, got %d items", len(todos))
	}
}

func testPing(t *testing.T, repo repository.TodoRepository) {
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func assertIDs(t *testing.T, label string, todos []domain.Todo, want ...int64) {
	t.Helper()
	if len(todos) != len(want) {
		t.Fatalf("%s: expected %d items, got %d", label, len(want), len(todos))
	}
	for i, id := range want {
		if todos[i].ID != id {
			t.Errorf("%s[%d]: expected id %d, got %d", label, i, id, todos[i].ID)
		}
	}
}
