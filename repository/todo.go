package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// TodoStatus narrows a list scan to completed or pending items.
type TodoStatus string

const (
	StatusAny       TodoStatus = ""
	StatusCompleted TodoStatus = "completed"
	StatusPending   TodoStatus = "pending"
)

// TodoFilter selects the items returned by List.
//
// StatusAny and StatusPending are ordered by created_at descending,
// StatusCompleted by completed_at descending. Ties break on id descending.
type TodoFilter struct {
	Status TodoStatus
}

// TodoRepository is the entity store for to-do items.
type TodoRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Todo, error)
	List(ctx context.Context, filter TodoFilter) ([]domain.Todo, error)
	// Create persists a new item and sets its ID.
	Create(ctx context.Context, todo *domain.Todo) error
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// ListCache stores list results between mutations.
type ListCache interface {
	GetList(ctx context.Context, filter TodoFilter) ([]domain.Todo, bool, error)
	SetList(ctx context.Context, filter TodoFilter, todos []domain.Todo) error
	Invalidate(ctx context.Context) error
}
