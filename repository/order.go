package repository

import (
	"sort"
	"time"

	"github.com/fastygo/todo/domain"
)

// Matches reports whether the item passes the filter.
func (f TodoFilter) Matches(todo domain.Todo) bool {
	switch f.Status {
	case StatusCompleted:
		return todo.IsCompleted
	case StatusPending:
		return !todo.IsCompleted
	default:
		return true
	}
}

// SortTodos orders items the way List returns them for the filter.
// Stores that cannot push ordering down to a query engine use it directly.
func SortTodos(todos []domain.Todo, filter TodoFilter) {
	key := func(t domain.Todo) time.Time { return t.CreatedAt }
	if filter.Status == StatusCompleted {
		key = func(t domain.Todo) time.Time {
			if t.CompletedAt == nil {
				return time.Time{}
			}
			return *t.CompletedAt
		}
	}
	sort.SliceStable(todos, func(i, j int) bool {
		ki, kj := key(todos[i]), key(todos[j])
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return todos[i].ID > todos[j].ID
	})
}
