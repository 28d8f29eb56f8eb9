package transport

import (
	"time"

	"github.com/fastygo/todo/domain"
)

// Envelope wraps error responses.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Error  interface{} `json:"error,omitempty"`
}

func NewError(code string, err interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
	}
}

// TodoResponse is the public shape of an item. Unset fields encode as null.
type TodoResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	IsCompleted   bool       `json:"isCompleted"`
	DateCreated   time.Time  `json:"dateCreated"`
	DateCompleted *time.Time `json:"dateCompleted"`
}

func NewTodoResponse(todo domain.Todo) TodoResponse {
	return TodoResponse{
		ID:            todo.ID,
		Title:         todo.Title,
		Description:   todo.Description,
		IsCompleted:   todo.IsCompleted,
		DateCreated:   todo.CreatedAt.UTC(),
		DateCompleted: utcPtr(todo.CompletedAt),
	}
}

// NewTodoResponses never returns nil so empty lists encode as [].
func NewTodoResponses(todos []domain.Todo) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, todo := range todos {
		out = append(out, NewTodoResponse(todo))
	}
	return out
}

type CreatedResponse struct {
	ID int64 `json:"id"`
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	LastCheck time.Time              `json:"last_check"`
	Services  map[string]interface{} `json:"services"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
