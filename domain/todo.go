package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Todo is the single entity managed by the service.
type Todo struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTodo builds a pending item stamped with the provided time.
func NewTodo(title string, description *string, now time.Time) *Todo {
	now = now.UTC()
	return &Todo{
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch refreshes UpdatedAt, keeping it no earlier than CreatedAt.
func (t *Todo) Touch(now time.Time) {
	if t == nil {
		return
	}
	now = now.UTC()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = now
}

// Complete marks the item done and restamps CompletedAt.
func (t *Todo) Complete(now time.Time) {
	if t == nil {
		return
	}
	t.Touch(now)
	completedAt := t.UpdatedAt
	t.IsCompleted = true
	t.CompletedAt = &completedAt
}

// ValidateTitle enforces the required, length-limited title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func ValidateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// NormalizeUTC converts all timestamps to UTC after a store round-trip.
func (t *Todo) NormalizeUTC() {
	if t == nil {
		return
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.CompletedAt != nil {
		completedAt := t.CompletedAt.UTC()
		t.CompletedAt = &completedAt
	}
}
