package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const selectColumns = `id, title, description, is_completed, created_at, updated_at, completed_at`

type todoRepository struct {
	db *sql.DB
}

// NewTodoRepository returns a SQLite-backed implementation of TodoRepository.
func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	const query = `SELECT ` + selectColumns + ` FROM todo_items WHERE id = ?`
	return scanTodo(r.db.QueryRowContext(ctx, query, id))
}

func (r *todoRepository) List(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	query := `SELECT ` + selectColumns + ` FROM todo_items`
	switch filter.Status {
	case repository.StatusCompleted:
		query += ` WHERE is_completed = 1 ORDER BY completed_at DESC, id DESC`
	case repository.StatusPending:
		query += ` WHERE is_completed = 0 ORDER BY created_at DESC, id DESC`
	default:
		query += ` ORDER BY created_at DESC, id DESC`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Stored timestamps are text; sort again on the parsed values.
	repository.SortTodos(todos, filter)
	return todos, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO todo_items (title, description, is_completed, created_at, updated_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		todo.Title,
		todo.Description,
		todo.IsCompleted,
		todo.CreatedAt,
		todo.UpdatedAt,
		todo.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert todo item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	todo.ID = id
	return nil
}

func (r *todoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE todo_items
	SET title = ?, description = ?, is_completed = ?, updated_at = ?, completed_at = ?
	WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		todo.Title,
		todo.Description,
		todo.IsCompleted,
		todo.UpdatedAt,
		todo.CompletedAt,
		todo.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo item %d: %w", todo.ID, err)
	}
	return expectOneRow(res)
}

func (r *todoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todo_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo item %d: %w", id, err)
	}
	return expectOneRow(res)
}

func (r *todoRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var (
		todo        domain.Todo
		description sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&todo.ID,
		&todo.Title,
		&description,
		&todo.IsCompleted,
		&todo.CreatedAt,
		&todo.UpdatedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("scan todo item: %w", err)
	}

	if description.Valid {
		todo.Description = &description.String
	}
	if completedAt.Valid {
		todo.CompletedAt = &completedAt.Time
	}
	todo.NormalizeUTC()
	return &todo, nil
}
