package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

type todoRepository struct {
	pool *pgxpool.Pool
}

// NewTodoRepository returns a Postgres-backed implementation of TodoRepository.
func NewTodoRepository(pool *pgxpool.Pool) repository.TodoRepository {
	return &todoRepository{pool: pool}
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	const query = `
	SELECT ` + selectColumns + `
	FROM todo_items
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTodo(row)
}

func (r *todoRepository) List(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	rows, err := r.pool.Query(ctx, listQuery(filter))
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
	return todos, rows.Err()
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO todo_items (title, description, is_completed, created_at, updated_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query,
		todo.Title,
		todo.Description,
		todo.IsCompleted,
		todo.CreatedAt,
		todo.UpdatedAt,
		todo.CompletedAt,
	).Scan(&todo.ID); err != nil {
		return fmt.Errorf("insert todo item: %w", err)
	}
	return nil
}

func (r *todoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE todo_items
	SET title = $2,
		description = $3,
		is_completed = $4,
		updated_at = $5,
		completed_at = $6
	WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		todo.ID,
		todo.Title,
		todo.Description,
		todo.IsCompleted,
		todo.UpdatedAt,
		todo.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update todo item %d: %w", todo.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *todoRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM todo_items WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete todo item %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *todoRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var todo domain.Todo
	if err := row.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&todo.IsCompleted,
		&todo.CreatedAt,
		&todo.UpdatedAt,
		&todo.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("scan todo item: %w", err)
	}

	todo.NormalizeUTC()
	return &todo, nil
}
