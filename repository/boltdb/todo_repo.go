package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// Bucket holds one JSON record per item keyed by its big-endian id.
const Bucket = "todo_items"

var bucketName = []byte(Bucket)

type record struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toRecord(todo *domain.Todo) record {
	return record{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		IsCompleted: todo.IsCompleted,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
		CompletedAt: todo.CompletedAt,
	}
}

func (r record) toDomain() domain.Todo {
	todo := domain.Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		IsCompleted: r.IsCompleted,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
	}
	todo.NormalizeUTC()
	return todo
}

type todoRepository struct {
	db *bolt.DB
}

// NewTodoRepository returns a Bolt-backed implementation of TodoRepository.
// The db must already contain Bucket.
func NewTodoRepository(db *bolt.DB) repository.TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var todo domain.Todo
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketName).Get(itob(id))
		if data == nil {
			return domain.ErrTodoNotFound
		}
		rec, err := decode(data)
		if err != nil {
			return err
		}
		todo = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *todoRepository) List(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	todos := make([]domain.Todo, 0)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(_, v []byte) error {
			rec, err := decode(v)
			if err != nil {
				return err
			}
			todo := rec.toDomain()
			if filter.Matches(todo) {
				todos = append(todos, todo)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}

	repository.SortTodos(todos, filter)
	return todos, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.ErrInvalidPayload
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := tx.Bucket(bucketName)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next todo id: %w", err)
		}

		rec := toRecord(todo)
		rec.ID = int64(seq)
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := b.Put(itob(rec.ID), payload); err != nil {
			return fmt.Errorf("insert todo item: %w", err)
		}
		todo.ID = rec.ID
		return nil
	})
}

func (r *todoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.ErrInvalidPayload
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := tx.Bucket(bucketName)
		key := itob(todo.ID)
		if b.Get(key) == nil {
			return domain.ErrTodoNotFound
		}

		payload, err := json.Marshal(toRecord(todo))
		if err != nil {
			return err
		}
		if err := b.Put(key, payload); err != nil {
			return fmt.Errorf("update todo item %d: %w", todo.ID, err)
		}
		return nil
	})
}

func (r *todoRepository) Delete(ctx context.Context, id int64) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := tx.Bucket(bucketName)
		key := itob(id)
		if b.Get(key) == nil {
			return domain.ErrTodoNotFound
		}
		return b.Delete(key)
	})
}

// Ping verifies the file is open and the bucket is readable.
func (r *todoRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketName) == nil {
			return fmt.Errorf("bucket %s missing", Bucket)
		}
		return nil
	})
}

func decode(data []byte) (record, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("decode todo item: %w", err)
	}
	return rec, nil
}

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
