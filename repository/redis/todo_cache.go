package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const keyPrefix = "todo:list:"

var allStatuses = []repository.TodoStatus{
	repository.StatusAny,
	repository.StatusCompleted,
	repository.StatusPending,
}

type listCache struct {
	client redislib.Cmdable
	ttl    time.Duration
}

// NewListCache returns a Redis-backed cache of list results, one key per status.
func NewListCache(client redislib.Cmdable, ttl time.Duration) repository.ListCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &listCache{client: client, ttl: ttl}
}

func (c *listCache) GetList(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, bool, error) {
	result, err := c.client.Get(ctx, key(filter.Status)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	todos := make([]domain.Todo, 0)
	if err := json.Unmarshal(result, &todos); err != nil {
		return nil, false, err
	}
	for i := range todos {
		todos[i].NormalizeUTC()
	}
	return todos, true, nil
}

func (c *listCache) SetList(ctx context.Context, filter repository.TodoFilter, todos []domain.Todo) error {
	if todos == nil {
		todos = []domain.Todo{}
	}
	payload, err := json.Marshal(todos)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(filter.Status), payload, c.ttl).Err()
}

// Invalidate drops every cached list.
func (c *listCache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(allStatuses))
	for _, status := range allStatuses {
		keys = append(keys, key(status))
	}
	return c.client.Del(ctx, keys...).Err()
}

func key(status repository.TodoStatus) string {
	if status == repository.StatusAny {
		return keyPrefix + "all"
	}
	return keyPrefix + string(status)
}
