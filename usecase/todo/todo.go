package todo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/todo/domain"
	appLogger "github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
)

// UpdateInput carries the fields accepted by Update.
type UpdateInput struct {
	Title       string
	Description *string
	IsCompleted bool
}

// listLoadTimeout bounds a shared cache-miss load, which outlives any single caller.
const listLoadTimeout = 5 * time.Second

var listStatuses = []repository.TodoStatus{
	repository.StatusAny,
	repository.StatusCompleted,
	repository.StatusPending,
}

// UseCase is the item service: the only component reading and writing the store.
type UseCase struct {
	todos  repository.TodoRepository
	cache  repository.ListCache
	logger *zap.Logger
	sf     singleflight.Group
	now    func() time.Time

	// generation advances on every mutation; a load started under an older
	// generation must not refill the cache.
	cacheMu     sync.RWMutex
	generation  uint64
	loadTimeout time.Duration
}

// New wires the item service. cache may be nil to disable list caching.
func New(todos repository.TodoRepository, cache repository.ListCache, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		todos:  todos,
		cache:  cache,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		loadTimeout: listLoadTimeout,
	}
}

func (uc *UseCase) ListAll(ctx context.Context) ([]domain.Todo, error) {
	return uc.list(ctx, repository.TodoFilter{Status: repository.StatusAny})
}

func (uc *UseCase) ListCompleted(ctx context.Context) ([]domain.Todo, error) {
	return uc.list(ctx, repository.TodoFilter{Status: repository.StatusCompleted})
}

func (uc *UseCase) ListPending(ctx context.Context) ([]domain.Todo, error) {
	return uc.list(ctx, repository.TodoFilter{Status: repository.StatusPending})
}

func (uc *UseCase) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	if id <= 0 {
		return nil, domain.ErrTodoNotFound
	}
	return uc.todos.GetByID(ctx, id)
}

// Create validates and persists a new pending item, returning its store-assigned id.
func (uc *UseCase) Create(ctx context.Context, title string, description *string) (int64, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return 0, err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return 0, err
	}

	item := domain.NewTodo(title, description, uc.now())
	if err := uc.persist(ctx, func(ctx context.Context) error {
		return uc.todos.Create(ctx, item)
	}); err != nil {
		return 0, err
	}
	return item.ID, nil
}

// Update applies title, description and completion state to an existing item.
//
// Title and description are only replaced when the stored value is present;
// a null stored description stays null. CompletedAt is stamped on the
// pending->completed transition and is never cleared.
func (uc *UseCase) Update(ctx context.Context, id int64, input UpdateInput) error {
	item, err := uc.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := domain.ValidateTitle(input.Title); err != nil {
		return err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return err
	}

	item.Title = input.Title
	if item.Description != nil && !sameString(item.Description, input.Description) {
		item.Description = input.Description
	}

	item.Touch(uc.now())
	if !item.IsCompleted && input.IsCompleted {
		completedAt := item.UpdatedAt
		item.CompletedAt = &completedAt
	}
	item.IsCompleted = input.IsCompleted

	return uc.persist(ctx, func(ctx context.Context) error {
		return uc.todos.Update(ctx, item)
	})
}

// Complete marks an item done, restamping CompletedAt on every call.
func (uc *UseCase) Complete(ctx context.Context, id int64) error {
	item, err := uc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	item.Complete(uc.now())
	return uc.persist(ctx, func(ctx context.Context) error {
		return uc.todos.Update(ctx, item)
	})
}

func (uc *UseCase) Delete(ctx context.Context, id int64) error {
	if _, err := uc.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.persist(ctx, func(ctx context.Context) error {
		return uc.todos.Delete(ctx, id)
	})
}

// persist runs a store write unless the caller already gave up, then drops cached lists.
func (uc *UseCase) persist(ctx context.Context, write func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := write(ctx); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// list serves a filtered scan through the cache. Concurrent misses share one
// store read that is detached from any caller's cancellation; each caller
// still stops waiting when its own context ends.
func (uc *UseCase) list(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	if uc.cache == nil {
		return uc.todos.List(ctx, filter)
	}

	ch := uc.sf.DoChan(flightKey(filter.Status), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.loadTimeout)
		defer cancel()
		return uc.load(loadCtx, filter)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list todos: %w", res.Err)
		}
		return res.Val.([]domain.Todo), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (uc *UseCase) load(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	status := zap.String("status", string(filter.Status))
	if todos, ok, err := uc.cache.GetList(ctx, filter); err != nil {
		uc.log(ctx).Warn("todo cache read failed", status, zap.Error(err))
	} else if ok {
		return todos, nil
	}

	uc.cacheMu.RLock()
	gen := uc.generation
	uc.cacheMu.RUnlock()

	todos, err := uc.todos.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	uc.cacheMu.RLock()
	defer uc.cacheMu.RUnlock()
	if uc.generation != gen {
		uc.log(ctx).Debug("todo list changed during load, not caching", status)
		return todos, nil
	}
	if err := uc.cache.SetList(ctx, filter, todos); err != nil {
		uc.log(ctx).Warn("todo cache write failed", status, zap.Error(err))
	}
	return todos, nil
}

// invalidate retires in-flight loads and then drops cached lists. A load that
// cached its result before the generation advanced is removed by Invalidate.
func (uc *UseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}

	uc.cacheMu.Lock()
	uc.generation++
	uc.cacheMu.Unlock()
	for _, status := range listStatuses {
		uc.sf.Forget(flightKey(status))
	}

	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.log(ctx).Warn("todo cache invalidation failed", zap.Error(err))
	}
}

func (uc *UseCase) log(ctx context.Context) *zap.Logger {
	return appLogger.WithRequestID(ctx, uc.logger)
}

func flightKey(status repository.TodoStatus) string {
	return "list:" + string(status)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
