package todo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockTodoRepository implements repository.TodoRepository for testing.
type mockTodoRepository struct {
	mu        sync.Mutex
	todos     map[int64]domain.Todo
	nextID    int64
	listCalls int
	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func newMockTodoRepository() *mockTodoRepository {
	return &mockTodoRepository{todos: make(map[int64]domain.Todo)}
}

func (m *mockTodoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	todo, ok := m.todos[id]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	return &todo, nil
}

func (m *mockTodoRepository) List(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Todo
	for _, todo := range m.todos {
		if filter.Matches(todo) {
			out = append(out, todo)
		}
	}
	repository.SortTodos(out, filter)
	return out, nil
}

func (m *mockTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	todo.ID = m.nextID
	m.todos[todo.ID] = *todo
	return nil
}

func (m *mockTodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.todos[todo.ID]; !ok {
		return domain.ErrTodoNotFound
	}
	m.todos[todo.ID] = *todo
	return nil
}

func (m *mockTodoRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.todos[id]; !ok {
		return domain.ErrTodoNotFound
	}
	delete(m.todos, id)
	return nil
}

func (m *mockTodoRepository) Ping(ctx context.Context) error { return nil }

func (m *mockTodoRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.todos)
}

// mockListCache implements repository.ListCache for testing.
type mockListCache struct {
	mu          sync.Mutex
	lists       map[repository.TodoStatus][]domain.Todo
	getErr      error
	invalidated int
}

func newMockListCache() *mockListCache {
	return &mockListCache{lists: make(map[repository.TodoStatus][]domain.Todo)}
}

func (c *mockListCache) GetList(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	todos, ok := c.lists[filter.Status]
	return todos, ok, nil
}

func (c *mockListCache) SetList(ctx context.Context, filter repository.TodoFilter, todos []domain.Todo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[filter.Status] = todos
	return nil
}

func (c *mockListCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.lists = make(map[repository.TodoStatus][]domain.Todo)
	return nil
}

// gatedTodoRepository reads a snapshot on its first List call, then holds it
// until release is closed. The held call fails if its context was cancelled.
type gatedTodoRepository struct {
	*mockTodoRepository
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedTodoRepository() *gatedTodoRepository {
	return &gatedTodoRepository{
		mockTodoRepository: newMockTodoRepository(),
		started:            make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (g *gatedTodoRepository) List(ctx context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	todos, err := g.mockTodoRepository.List(ctx, filter)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return todos, err
}

type listResult struct {
	todos []domain.Todo
	err   error
}

func listAllAsync(uc *UseCase, ctx context.Context) <-chan listResult {
	out := make(chan listResult, 1)
	go func() {
		todos, err := uc.ListAll(ctx)
		out <- listResult{todos: todos, err: err}
	}()
	return out
}

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestUseCase(repo repository.TodoRepository, cache repository.ListCache) (*UseCase, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	uc := New(repo, cache, nil)
	uc.now = clock.now
	return uc, clock
}

func strPtr(s string) *string { return &s }

// ============================================================================
// Tests
// ============================================================================

func TestUseCase_Create(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()

	id, err := uc.Create(ctx, "A", strPtr("first"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	other, err := uc.Create(ctx, "B", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if other == id {
		t.Errorf("expected unique ids, got %d twice", id)
	}

	got, err := uc.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsCompleted {
		t.Error("expected new item to be pending")
	}
	if got.CompletedAt != nil {
		t.Errorf("expected nil CompletedAt, got %v", got.CompletedAt)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("expected CreatedAt == UpdatedAt, got %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Description == nil || *got.Description != "first" {
		t.Errorf("expected description 'first', got %v", got.Description)
	}
}

func TestUseCase_Create_Validation(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)

	tests := []struct {
		name  string
		title string
		desc  *string
		want  error
	}{
		{"empty title", "", nil, domain.ErrTitleRequired},
		{"blank title", "  ", nil, domain.ErrTitleRequired},
		{"long title", string(make([]byte, domain.MaxTitleLength+1)), nil, domain.ErrTitleTooLong},
		{"long description", "ok", strPtr(string(make([]byte, domain.MaxDescriptionLength+1))), domain.ErrDescriptionTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), tt.title, tt.desc)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Errorf("expected INVALID code, got %v", err)
			}
		})
	}
	if repo.count() != 0 {
		t.Errorf("expected nothing persisted, got %d items", repo.count())
	}
}

func TestUseCase_GetByID_NotFound(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()

	id, _ := uc.Create(ctx, "A", nil)

	for _, probe := range []int64{0, -1, id + 1, 999} {
		if _, err := uc.GetByID(ctx, probe); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("id %d: expected not found, got %v", probe, err)
		}
	}
}

func TestUseCase_Update(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()

	id, _ := uc.Create(ctx, "A", strPtr("old"))
	before, _ := uc.GetByID(ctx, id)

	err := uc.Update(ctx, id, UpdateInput{Title: "B", Description: strPtr("new"), IsCompleted: true})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := uc.GetByID(ctx, id)
	if got.Title != "B" {
		t.Errorf("expected title B, got %q", got.Title)
	}
	if got.Description == nil || *got.Description != "new" {
		t.Errorf("expected description new, got %v", got.Description)
	}
	if !got.IsCompleted {
		t.Error("expected item to be completed")
	}
	if got.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be stamped on pending->completed")
	}
	if !got.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("expected UpdatedAt to advance, got %v (was %v)", got.UpdatedAt, before.UpdatedAt)
	}
	if !got.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("expected CreatedAt to be unchanged")
	}
}

func TestUseCase_Update_NotFound(t *testing.T) {
	uc, _ := newTestUseCase(newMockTodoRepository(), nil)

	err := uc.Update(context.Background(), 42, UpdateInput{Title: "x"})
	if !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUseCase_Update_EmptyTitleRejected(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()
	id, _ := uc.Create(ctx, "A", nil)

	if err := uc.Update(ctx, id, UpdateInput{Title: ""}); !errors.Is(err, domain.ErrTitleRequired) {
		t.Errorf("expected ErrTitleRequired, got %v", err)
	}
	got, _ := uc.GetByID(ctx, id)
	if got.Title != "A" {
		t.Errorf("expected title to stay A, got %q", got.Title)
	}
}

// A null stored description is never overwritten by Update (observed behavior, kept).
func TestUseCase_Update_NullDescriptionIsNeverSet(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()
	id, _ := uc.Create(ctx, "A", nil)

	if err := uc.Update(ctx, id, UpdateInput{Title: "A", Description: strPtr("late")}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := uc.GetByID(ctx, id)
	if got.Description != nil {
		t.Errorf("expected description to stay null, got %q", *got.Description)
	}
}

// A present description replaced by an omitted one becomes null, and stays null afterwards.
func TestUseCase_Update_DescriptionCleared(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()
	id, _ := uc.Create(ctx, "A", strPtr("text"))

	_ = uc.Update(ctx, id, UpdateInput{Title: "A"})
	got, _ := uc.GetByID(ctx, id)
	if got.Description != nil {
		t.Fatalf("expected description cleared, got %q", *got.Description)
	}

	_ = uc.Update(ctx, id, UpdateInput{Title: "A", Description: strPtr("again")})
	got, _ = uc.GetByID(ctx, id)
	if got.Description != nil {
		t.Errorf("expected cleared description to stay null, got %q", *got.Description)
	}
}

// CompletedAt is kept when Update moves an item back to pending (observed behavior, kept).
func TestUseCase_Update_ReopenKeepsCompletedAt(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()
	id, _ := uc.Create(ctx, "A", nil)

	if err := uc.Complete(ctx, id); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	done, _ := uc.GetByID(ctx, id)

	if err := uc.Update(ctx, id, UpdateInput{Title: "A", IsCompleted: false}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := uc.GetByID(ctx, id)
	if got.IsCompleted {
		t.Error("expected item to be pending again")
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(*done.CompletedAt) {
		t.Errorf("expected CompletedAt %v to be kept, got %v", done.CompletedAt, got.CompletedAt)
	}
}

func TestUseCase_Update_CompletedStaysStamped(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()
	id, _ := uc.Create(ctx, "A", nil)

	_ = uc.Update(ctx, id, UpdateInput{Title: "A", IsCompleted: true})
	first, _ := uc.GetByID(ctx, id)

	_ = uc.Update(ctx, id, UpdateInput{Title: "A2", IsCompleted: true})
	second, _ := uc.GetByID(ctx, id)

	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("expected completed->completed update to keep CompletedAt %v, got %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestUseCase_Complete(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()
	id, _ := uc.Create(ctx, "A", nil)

	if err := uc.Complete(ctx, id); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	first, _ := uc.GetByID(ctx, id)
	if !first.IsCompleted || first.CompletedAt == nil {
		t.Fatalf("expected completed item, got %+v", first)
	}

	if err := uc.Complete(ctx, id); err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}
	second, _ := uc.GetByID(ctx, id)
	if !second.IsCompleted {
		t.Error("expected item to stay completed")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("expected UpdatedAt to advance, got %v (was %v)", second.UpdatedAt, first.UpdatedAt)
	}
	if !second.CompletedAt.After(*first.CompletedAt) {
		t.Errorf("expected CompletedAt to be restamped, got %v (was %v)", second.CompletedAt, first.CompletedAt)
	}
}

func TestUseCase_Complete_NotFound(t *testing.T) {
	uc, _ := newTestUseCase(newMockTodoRepository(), nil)

	if err := uc.Complete(context.Background(), 7); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUseCase_Delete(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()
	id, _ := uc.Create(ctx, "A", nil)

	if err := uc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := uc.GetByID(ctx, id); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := uc.Delete(ctx, id); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestUseCase_ListsPartitionItems(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)
	ctx := context.Background()

	a, _ := uc.Create(ctx, "A", nil)
	b, _ := uc.Create(ctx, "B", nil)
	c, _ := uc.Create(ctx, "C", nil)
	d, _ := uc.Create(ctx, "D", nil)
	_ = uc.Complete(ctx, c)
	_ = uc.Complete(ctx, a)

	all, err := uc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	assertIDs(t, "all", all, d, c, b, a)

	completed, _ := uc.ListCompleted(ctx)
	assertIDs(t, "completed", completed, a, c)

	pending, _ := uc.ListPending(ctx)
	assertIDs(t, "pending", pending, d, b)

	if len(completed)+len(pending) != len(all) {
		t.Errorf("expected completed+pending to cover all items")
	}
}

func TestUseCase_CancelledContextDoesNotPersist(t *testing.T) {
	repo := newMockTodoRepository()
	uc, _ := newTestUseCase(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uc.Create(ctx, "A", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if repo.count() != 0 {
		t.Errorf("expected nothing persisted, got %d items", repo.count())
	}
}

func TestUseCase_StoreFailurePropagates(t *testing.T) {
	repo := newMockTodoRepository()
	repo.createErr = errors.New("disk full")
	uc, _ := newTestUseCase(repo, nil)

	_, err := uc.Create(context.Background(), "A", nil)
	if err == nil || domain.IsDomainError(err, domain.ErrCodeInvalid) || domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("expected unexpected store error, got %v", err)
	}
}

func TestUseCase_ListCache(t *testing.T) {
	repo := newMockTodoRepository()
	cache := newMockListCache()
	uc, _ := newTestUseCase(repo, cache)
	ctx := context.Background()

	id, _ := uc.Create(ctx, "A", nil)
	if cache.invalidated != 1 {
		t.Errorf("expected 1 invalidation after create, got %d", cache.invalidated)
	}

	_, _ = uc.ListAll(ctx)
	_, _ = uc.ListAll(ctx)
	if repo.listCalls != 1 {
		t.Errorf("expected second list to hit the cache, got %d store calls", repo.listCalls)
	}

	_ = uc.Complete(ctx, id)
	all, _ := uc.ListAll(ctx)
	if repo.listCalls != 2 {
		t.Errorf("expected mutation to invalidate cached list, got %d store calls", repo.listCalls)
	}
	if len(all) != 1 || !all[0].IsCompleted {
		t.Errorf("expected fresh list with completed item, got %+v", all)
	}
}

func TestUseCase_ListCacheFailureFallsThrough(t *testing.T) {
	repo := newMockTodoRepository()
	cache := newMockListCache()
	cache.getErr = errors.New("redis down")
	uc, _ := newTestUseCase(repo, cache)
	ctx := context.Background()

	_, _ = uc.Create(ctx, "A", nil)
	todos, err := uc.ListPending(ctx)
	if err != nil {
		t.Fatalf("expected cache failure to be ignored, got %v", err)
	}
	if len(todos) != 1 {
		t.Errorf("expected 1 pending item, got %d", len(todos))
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

func TestUseCase_ListCache_LoadSpanningWriteIsNotCached(t *testing.T) {
	repo := newGatedTodoRepository()
	cache := newMockListCache()
	uc, _ := newTestUseCase(repo, cache)
	ctx := context.Background()

	pending := listAllAsync(uc, ctx)
	<-repo.started

	id, err := uc.Create(ctx, "A", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	close(repo.release)

	first := <-pending
	if first.err != nil {
		t.Fatalf("ListAll failed: %v", first.err)
	}

	all, err := uc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	assertIDs(t, "all after create", all, id)

	cached, ok, _ := cache.GetList(ctx, repository.TodoFilter{})
	if !ok || len(cached) != 1 {
		t.Errorf("expected cache to hold the fresh list, got ok=%v items=%d", ok, len(cached))
	}
}

func TestUseCase_ListCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	repo := newGatedTodoRepository()
	uc, _ := newTestUseCase(repo, newMockListCache())
	if _, err := uc.Create(context.Background(), "A", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	resultA := listAllAsync(uc, ctxA)
	<-repo.started

	cancelA()
	a := <-resultA
	if !errors.Is(a.err, context.Canceled) {
		t.Errorf("expected cancelled caller to get context.Canceled, got %v", a.err)
	}

	resultB := listAllAsync(uc, context.Background())
	close(repo.release)

	b := <-resultB
	if b.err != nil {
		t.Fatalf("expected healthy caller to succeed, got %v", b.err)
	}
	if len(b.todos) != 1 {
		t.Errorf("expected 1 item, got %d", len(b.todos))
	}
}

func TestUseCase_Update_CompletedAtNotBeforeCreatedAt(t *testing.T) {
	repo := newMockTodoRepository()
	uc, clock := newTestUseCase(repo, nil)
	ctx := context.Background()

	id, err := uc.Create(ctx, "A", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	created, _ := repo.GetByID(ctx, id)

	// The wall clock steps back an hour.
	uc.now = func() time.Time { return clock.t.Add(-time.Hour) }
	if err := uc.Update(ctx, id, UpdateInput{Title: "A", IsCompleted: true}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := repo.GetByID(ctx, id)
	if got.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be stamped")
	}
	if got.CompletedAt.Before(created.CreatedAt) {
		t.Errorf("expected CompletedAt >= CreatedAt %v, got %v", created.CreatedAt, *got.CompletedAt)
	}
	if !got.CompletedAt.Equal(got.UpdatedAt) {
		t.Errorf("expected CompletedAt to equal UpdatedAt %v, got %v", got.UpdatedAt, *got.CompletedAt)
	}
}
