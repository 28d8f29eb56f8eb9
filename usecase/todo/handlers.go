package todo

import (
	"context"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/usecase"
)

// Dispatcher names for the todo use cases.
const (
	QueryListAll       = "todo.list_all"
	QueryListCompleted = "todo.list_completed"
	QueryListPending   = "todo.list_pending"
	QueryGetByID       = "todo.get_by_id"

	CommandCreate   = "todo.create"
	CommandUpdate   = "todo.update"
	CommandComplete = "todo.complete"
	CommandDelete   = "todo.delete"
)

type GetByIDQuery struct {
	ID int64
}

type CreateCommand struct {
	Title       string
	Description *string
}

type UpdateCommand struct {
	ID          int64
	Title       string
	Description *string
	IsCompleted bool
}

type CompleteCommand struct {
	ID int64
}

type DeleteCommand struct {
	ID int64
}

// Register binds one handler per use case onto the dispatcher.
func Register(d *usecase.Dispatcher, uc *UseCase) {
	d.RegisterQuery(QueryListAll, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return uc.ListAll(ctx)
	})
	d.RegisterQuery(QueryListCompleted, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return uc.ListCompleted(ctx)
	})
	d.RegisterQuery(QueryListPending, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return uc.ListPending(ctx)
	})
	d.RegisterQuery(QueryGetByID, func(ctx context.Context, params interface{}) (interface{}, error) {
		q, ok := params.(GetByIDQuery)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return uc.GetByID(ctx, q.ID)
	})

	d.RegisterCommand(CommandCreate, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, ok := payload.(CreateCommand)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return uc.Create(ctx, cmd.Title, cmd.Description)
	})
	d.RegisterCommand(CommandUpdate, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, ok := payload.(UpdateCommand)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return nil, uc.Update(ctx, cmd.ID, UpdateInput{
			Title:       cmd.Title,
			Description: cmd.Description,
			IsCompleted: cmd.IsCompleted,
		})
	})
	d.RegisterCommand(CommandComplete, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, ok := payload.(CompleteCommand)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return nil, uc.Complete(ctx, cmd.ID)
	})
	d.RegisterCommand(CommandDelete, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, ok := payload.(DeleteCommand)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return nil, uc.Delete(ctx, cmd.ID)
	})
}
