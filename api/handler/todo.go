package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/usecase"
	todoUC "github.com/fastygo/todo/usecase/todo"
)

// TodoHandler translates HTTP requests into dispatcher commands and queries.
type TodoHandler struct {
	baseHandler
	dispatcher *usecase.Dispatcher
}

func NewTodoHandler(dispatcher *usecase.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
	}
}

// @Summary List all todo items
// @Tags todos
// @Router /todos [get]
func (h *TodoHandler) ListAll(ctx *fasthttp.RequestCtx) {
	h.list(ctx, todoUC.QueryListAll)
}

// @Summary List completed todo items
// @Tags todos
// @Router /todos/completed [get]
func (h *TodoHandler) ListCompleted(ctx *fasthttp.RequestCtx) {
	h.list(ctx, todoUC.QueryListCompleted)
}

// @Summary List pending todo items
// @Tags todos
// @Router /todos/pending [get]
func (h *TodoHandler) ListPending(ctx *fasthttp.RequestCtx) {
	h.list(ctx, todoUC.QueryListPending)
}

// @Summary Get todo item
// @Tags todos
// @Router /todos/{id} [get]
func (h *TodoHandler) GetByID(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := pathID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	result, err := h.dispatcher.ExecuteQuery(stdCtx, todoUC.QueryGetByID, todoUC.GetByIDQuery{ID: id})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	todo, ok := result.(*domain.Todo)
	if !ok || todo == nil {
		h.respondError(stdCtx, ctx, fmt.Errorf("unexpected result %T for %s", result, todoUC.QueryGetByID))
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewTodoResponse(*todo))
}

// @Summary Create todo item
// @Tags todos
// @Router /todos [post]
func (h *TodoHandler) Create(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.CreateTodoRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(stdCtx, ctx, domain.ErrInvalidPayload)
		return
	}

	result, err := h.dispatcher.ExecuteCommand(stdCtx, todoUC.CommandCreate, req.Command())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	id, ok := result.(int64)
	if !ok {
		h.respondError(stdCtx, ctx, fmt.Errorf("unexpected result %T for %s", result, todoUC.CommandCreate))
		return
	}

	ctx.Response.Header.Set(fasthttp.HeaderLocation, fmt.Sprintf("/todos/%d", id))
	h.respondJSON(ctx, http.StatusCreated, transport.CreatedResponse{ID: id})
}

// @Summary Update todo item
// @Tags todos
// @Router /todos/{id} [put]
func (h *TodoHandler) Update(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := pathID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	var req transport.UpdateTodoRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(stdCtx, ctx, domain.ErrInvalidPayload)
		return
	}

	if _, err := h.dispatcher.ExecuteCommand(stdCtx, todoUC.CommandUpdate, req.Command(id)); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondStatus(ctx, http.StatusOK)
}

// @Summary Mark todo item completed
// @Tags todos
// @Router /todos/{id}/complete [patch]
func (h *TodoHandler) Complete(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, todoUC.CommandComplete, func(id int64) interface{} {
		return todoUC.CompleteCommand{ID: id}
	}, http.StatusOK)
}

// @Summary Delete todo item
// @Tags todos
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, todoUC.CommandDelete, func(id int64) interface{} {
		return todoUC.DeleteCommand{ID: id}
	}, http.StatusNoContent)
}

func (h *TodoHandler) list(ctx *fasthttp.RequestCtx, query string) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatcher.ExecuteQuery(stdCtx, query, nil)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	todos, ok := result.([]domain.Todo)
	if !ok {
		h.respondError(stdCtx, ctx, fmt.Errorf("unexpected result %T for %s", result, query))
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewTodoResponses(todos))
}

// mutate runs an id-addressed command with no response body.
func (h *TodoHandler) mutate(ctx *fasthttp.RequestCtx, command string, build func(id int64) interface{}, status int) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := pathID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	if _, err := h.dispatcher.ExecuteCommand(stdCtx, command, build(id)); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondStatus(ctx, status)
}
