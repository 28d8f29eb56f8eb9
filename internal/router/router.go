package router

import (
	"encoding/json"
	"fmt"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
)

// Middleware wraps a request handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

type Handlers struct {
	Todo   *apiHandler.TodoHandler
	Health *apiHandler.HealthHandler
}

// Options carries the optional middleware chains. TodoAuth guards the /todos routes only.
type Options struct {
	TodoAuth Middleware
	Logger   *zap.Logger
}

func New(handlers Handlers, opts Options) *router.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	protect := opts.TodoAuth
	if protect == nil {
		protect = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	r := router.New()
	r.PanicHandler = panicHandler(logger)

	r.GET("/health", handlers.Health.Check)

	r.GET("/todos", protect(handlers.Todo.ListAll))
	r.POST("/todos", protect(handlers.Todo.Create))
	r.GET("/todos/completed", protect(handlers.Todo.ListCompleted))
	r.GET("/todos/pending", protect(handlers.Todo.ListPending))
	r.GET("/todos/{id}", protect(handlers.Todo.GetByID))
	r.PUT("/todos/{id}", protect(handlers.Todo.Update))
	r.PATCH("/todos/{id}/complete", protect(handlers.Todo.Complete))
	r.DELETE("/todos/{id}", protect(handlers.Todo.Delete))

	return r
}

// Chain applies middlewares so the first one listed runs first.
func Chain(h fasthttp.RequestHandler, middlewares ...Middleware) fasthttp.RequestHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			h = middlewares[i](h)
		}
	}
	return h
}

func panicHandler(logger *zap.Logger) func(*fasthttp.RequestCtx, interface{}) {
	return func(ctx *fasthttp.RequestCtx, rcv interface{}) {
		logger.Error("panic recovered",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.String("panic", fmt.Sprint(rcv)),
			zap.Stack("stack"))

		body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeInternal), "an unexpected error occurred"))
		ctx.ResetBody()
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBody(body)
	}
}
