package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	appLogger "github.com/fastygo/todo/pkg/logger"
)

const internalErrorMessage = "an unexpected error occurred"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	stdCtx := appLogger.ContextWithRequestID(context.Background(), httpcontext.RequestID(ctx))
	return context.WithCancel(stdCtx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode response failed", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondStatus(ctx *fasthttp.RequestCtx, status int) {
	ctx.SetStatusCode(status)
}

// respondError maps err onto a status. Not found has an empty body and
// unexpected failures are logged, never echoed.
func (h baseHandler) respondError(ctx context.Context, reqCtx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	switch status {
	case http.StatusNotFound:
		h.respondStatus(reqCtx, status)
	case http.StatusInternalServerError:
		appLogger.WithRequestID(ctx, h.logger).Error("request failed",
			zap.ByteString("method", reqCtx.Method()),
			zap.ByteString("path", reqCtx.Path()),
			zap.Error(err))
		h.respondJSON(reqCtx, status, transport.NewError(code, internalErrorMessage))
	default:
		h.respondJSON(reqCtx, status, transport.NewError(code, messageOf(err)))
	}
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func messageOf(err error) string {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return dErr.Message
	}
	return err.Error()
}

// pathID parses the {id} route parameter.
func pathID(ctx *fasthttp.RequestCtx) (int64, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
