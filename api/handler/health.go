package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/internal/infrastructure/monitor"
	"github.com/fastygo/todo/pkg/httpcontext"
)

// StatusSource reports the latest dependency probe results.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()

	services := make(map[string]interface{}, len(status.Checks))
	for name, check := range status.Checks {
		services[name] = check
	}
	payload := transport.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		LastCheck: status.LastCheck,
		Services:  services,
	}

	if status.Healthy() {
		h.respondJSON(ctx, http.StatusOK, payload)
		return
	}
	payload.Status = "degraded"
	h.respondJSON(ctx, http.StatusServiceUnavailable, payload)
}
