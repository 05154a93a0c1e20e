package api

import (
	"StockWatch/internal/service/push"
	"StockWatch/internal/usecase"
	xhttp "StockWatch/pkg/http"
	"StockWatch/pkg/task"

	"github.com/labstack/echo/v4"
)

// StatusEchoHandler reports the health of the periodic loops and the cache.
type StatusEchoHandler struct {
	stocks   *usecase.Stocks
	registry *push.Registry
	runners  []*task.Runner
}

func NewStatusEchoHandler(stocks *usecase.Stocks, registry *push.Registry, runners ...*task.Runner) *StatusEchoHandler {
	return &StatusEchoHandler{stocks: stocks, registry: registry, runners: runners}
}

func (h *StatusEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/status", h.Status)
	e.GET("/healthz", h.Healthz)
}

func (h *StatusEchoHandler) Status(c echo.Context) error {
	loops := make([]task.Status, 0, len(h.runners))
	for _, r := range h.runners {
		loops = append(loops, task.StatusOf(r))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"cache":       h.stocks.CacheHealth(),
		"loops":       loops,
		"connections": h.registry.Count(),
	})
}

func (h *StatusEchoHandler) Healthz(c echo.Context) error {
	return xhttp.SuccessResponse(c, "ok")
}
