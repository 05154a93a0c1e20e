package api

import (
	"errors"

	models "StockWatch/internal/domain/models"
	"StockWatch/internal/usecase"
	xhttp "StockWatch/pkg/http"
	xlogger "StockWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StocksEchoHandler serves quote reads, history and favorites.
type StocksEchoHandler struct {
	logger *xlogger.Logger
	stocks *usecase.Stocks
}

func NewStocksEchoHandler(logger *xlogger.Logger, stocks *usecase.Stocks) *StocksEchoHandler {
	return &StocksEchoHandler{logger: logger, stocks: stocks}
}

func (h *StocksEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/stocks")
	g.GET("", h.List)
	g.GET("/:symbol", h.Get)
	g.POST("/:symbol/refresh", h.Refresh)
	g.GET("/:symbol/history", h.History)
	g.POST("/:symbol/favorite", h.AddFavorite)
	g.DELETE("/:symbol/favorite", h.RemoveFavorite)
	g.GET("/cache/stats", h.CacheStats)
	g.GET("/cache/health", h.CacheHealth)
	g.POST("/cache/refresh/:symbol", h.Refresh)
	g.DELETE("/cache", h.ClearCache)
}

func (h *StocksEchoHandler) List(c echo.Context) error {
	quotes := h.stocks.List(c.Request().Context())
	return xhttp.ListResponse(c, quotes, int64(len(quotes)))
}

func (h *StocksEchoHandler) Get(c echo.Context) error {
	symbol := c.Param("symbol")
	q, err := h.stocks.GetQuote(c.Request().Context(), symbol)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("quote for %s not available", symbol))
		}
		h.logger.Error("quote lookup failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("quote lookup failed"))
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *StocksEchoHandler) Refresh(c echo.Context) error {
	symbol := c.Param("symbol")
	q, err := h.stocks.Refresh(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Warn("forced refresh failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("could not refresh %s", symbol))
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *StocksEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	closes, err := h.stocks.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no history for %s", req.Symbol))
		}
		h.logger.Error("history lookup failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history lookup failed"))
	}
	return xhttp.SuccessResponse(c, closes)
}

func (h *StocksEchoHandler) AddFavorite(c echo.Context) error {
	userID := userIDFrom(c)
	if userID == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}
	if err := h.stocks.AddFavorite(c.Request().Context(), userID, c.Param("symbol")); err != nil {
		h.logger.Error("add favorite failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not save favorite"))
	}
	return xhttp.NoContentResponse(c)
}

func (h *StocksEchoHandler) RemoveFavorite(c echo.Context) error {
	userID := userIDFrom(c)
	if userID == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}
	if err := h.stocks.RemoveFavorite(c.Request().Context(), userID, c.Param("symbol")); err != nil {
		h.logger.Error("remove favorite failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not remove favorite"))
	}
	return xhttp.NoContentResponse(c)
}

func (h *StocksEchoHandler) CacheStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.stocks.CacheStats())
}

func (h *StocksEchoHandler) CacheHealth(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.stocks.CacheHealth())
}

func (h *StocksEchoHandler) ClearCache(c echo.Context) error {
	h.stocks.ClearCache()
	h.logger.Warn("quote cache cleared by request")
	return xhttp.NoContentResponse(c)
}

// userIDFrom resolves the caller's identity from the X-User-ID header.
func userIDFrom(c echo.Context) string {
	return c.Request().Header.Get("X-User-ID")
}
