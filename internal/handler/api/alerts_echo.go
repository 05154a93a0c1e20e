package api

import (
	"errors"

	models "StockWatch/internal/domain/models"
	"StockWatch/internal/usecase"
	xhttp "StockWatch/pkg/http"
	xlogger "StockWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertsEchoHandler serves alert rule CRUD and the notification inbox.
type AlertsEchoHandler struct {
	logger *xlogger.Logger
	alerts *usecase.Alerts
	queue  *usecase.NotificationQueue
}

func NewAlertsEchoHandler(logger *xlogger.Logger, alerts *usecase.Alerts, queue *usecase.NotificationQueue) *AlertsEchoHandler {
	return &AlertsEchoHandler{logger: logger, alerts: alerts, queue: queue}
}

func (h *AlertsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/alerts")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.DELETE("/:id", h.Delete)

	n := e.Group("/api/notifications")
	n.GET("", h.Notifications)
	n.POST("/:id/read", h.MarkRead)
}

func (h *AlertsEchoHandler) Create(c echo.Context) error {
	userID := userIDFrom(c)
	if userID == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}

	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rule, err := h.alerts.Create(c.Request().Context(), userID, req)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("alert create failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not create alert"))
	}
	return xhttp.CreatedResponse(c, rule)
}

func (h *AlertsEchoHandler) List(c echo.Context) error {
	userID := userIDFrom(c)
	if userID == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}
	rules, err := h.alerts.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("alert list failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not list alerts"))
	}
	return xhttp.ListResponse(c, rules, int64(len(rules)))
}

func (h *AlertsEchoHandler) Delete(c echo.Context) error {
	userID := userIDFrom(c)
	if userID == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}
	err := h.alerts.Delete(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("alert not found"))
		}
		h.logger.Error("alert delete failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not delete alert"))
	}
	return xhttp.NoContentResponse(c)
}

func (h *AlertsEchoHandler) Notifications(c echo.Context) error {
	userID := userIDFrom(c)
	if userID == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}

	req := &models.NotificationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	notifs, err := h.queue.ListForUser(c.Request().Context(), userID, req.Limit)
	if err != nil {
		h.logger.Error("notification list failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not list notifications"))
	}
	return xhttp.ListResponse(c, notifs, int64(len(notifs)))
}

func (h *AlertsEchoHandler) MarkRead(c echo.Context) error {
	userID := userIDFrom(c)
	if userID == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}
	err := h.queue.MarkRead(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("notification not found"))
		}
		h.logger.Error("notification mark read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not mark notification"))
	}
	return xhttp.NoContentResponse(c)
}
