package api

import (
	"net/http"
	"time"

	"StockWatch/internal/service/push"
	xlogger "StockWatch/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WSEchoHandler upgrades connections and binds them to the push registry.
type WSEchoHandler struct {
	logger   *xlogger.Logger
	registry *push.Registry
	upgrader websocket.Upgrader
}

func NewWSEchoHandler(logger *xlogger.Logger, registry *push.Registry) *WSEchoHandler {
	return &WSEchoHandler{
		logger:   logger,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Identity comes from the user_id param, not the origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WSEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Connect)
}

// Connect upgrades the request and registers the user's channel. A newer
// connection for the same user supersedes this one; only the current binding
// is removed on disconnect.
func (h *WSEchoHandler) Connect(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = userIDFrom(c)
	}
	if userID == "" {
		return c.String(http.StatusUnauthorized, "missing user identity")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	ch := push.NewWSChannel(conn, 5*time.Second)
	h.registry.Register(userID, ch)
	h.logger.Info("websocket connected", xlogger.String("user_id", userID))

	// Reader loop only detects disconnects; clients do not send frames.
	go func() {
		defer func() {
			h.registry.Unregister(userID, ch)
			_ = ch.Close()
			h.logger.Info("websocket disconnected", xlogger.String("user_id", userID))
		}()
		conn.SetReadLimit(1024)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}
