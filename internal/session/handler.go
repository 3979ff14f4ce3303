package session

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler owns the websocket endpoint and the session lifecycle around it.
type Handler struct {
	sessions *Manager
	log      *slog.Logger
}

func NewHandler(sessions *Manager, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		sessions: sessions,
		log:      log.With("component", "ws_handler"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleWebSocket)
}

func (h *Handler) HandleWebSocket(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return err
	}

	ctx := c.Request().Context()
	conn := NewConn(ws, h.log)
	ctrl := h.sessions.CreateSession(conn)

	go conn.writePump(ctx)
	go conn.readPump(ctx)

	// Run blocks until the client disconnects and in-flight windows drain.
	ctrl.Run(ctx)
	h.sessions.RemoveSession(ctrl.ID())

	h.log.Info("websocket closed", "session_id", ctrl.ID())
	return nil
}
