package health

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

// Handler serves the service banner and liveness endpoints.
type Handler struct {
	engines *whisper.Manager
	version string
}

func NewHandler(engines *whisper.Manager, version string) *Handler {
	return &Handler{engines: engines, version: version}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
}

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Realtime Whisper Transcription Service",
		"version": h.version,
		"endpoints": map[string]string{
			"websocket": "/ws",
			"health":    "/health",
			"models":    "/models",
			"metrics":   "/metrics",
		},
	})
}

func (h *Handler) Health(c echo.Context) error {
	_, loaded := h.engines.Current()
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": loaded,
		"device":       h.engines.Device(),
	})
}
