package whisper

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/shared"
)

// Handler exposes the model-management surface outside the stream.
type Handler struct {
	manager *Manager
	log     *slog.Logger
}

func NewHandler(manager *Manager, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		manager: manager,
		log:     log.With("component", "model_handler"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/models", h.GetModels)
	e.POST("/models/:name", h.ChangeModel)
}

func (h *Handler) GetModels(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Describe())
}

func (h *Handler) ChangeModel(c echo.Context) error {
	name := c.Param("name")
	if !KnownVariant(name) {
		return shared.BadRequest("invalid_model", fmt.Sprintf("Invalid model: %s", name))
	}

	if err := h.manager.Load(c.Request().Context(), name); err != nil {
		if errors.Is(err, ErrSuperseded) {
			return shared.InternalError("load_superseded", "Model load superseded by a newer request")
		}
		h.log.Error("model switch failed", "model", name, "error", err)
		return shared.InternalError("load_failed", "Failed to load model")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Model changed to %s", name),
		"device":  h.manager.Device(),
	})
}
