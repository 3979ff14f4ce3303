package bootstrap

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/health"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/session"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

const version = "1.0.0"

func ProvideHealthHandler(engines *whisper.Manager) *health.Handler {
	return health.NewHandler(engines, version)
}

func ProvideModelHandler(engines *whisper.Manager, logger *slog.Logger) *whisper.Handler {
	return whisper.NewHandler(engines, logger)
}

func ProvideSessionHandler(sessions *session.Manager, logger *slog.Logger) *session.Handler {
	return session.NewHandler(sessions, logger)
}

type HandlerParams struct {
	fx.In

	HealthHandler  *health.Handler
	ModelHandler   *whisper.Handler
	SessionHandler *session.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	params.HealthHandler.RegisterRoutes(e)
	params.ModelHandler.RegisterRoutes(e)
	params.SessionHandler.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideHealthHandler,
		ProvideModelHandler,
		ProvideSessionHandler,
	),
	fx.Invoke(RegisterRoutes),
)
