package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/metrics"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/session"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/transcription"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideMetrics() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func ProvideDecoder(cfg *Config) audio.Decoder {
	return audio.NewFFmpegDecoder(cfg.FFmpegPath, cfg.FFprobePath)
}

func ProvideNormalizer(cfg *Config, decoder audio.Decoder, logger *slog.Logger) *audio.Normalizer {
	return audio.NewNormalizer(cfg.SampleRate, decoder, logger)
}

// ProvideEngineManager wires the transcription backend. With a sidecar URL
// configured, inference goes over HTTP to the faster-whisper process;
// otherwise the deterministic stub backend is used, which keeps the full
// streaming path exercisable without a GPU.
func ProvideEngineManager(cfg *Config, logger *slog.Logger, m *metrics.Metrics) *whisper.Manager {
	var factory whisper.Factory
	if cfg.SidecarURL != "" {
		factory = whisper.NewSidecarFactory(whisper.SidecarConfig{
			BaseURL:     cfg.SidecarURL,
			LoadTimeout: cfg.SidecarLoadTimeout,
		}, logger)
	} else {
		logger.Warn("no sidecar configured, using stub transcription backend")
		factory = whisper.NewStubFactory(logger)
	}

	return whisper.NewManager(whisper.ManagerConfig{
		Factory:         factory,
		PreferredDevice: cfg.Device,
		Log:             logger,
		Metrics:         m,
	})
}

func ProvidePipeline(cfg *Config, engines *whisper.Manager, logger *slog.Logger, m *metrics.Metrics) *transcription.Pipeline {
	return transcription.NewPipeline(transcription.Config{
		Manager:  engines,
		Language: cfg.Language,
		Timeout:  cfg.TranscribeTimeout,
		Log:      logger,
		Metrics:  m,
	})
}

func ProvideSessionManager(cfg *Config, normalizer *audio.Normalizer, engines *whisper.Manager, pipeline *transcription.Pipeline, logger *slog.Logger, m *metrics.Metrics) *session.Manager {
	return session.NewManager(session.ManagerConfig{
		Normalizer: normalizer,
		Engines:    engines,
		Pipeline:   pipeline,
		WindowMs:   float64(cfg.WindowMs),
		Log:        logger,
		Metrics:    m,
	})
}

// LoadDefaultModel kicks off the initial model load in the background so the
// server accepts connections while weights download.
func LoadDefaultModel(lc fx.Lifecycle, cfg *Config, engines *whisper.Manager, sessions *session.Manager, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := engines.Load(context.Background(), cfg.DefaultModel); err != nil {
					logger.Error("startup model load failed", "model", cfg.DefaultModel, "error", err)
					return
				}
				logger.Info("startup model loaded", "model", cfg.DefaultModel, "device", engines.Device())
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sessions.Close()
			return engines.Close()
		},
	})
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideMetrics,
		ProvideDecoder,
		ProvideNormalizer,
		ProvideEngineManager,
		ProvidePipeline,
		ProvideSessionManager,
	),
	fx.Invoke(LoadDefaultModel),
)
