package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/metrics"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

// ErrModelNotLoaded is returned when a window arrives before any backend
// variant has been loaded.
var ErrModelNotLoaded = errors.New("transcription: model not loaded")

// Event is one item of a window's result stream: either a segment or a
// terminal error. After an error event the stream is closed; segments already
// emitted are not retracted.
type Event struct {
	Segment *whisper.Segment
	Err     error
}

// Pipeline runs windows through the current backend off the session's
// control path and streams timed segments back in backend order.
type Pipeline struct {
	manager  *whisper.Manager
	language string
	timeout  time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics
}

type Config struct {
	Manager *whisper.Manager
	// Language is the hint forwarded to the backend for every window.
	Language string
	// Timeout bounds one backend call; zero disables the bound.
	Timeout time.Duration
	Log     *slog.Logger
	Metrics *metrics.Metrics
}

func NewPipeline(cfg Config) *Pipeline {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	return &Pipeline{
		manager:  cfg.Manager,
		language: language,
		timeout:  cfg.Timeout,
		log:      log.With("component", "pipeline"),
		metrics:  cfg.Metrics,
	}
}

// Transcribe resolves the current backend and starts the inference in a
// goroutine. The returned channel is closed once all events are delivered.
func (p *Pipeline) Transcribe(ctx context.Context, window audio.Window) (<-chan Event, error) {
	engine, err := p.manager.Engine()
	if err != nil {
		return nil, ErrModelNotLoaded
	}

	events := make(chan Event, 8)

	go func() {
		defer close(events)

		callCtx := ctx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}

		start := time.Now()
		segments, err := engine.Transcribe(callCtx, window, p.language)
		elapsed := time.Since(start)

		if p.metrics != nil {
			p.metrics.TranscriptionDuration.Observe(elapsed.Seconds())
		}

		if err != nil {
			if p.metrics != nil {
				p.metrics.TranscriptionFailures.Inc()
			}
			p.log.Error("transcription failed", "error", err, "window_ms", window.DurationMs())
			events <- Event{Err: fmt.Errorf("transcription: %w", err)}
			return
		}

		p.log.Debug("transcription complete",
			"segments", len(segments),
			"window_ms", window.DurationMs(),
			"elapsed_ms", elapsed.Milliseconds())

		for i := range segments {
			select {
			case events <- Event{Segment: &segments[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
