package whisper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
)

// StubEngine produces deterministic transcripts without running a model.
// It stands in when no inference sidecar is configured and in tests.
type StubEngine struct {
	variant string
	device  string
	log     *slog.Logger
}

func NewStubEngine(variant, device string, log *slog.Logger) *StubEngine {
	if log == nil {
		log = slog.Default()
	}
	return &StubEngine{
		variant: variant,
		device:  device,
		log:     log.With("component", "engine.stub", "variant", variant),
	}
}

func (e *StubEngine) Transcribe(ctx context.Context, window audio.Window, language string) ([]Segment, error) {
	if len(window.Samples) == 0 {
		return nil, nil
	}
	duration := window.DurationMs() / 1000
	e.log.Debug("stub transcript", "samples", len(window.Samples), "duration_s", duration, "language", language)
	return []Segment{
		{
			Text:  fmt.Sprintf("[stub:%s] %.1fs of audio", e.variant, duration),
			Start: 0,
			End:   duration,
		},
	}, nil
}

func (e *StubEngine) Close() error { return nil }

// NewStubFactory returns a factory that loads instantly on any device.
func NewStubFactory(log *slog.Logger) Factory {
	return func(ctx context.Context, variant, device string) (Engine, error) {
		return NewStubEngine(variant, device, log), nil
	}
}
