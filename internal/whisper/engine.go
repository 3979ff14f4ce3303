package whisper

import (
	"context"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
)

const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// Segment is one timed span of recognized text within a window. Offsets are
// seconds relative to the start of the window, not the session.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Engine is a loaded transcription backend. Implementations must be safe for
// concurrent Transcribe calls; loading a new engine happens through the
// Manager, never on a live instance.
type Engine interface {
	Transcribe(ctx context.Context, window audio.Window, language string) ([]Segment, error)
	Close() error
}

// Factory builds an engine for a variant on a specific compute device.
// The Manager owns device fallback; factories fail fast.
type Factory func(ctx context.Context, variant, device string) (Engine, error)

// ComputeType picks the inference precision per device: half precision on
// GPU, full on CPU.
func ComputeType(device string) string {
	if device == DeviceCUDA {
		return "float16"
	}
	return "float32"
}
