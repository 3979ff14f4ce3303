package transcription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

type scriptedEngine struct {
	segments []whisper.Segment
	err      error
	delay    time.Duration
}

func (e *scriptedEngine) Transcribe(ctx context.Context, window audio.Window, language string) ([]whisper.Segment, error) {
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.segments, nil
}

func (e *scriptedEngine) Close() error { return nil }

func managerWith(t *testing.T, engine whisper.Engine) *whisper.Manager {
	t.Helper()
	m := whisper.NewManager(whisper.ManagerConfig{
		Factory: func(ctx context.Context, variant, device string) (whisper.Engine, error) {
			return engine, nil
		},
		PreferredDevice: whisper.DeviceCPU,
	})
	if err := m.Load(context.Background(), "tiny"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return m
}

func testWindow() audio.Window {
	return audio.Window{Samples: make([]float32, 16000), SampleRate: 16000}
}

func TestPipelineRejectsWithoutModel(t *testing.T) {
	m := whisper.NewManager(whisper.ManagerConfig{
		Factory: func(ctx context.Context, variant, device string) (whisper.Engine, error) {
			return nil, errors.New("unused")
		},
		PreferredDevice: whisper.DeviceCPU,
	})
	p := NewPipeline(Config{Manager: m})

	_, err := p.Transcribe(context.Background(), testWindow())
	if !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestPipelineStreamsSegmentsInOrder(t *testing.T) {
	engine := &scriptedEngine{segments: []whisper.Segment{
		{Text: "first", Start: 0, End: 1.5},
		{Text: "second", Start: 1.5, End: 3},
		{Text: "third", Start: 3, End: 5},
	}}
	p := NewPipeline(Config{Manager: managerWith(t, engine)})

	events, err := p.Transcribe(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var texts []string
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("unexpected event error: %v", ev.Err)
		}
		texts = append(texts, ev.Segment.Text)
	}

	want := []string{"first", "second", "third"}
	if len(texts) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(texts))
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("segment %d: expected %q, got %q", i, want[i], texts[i])
		}
	}
}

func TestPipelineEmitsTerminalError(t *testing.T) {
	engine := &scriptedEngine{err: errors.New("backend crashed")}
	p := NewPipeline(Config{Manager: managerWith(t, engine)})

	events, err := p.Transcribe(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(got))
	}
	if got[0].Err == nil {
		t.Fatal("expected error event")
	}
}

func TestPipelineTimeout(t *testing.T) {
	engine := &scriptedEngine{delay: 500 * time.Millisecond}
	p := NewPipeline(Config{
		Manager: managerWith(t, engine),
		Timeout: 20 * time.Millisecond,
	})

	events, err := p.Transcribe(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 1 || got[0].Err == nil {
		t.Fatalf("expected one error event from timeout, got %v", got)
	}
	if !errors.Is(got[0].Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", got[0].Err)
	}
}
