package session

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/transcription"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

func newTestSessionManager() *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engines := whisper.NewManager(whisper.ManagerConfig{
		Factory: func(ctx context.Context, variant, device string) (whisper.Engine, error) {
			return &fixedEngine{text: "ok"}, nil
		},
		PreferredDevice: whisper.DeviceCPU,
		Log:             logger,
	})
	return NewManager(ManagerConfig{
		Normalizer: audio.NewNormalizer(16000, nil, logger),
		Engines:    engines,
		Pipeline:   transcription.NewPipeline(transcription.Config{Manager: engines, Log: logger}),
		Log:        logger,
	})
}

func TestManagerSessionLifecycle(t *testing.T) {
	m := newTestSessionManager()

	t1 := newFakeTransport()
	t2 := newFakeTransport()
	c1 := m.CreateSession(t1)
	c2 := m.CreateSession(t2)

	if c1.ID() == c2.ID() {
		t.Fatal("sessions share an id")
	}
	if got := m.SessionCount(); got != 2 {
		t.Fatalf("expected 2 sessions, got %d", got)
	}

	if got, ok := m.GetSession(c1.ID()); !ok || got != c1 {
		t.Error("GetSession did not return the registered controller")
	}

	m.RemoveSession(c1.ID())
	if got := m.SessionCount(); got != 1 {
		t.Fatalf("expected 1 session after removal, got %d", got)
	}
	if _, ok := m.GetSession(c1.ID()); ok {
		t.Error("removed session still resolvable")
	}

	t1.mu.Lock()
	closed := t1.closed
	t1.mu.Unlock()
	if !closed {
		t.Error("removed session's transport not closed")
	}
}

func TestManagerRemoveUnknownSession(t *testing.T) {
	m := newTestSessionManager()
	m.RemoveSession("no-such-id")

	if got := m.SessionCount(); got != 0 {
		t.Errorf("expected 0 sessions, got %d", got)
	}
}

func TestManagerClose(t *testing.T) {
	m := newTestSessionManager()
	transports := []*fakeTransport{newFakeTransport(), newFakeTransport(), newFakeTransport()}
	for _, tr := range transports {
		m.CreateSession(tr)
	}

	m.Close()
	if got := m.SessionCount(); got != 0 {
		t.Fatalf("expected 0 sessions after close, got %d", got)
	}
	for i, tr := range transports {
		tr.mu.Lock()
		closed := tr.closed
		tr.mu.Unlock()
		if !closed {
			t.Errorf("transport %d not closed", i)
		}
	}
}
