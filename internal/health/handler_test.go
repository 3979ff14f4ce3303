package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

type noopEngine struct{}

func (noopEngine) Transcribe(ctx context.Context, window audio.Window, language string) ([]whisper.Segment, error) {
	return nil, nil
}

func (noopEngine) Close() error { return nil }

func TestHealthBeforeAndAfterLoad(t *testing.T) {
	engines := whisper.NewManager(whisper.ManagerConfig{
		Factory: func(ctx context.Context, variant, device string) (whisper.Engine, error) {
			return noopEngine{}, nil
		},
		PreferredDevice: whisper.DeviceCPU,
	})
	h := NewHandler(engines, "test")
	e := echo.New()

	check := func(wantLoaded bool) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		if err := h.Health(e.NewContext(req, rec)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body["status"] != "healthy" {
			t.Errorf("expected healthy, got %v", body["status"])
		}
		if body["model_loaded"] != wantLoaded {
			t.Errorf("expected model_loaded=%v, got %v", wantLoaded, body["model_loaded"])
		}
	}

	check(false)
	if err := engines.Load(context.Background(), "tiny"); err != nil {
		t.Fatalf("load: %v", err)
	}
	check(true)
}

func TestRootBanner(t *testing.T) {
	engines := whisper.NewManager(whisper.ManagerConfig{
		Factory: func(ctx context.Context, variant, device string) (whisper.Engine, error) {
			return noopEngine{}, nil
		},
		PreferredDevice: whisper.DeviceCPU,
	})
	h := NewHandler(engines, "1.0.0")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.Root(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	endpoints, ok := body["endpoints"].(map[string]any)
	if !ok {
		t.Fatal("banner missing endpoints map")
	}
	if endpoints["websocket"] != "/ws" {
		t.Errorf("expected /ws endpoint, got %v", endpoints["websocket"])
	}
}
