package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newHandlerTestManager(f *fakeFactory) (*Manager, *Handler) {
	m := NewManager(ManagerConfig{
		Factory:         f.factory,
		PreferredDevice: DeviceCPU,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return m, NewHandler(m, logger)
}

func TestHandlerGetModels(t *testing.T) {
	m, h := newHandlerTestManager(&fakeFactory{})
	if err := m.Load(context.Background(), "small"); err != nil {
		t.Fatalf("load: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()

	if err := h.GetModels(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var desc Descriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &desc); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if desc.CurrentModel != "small" {
		t.Errorf("expected current_model small, got %s", desc.CurrentModel)
	}
	if len(desc.AvailableModels) != 4 {
		t.Errorf("expected 4 available models, got %d", len(desc.AvailableModels))
	}
}

func TestHandlerChangeModel(t *testing.T) {
	tests := []struct {
		name       string
		model      string
		factory    *fakeFactory
		wantStatus int
	}{
		{
			name:       "valid model",
			model:      "base",
			factory:    &fakeFactory{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown model",
			model:      "enormous",
			factory:    &fakeFactory{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "load failure",
			model:      "base",
			factory:    &fakeFactory{failAll: true},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newHandlerTestManager(tt.factory)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/models/"+tt.model, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("name")
			c.SetParamValues(tt.model)

			err := h.ChangeModel(c)
			if tt.wantStatus == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rec.Code != http.StatusOK {
					t.Fatalf("expected 200, got %d", rec.Code)
				}
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("unmarshal response: %v", err)
				}
				if body["message"] != "Model changed to base" {
					t.Errorf("unexpected message: %s", body["message"])
				}
				if body["device"] != DeviceCPU {
					t.Errorf("expected device cpu, got %s", body["device"])
				}
				return
			}

			var httpErr *echo.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected echo.HTTPError, got %v", err)
			}
			if httpErr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, httpErr.Code)
			}
		})
	}
}
