package shared

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAPIErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        *echo.HTTPError
		wantStatus int
		wantCode   string
	}{
		{"bad request", BadRequest("invalid_model", "Invalid model: huge"), http.StatusBadRequest, "invalid_model"},
		{"not found", NotFound("not_found", "No such session"), http.StatusNotFound, "not_found"},
		{"internal", InternalError("load_failed", "Failed to load model"), http.StatusInternalServerError, "load_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.Code)
			}
			apiErr, ok := tt.err.Message.(*APIError)
			if !ok {
				t.Fatalf("expected *APIError message, got %T", tt.err.Message)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, apiErr.Code)
			}
		})
	}
}

func TestAPIErrorWithDetails(t *testing.T) {
	err := NewAPIError("invalid_request", "bad payload").WithDetails(map[string]string{"field": "data"})
	if err.Details == nil {
		t.Fatal("details dropped")
	}
}
