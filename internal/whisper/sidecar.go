package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
)

const (
	defaultLoadTimeout = 5 * time.Minute
	beamSize           = 5
	minSilenceMs       = 500
)

// SidecarConfig points at a faster-whisper inference sidecar.
type SidecarConfig struct {
	BaseURL     string
	LoadTimeout time.Duration
	HTTPClient  *http.Client
}

// SidecarEngine talks to the sidecar over HTTP: one load call per
// (variant, device) pair at construction, then one inference call per window.
type SidecarEngine struct {
	baseURL string
	variant string
	device  string
	client  *http.Client
	log     *slog.Logger
}

type sidecarSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type sidecarResponse struct {
	Segments []sidecarSegment `json:"segments"`
	Error    string           `json:"error,omitempty"`
}

// NewSidecarFactory returns a factory that asks the sidecar to load the
// requested variant on the requested device before handing back an engine.
func NewSidecarFactory(cfg SidecarConfig, log *slog.Logger) Factory {
	if log == nil {
		log = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	loadTimeout := cfg.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	return func(ctx context.Context, variant, device string) (Engine, error) {
		ctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()

		body, err := json.Marshal(map[string]string{
			"model":        variant,
			"device":       device,
			"compute_type": ComputeType(device),
		})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/load", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("sidecar load: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("sidecar load %s on %s: status %d: %s",
				variant, device, resp.StatusCode, strings.TrimSpace(string(msg)))
		}

		return &SidecarEngine{
			baseURL: baseURL,
			variant: variant,
			device:  device,
			client:  client,
			log:     log.With("component", "engine.sidecar", "variant", variant, "device", device),
		}, nil
	}
}

func (e *SidecarEngine) Transcribe(ctx context.Context, window audio.Window, language string) ([]Segment, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"language":                language,
		"beam_size":               fmt.Sprintf("%d", beamSize),
		"vad_filter":              "true",
		"min_silence_duration_ms": fmt.Sprintf("%d", minSilenceMs),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	fw, err := mw.CreateFormFile("audio", "window.wav")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(audio.EncodeWAV(window.Samples, window.SampleRate)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/transcribe", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sidecar transcribe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sidecar transcribe: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("sidecar transcribe: parse response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("sidecar transcribe: %s", parsed.Error)
	}

	segments := make([]Segment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		segments = append(segments, Segment{
			Text:  strings.TrimSpace(s.Text),
			Start: s.Start,
			End:   s.End,
		})
	}
	return segments, nil
}

func (e *SidecarEngine) Close() error { return nil }
