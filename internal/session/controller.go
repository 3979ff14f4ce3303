package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/metrics"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/transcription"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

const defaultFormat = "webm"

// Controller drives one streaming session: it dispatches inbound messages in
// arrival order, accumulates normalized audio in the session's private
// buffer, and hands ready windows to a worker so the dispatch loop stays
// responsive while inference runs.
type Controller struct {
	id         string
	transport  Transport
	normalizer *audio.Normalizer
	buffer     *audio.Buffer
	engines    *whisper.Manager
	pipeline   *transcription.Pipeline
	log        *slog.Logger
	metrics    *metrics.Metrics

	windows   chan audio.Window
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type Config struct {
	Transport  Transport
	Normalizer *audio.Normalizer
	Engines    *whisper.Manager
	Pipeline   *transcription.Pipeline
	WindowMs   float64
	Log        *slog.Logger
	Metrics    *metrics.Metrics
}

func New(cfg Config) *Controller {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	id := uuid.New().String()

	return &Controller{
		id:         id,
		transport:  cfg.Transport,
		normalizer: cfg.Normalizer,
		buffer:     audio.NewBuffer(cfg.Normalizer.SampleRate(), cfg.WindowMs),
		engines:    cfg.Engines,
		pipeline:   cfg.Pipeline,
		log:        log.With("session_id", id),
		metrics:    cfg.Metrics,
		windows:    make(chan audio.Window, 4),
	}
}

func (s *Controller) ID() string {
	return s.id
}

// Run sends the initial connection status and then dispatches messages until
// the transport closes. It returns only after in-flight window work has run
// to completion; results for a closed session are dropped by the transport,
// never delivered out of band.
func (s *Controller) Run(ctx context.Context) {
	variant, _ := s.engines.Current()
	_ = s.transport.Send(ConnectionMessage(variant, s.engines.Device()))

	s.wg.Add(1)
	go s.transcribeLoop(ctx)

	for msg := range s.transport.Messages() {
		s.dispatch(ctx, msg)
	}

	close(s.windows)
	s.wg.Wait()
	s.Close()
}

func (s *Controller) dispatch(ctx context.Context, msg *ClientMessage) {
	if s.metrics != nil {
		s.metrics.MessagesReceived.WithLabelValues(string(msg.Type)).Inc()
	}

	switch msg.Type {
	case MessageTypeAudio:
		s.handleAudio(ctx, msg)
	case MessageTypeChangeModel:
		s.handleChangeModel(ctx, msg)
	case MessageTypePing:
		_ = s.transport.Send(PongMessage())
	default:
		s.sendError("protocol", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *Controller) handleAudio(ctx context.Context, msg *ClientMessage) {
	format := msg.Format
	if format == "" {
		format = defaultFormat
	}

	raw, err := s.normalizer.DecodePayload(msg.Data)
	if err != nil {
		s.countNormalizeError()
		s.log.Error("audio payload decode failed", "error", err)
		s.sendError("audio", fmt.Sprintf("Audio processing error: %v", err))
		return
	}

	samples, err := s.normalizer.Normalize(ctx, audio.Fragment{Data: raw, Format: format})
	if err != nil {
		s.countNormalizeError()
		s.log.Error("audio normalization failed", "format", format, "error", err)
		s.sendError("audio", fmt.Sprintf("Audio processing error: %v", err))
		return
	}

	if s.metrics != nil {
		s.metrics.FragmentsNormalized.Inc()
	}
	s.buffer.Add(samples)

	if !s.buffer.Ready() {
		return
	}

	_ = s.transport.Send(StatusMessage("Processing audio..."))
	window := s.buffer.Drain()

	if s.metrics != nil {
		s.metrics.WindowsProcessed.Inc()
		s.metrics.WindowDuration.Observe(window.DurationMs() / 1000)
	}

	select {
	case s.windows <- window:
	default:
		s.log.Warn("transcription backlog, dropping window", "window_ms", window.DurationMs())
		s.sendError("audio", "Transcription backlog, audio window dropped")
	}
}

func (s *Controller) handleChangeModel(ctx context.Context, msg *ClientMessage) {
	model := msg.Model
	_ = s.transport.Send(StatusMessage(fmt.Sprintf("Loading %s model...", model)))

	// The load mutates process-wide state; a session disconnect must not
	// abort it for everyone else.
	loadCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := s.engines.Load(loadCtx, model)
		switch {
		case err == nil:
			_ = s.transport.Send(ModelChangedMessage(model, s.engines.Device()))
		case errors.Is(err, whisper.ErrSuperseded):
			_ = s.transport.Send(StatusMessage("Model load superseded by a newer request"))
		case errors.Is(err, whisper.ErrUnknownVariant):
			s.sendError("model", fmt.Sprintf("Invalid model: %s", model))
		default:
			s.log.Error("model load failed", "model", model, "error", err)
			s.sendError("model", "Failed to load model")
		}
	}()
}

func (s *Controller) transcribeLoop(ctx context.Context) {
	defer s.wg.Done()

	for window := range s.windows {
		s.transcribeWindow(ctx, window)
	}
}

func (s *Controller) transcribeWindow(ctx context.Context, window audio.Window) {
	events, err := s.pipeline.Transcribe(ctx, window)
	if err != nil {
		s.log.Error("transcription rejected", "error", err)
		s.sendError("transcription", "Model not loaded")
		return
	}

	for ev := range events {
		if ev.Err != nil {
			s.sendError("transcription", fmt.Sprintf("Transcription error: %v", ev.Err))
			continue
		}
		if s.metrics != nil {
			s.metrics.SegmentsEmitted.Inc()
		}
		_ = s.transport.Send(TranscriptionMessage(ev.Segment))
	}
}

func (s *Controller) sendError(source, message string) {
	if s.metrics != nil {
		s.metrics.MessageErrors.WithLabelValues(source).Inc()
	}
	_ = s.transport.Send(ErrorMessage(message))
}

func (s *Controller) countNormalizeError() {
	if s.metrics != nil {
		s.metrics.NormalizeErrors.Inc()
	}
}

// Close releases the session's resources. Safe to call more than once.
func (s *Controller) Close() {
	s.closeOnce.Do(func() {
		s.buffer.Reset()
		_ = s.transport.Close()
	})
}
