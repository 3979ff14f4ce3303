package session

import (
	"log/slog"
	"sync"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/audio"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/metrics"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/transcription"
	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

// Manager tracks live sessions. Each connection gets its own controller with
// a private buffer; the whisper manager and pipeline are shared.
type Manager struct {
	normalizer *audio.Normalizer
	engines    *whisper.Manager
	pipeline   *transcription.Pipeline
	windowMs   float64
	log        *slog.Logger
	metrics    *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*Controller
}

type ManagerConfig struct {
	Normalizer *audio.Normalizer
	Engines    *whisper.Manager
	Pipeline   *transcription.Pipeline
	WindowMs   float64
	Log        *slog.Logger
	Metrics    *metrics.Metrics
}

func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	windowMs := cfg.WindowMs
	if windowMs <= 0 {
		windowMs = audio.DefaultWindowMs
	}
	return &Manager{
		normalizer: cfg.Normalizer,
		engines:    cfg.Engines,
		pipeline:   cfg.Pipeline,
		windowMs:   windowMs,
		log:        log,
		metrics:    cfg.Metrics,
		sessions:   make(map[string]*Controller),
	}
}

func (m *Manager) CreateSession(transport Transport) *Controller {
	ctrl := New(Config{
		Transport:  transport,
		Normalizer: m.normalizer,
		Engines:    m.engines,
		Pipeline:   m.pipeline,
		WindowMs:   m.windowMs,
		Log:        m.log,
		Metrics:    m.metrics,
	})

	m.mu.Lock()
	m.sessions[ctrl.ID()] = ctrl
	count := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionsCreated.Inc()
		m.metrics.ActiveSessions.Set(float64(count))
	}

	m.log.Info("session created", "session_id", ctrl.ID(), "active", count)
	return ctrl
}

func (m *Manager) GetSession(id string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.sessions[id]
	return ctrl, ok
}

func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	ctrl, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}
	ctrl.Close()

	if m.metrics != nil {
		m.metrics.SessionsClosed.Inc()
		m.metrics.ActiveSessions.Set(float64(count))
	}

	m.log.Info("session removed", "session_id", id, "active", count)
}

func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close tears down every live session, typically at shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Controller, 0, len(m.sessions))
	for _, ctrl := range m.sessions {
		sessions = append(sessions, ctrl)
	}
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, ctrl := range sessions {
		ctrl.Close()
	}

	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(0)
	}
}
