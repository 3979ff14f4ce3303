package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/metrics"
)

var (
	ErrUnknownVariant = errors.New("whisper: unknown model variant")
	ErrNotLoaded      = errors.New("whisper: no model loaded")
	ErrSuperseded     = errors.New("whisper: load superseded by a newer request")
)

// LoadError reports a failed variant load after device fallback was
// exhausted. The manager keeps its previous engine when this is returned.
type LoadError struct {
	Variant string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Variant, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Descriptor is a non-blocking snapshot of the manager's state. During an
// in-flight load it reflects the last successfully loaded model.
type Descriptor struct {
	AvailableModels []string               `json:"available_models"`
	CurrentModel    string                 `json:"current_model"`
	Device          string                 `json:"device"`
	CudaAvailable   bool                   `json:"cuda_available"`
	Loading         bool                   `json:"loading"`
	ModelsInfo      map[string]VariantInfo `json:"models_info"`
}

// Manager owns the process-wide transcription backend. All sessions observe
// the same loaded variant; swaps are serialized so a load can never corrupt
// an engine that other sessions are transcribing against.
type Manager struct {
	factory   Factory
	preferred string
	log       *slog.Logger
	metrics   *metrics.Metrics

	mu      sync.RWMutex
	engine  Engine
	variant string
	device  string
	loading bool

	loadMu sync.Mutex
	flight singleflight.Group

	targetMu sync.Mutex
	target   string
}

type ManagerConfig struct {
	Factory         Factory
	PreferredDevice string
	Log             *slog.Logger
	Metrics         *metrics.Metrics
}

func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	preferred := cfg.PreferredDevice
	if preferred != DeviceCPU {
		preferred = DeviceCUDA
	}
	return &Manager{
		factory:   cfg.Factory,
		preferred: preferred,
		log:       log.With("component", "whisper_manager"),
		metrics:   cfg.Metrics,
	}
}

// Load makes the named variant current. It is a no-op if the variant is
// already loaded. Concurrent requests for the same variant collapse into one
// load; a queued request for a different variant is skipped when a newer
// request has replaced it (last request wins).
func (m *Manager) Load(ctx context.Context, variant string) error {
	if !KnownVariant(variant) {
		return ErrUnknownVariant
	}

	if cur, ok := m.Current(); ok && cur == variant {
		m.log.Info("model already loaded", "variant", variant)
		return nil
	}

	m.setTarget(variant)

	_, err, _ := m.flight.Do(variant, func() (any, error) {
		return nil, m.load(ctx, variant)
	})
	return err
}

func (m *Manager) load(ctx context.Context, variant string) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if m.latestTarget() != variant {
		return ErrSuperseded
	}
	if cur, ok := m.Current(); ok && cur == variant {
		return nil
	}

	m.setLoading(true)
	defer m.setLoading(false)

	device := m.preferred
	m.log.Info("loading model", "variant", variant, "device", device)

	engine, err := m.factory(ctx, variant, device)
	if err != nil && device == DeviceCUDA {
		m.log.Warn("cuda load failed, retrying on cpu", "variant", variant, "error", err)
		device = DeviceCPU
		engine, err = m.factory(ctx, variant, device)
	}
	if err != nil {
		m.countLoad(device, "failure")
		m.log.Error("model load failed", "variant", variant, "device", device, "error", err)
		return &LoadError{Variant: variant, Err: err}
	}

	m.mu.Lock()
	old := m.engine
	m.engine = engine
	m.variant = variant
	m.device = device
	m.mu.Unlock()

	if old != nil {
		if cerr := old.Close(); cerr != nil {
			m.log.Error("failed to close previous engine", "error", cerr)
		}
	}

	m.countLoad(device, "success")
	m.log.Info("model loaded", "variant", variant, "device", device)
	return nil
}

// Current returns the loaded variant name, if any.
func (m *Manager) Current() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.variant, m.engine != nil
}

// Device returns the compute device of the loaded engine, or the preferred
// device when nothing is loaded yet.
func (m *Manager) Device() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.engine == nil {
		return m.preferred
	}
	return m.device
}

// Engine hands out the current backend for inference calls.
func (m *Manager) Engine() (Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.engine == nil {
		return nil, ErrNotLoaded
	}
	return m.engine, nil
}

// Describe never blocks, even while a load is running.
func (m *Manager) Describe() Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	device := m.device
	if m.engine == nil {
		device = m.preferred
	}

	return Descriptor{
		AvailableModels: Variants(),
		CurrentModel:    m.variant,
		Device:          device,
		CudaAvailable:   m.preferred == DeviceCUDA,
		Loading:         m.loading,
		ModelsInfo:      Catalog(),
	}
}

func (m *Manager) Close() error {
	m.mu.Lock()
	engine := m.engine
	m.engine = nil
	m.variant = ""
	m.mu.Unlock()

	if engine != nil {
		return engine.Close()
	}
	return nil
}

func (m *Manager) setTarget(variant string) {
	m.targetMu.Lock()
	m.target = variant
	m.targetMu.Unlock()
}

func (m *Manager) latestTarget() string {
	m.targetMu.Lock()
	defer m.targetMu.Unlock()
	return m.target
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) countLoad(device, outcome string) {
	if m.metrics != nil {
		m.metrics.ModelLoads.WithLabelValues(device, outcome).Inc()
	}
}
