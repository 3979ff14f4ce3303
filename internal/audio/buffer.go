package audio

import "sync"

const (
	DefaultSampleRate = 16000
	DefaultWindowMs   = 5000
)

// Window is a drained batch of mono float32 samples ready for transcription.
// It is never mutated after Drain returns it.
type Window struct {
	Samples    []float32
	SampleRate int
}

func (w Window) DurationMs() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate) * 1000
}

// Buffer accumulates normalized samples for one session until enough audio
// has arrived to justify a transcription pass. Drain is the only way the
// accumulated samples leave the buffer; nothing is ever replayed.
type Buffer struct {
	mu         sync.Mutex
	samples    []float32
	sampleRate int
	windowMs   float64
}

func NewBuffer(sampleRate int, windowMs float64) *Buffer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if windowMs <= 0 {
		windowMs = DefaultWindowMs
	}
	return &Buffer{
		samples:    make([]float32, 0, sampleRate),
		sampleRate: sampleRate,
		windowMs:   windowMs,
	}
}

func (b *Buffer) Add(samples []float32) {
	if len(samples) == 0 {
		return
	}
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
}

func (b *Buffer) DurationMs() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(len(b.samples)) / float64(b.sampleRate) * 1000
}

// Ready reports whether at least one full window of audio has accumulated.
func (b *Buffer) Ready() bool {
	return b.DurationMs() >= b.windowMs
}

// Drain extracts everything accumulated so far and atomically clears the
// buffer. The window may exceed the target duration by up to the size of the
// last added fragment; fragments are never split.
func (b *Buffer) Drain() Window {
	b.mu.Lock()
	defer b.mu.Unlock()

	window := Window{
		Samples:    b.samples,
		SampleRate: b.sampleRate,
	}
	b.samples = make([]float32, 0, b.sampleRate)
	return window
}

func (b *Buffer) Reset() {
	b.mu.Lock()
	b.samples = b.samples[:0]
	b.mu.Unlock()
}
