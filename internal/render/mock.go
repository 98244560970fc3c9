package render

import (
	"sync"

	"github.com/avrillon/cadenza/internal/catalog"
)

// Mock is a test double for Primitive. Tests drive it by injecting events
// with the Emit helpers and inspect the recorded calls.
type Mock struct {
	mu       sync.Mutex
	loads    []string
	seeks    []catalog.Ticks
	volumes  []float64
	muted    []bool
	playing  bool
	closed   bool
	position catalog.Ticks
	duration catalog.Ticks
	loadErr  error
	events   chan Event
}

var _ Primitive = (*Mock)(nil)

// NewMock creates a mock primitive.
func NewMock() *Mock {
	return &Mock{events: make(chan Event, 32)}
}

func (m *Mock) Load(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, url)
	return m.loadErr
}

func (m *Mock) Play() {
	m.mu.Lock()
	m.playing = true
	m.mu.Unlock()
	m.Emit(Event{Kind: EventPlaying})
}

func (m *Mock) Pause() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.Emit(Event{Kind: EventPaused})
}

func (m *Mock) SeekTo(pos catalog.Ticks) {
	m.mu.Lock()
	m.seeks = append(m.seeks, pos)
	m.position = pos
	m.mu.Unlock()
}

func (m *Mock) Position() catalog.Ticks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() catalog.Ticks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes = append(m.volumes, v)
}

func (m *Mock) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = append(m.muted, muted)
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.events)
}

// Emit injects an event as if the native layer produced it. Events after
// Close are dropped, mirroring a real primitive going quiet on teardown.
func (m *Mock) Emit(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.events <- e:
	default:
	}
}

// EmitProgress injects a time-update at pos, updating the mock position.
func (m *Mock) EmitProgress(pos catalog.Ticks) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.position = pos
	m.mu.Unlock()
	m.Emit(Event{Kind: EventTimeUpdate, Position: pos})
}

// Test helpers

func (m *Mock) SetDuration(d catalog.Ticks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(pos catalog.Ticks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

func (m *Mock) SeekCalls() []catalog.Ticks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Ticks(nil), m.seeks...)
}

func (m *Mock) VolumeCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumes...)
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
