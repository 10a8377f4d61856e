package audio

import (
	"sync"
	"time"
)

// MockOutput is a scriptable Output for tests. Commands record their
// effect synchronously; tests emit events to simulate the device side.
type MockOutput struct {
	mu sync.Mutex

	// Scripted failures. When set, the corresponding command returns
	// the error instead of succeeding.
	LoadErr  error
	StartErr error
	GraphErr error

	gen        uint64
	loaded     string
	started    bool
	paused     bool
	position   time.Duration
	duration   time.Duration
	level      int
	graphBuilt bool
	closed     bool
	calls      []string

	events chan Event
}

var _ Output = (*MockOutput)(nil)

// NewMock creates a mock output.
func NewMock() *MockOutput {
	return &MockOutput{
		events: make(chan Event, 64),
	}
}

func (m *MockOutput) Load(locator string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "load")
	m.gen++
	m.started = false
	m.paused = false
	m.position = 0
	if m.LoadErr != nil {
		m.loaded = ""
		return m.gen, m.LoadErr
	}
	m.loaded = locator
	return m.gen, nil
}

func (m *MockOutput) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "start")
	if m.StartErr != nil {
		return m.StartErr
	}
	m.started = true
	m.paused = false
	return nil
}

func (m *MockOutput) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "pause")
	m.paused = true
}

func (m *MockOutput) SetPosition(to time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "setposition")
	m.position = to
}

func (m *MockOutput) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockOutput) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockOutput) SetVolume(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "setvolume")
	m.level = level
}

func (m *MockOutput) EnsureGraph() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "ensuregraph")
	if m.GraphErr != nil {
		return m.GraphErr
	}
	m.graphBuilt = true
	return nil
}

func (m *MockOutput) Events() <-chan Event {
	return m.events
}

func (m *MockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test-side controls.

// Gen returns the current load generation.
func (m *MockOutput) Gen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Loaded returns the locator of the current source.
func (m *MockOutput) Loaded() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Started reports whether the source is started and not paused.
func (m *MockOutput) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started && !m.paused
}

// Paused reports whether Pause was the last transport command.
func (m *MockOutput) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Level returns the last applied volume level.
func (m *MockOutput) Level() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// GraphBuilt reports whether EnsureGraph succeeded at least once.
func (m *MockOutput) GraphBuilt() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graphBuilt
}

// Closed reports whether Close was called.
func (m *MockOutput) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ResetCalls clears the recorded command names.
func (m *MockOutput) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Calls returns the recorded command names in order.
func (m *MockOutput) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// SetDuration scripts the duration reported for the loaded source.
func (m *MockOutput) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// EmitEnded delivers a natural-end event for the current generation.
func (m *MockOutput) EmitEnded() {
	m.events <- Event{Kind: EventEnded, Gen: m.Gen()}
}

// EmitTime delivers a position event for the current generation.
func (m *MockOutput) EmitTime(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	gen := m.gen
	m.mu.Unlock()
	m.events <- Event{Kind: EventTime, Position: pos, Gen: gen}
}

// EmitMetadata delivers a duration event for the current generation.
func (m *MockOutput) EmitMetadata(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	gen := m.gen
	m.mu.Unlock()
	m.events <- Event{Kind: EventMetadata, Duration: d, Gen: gen}
}

// EmitError delivers an asynchronous failure for the current
// generation.
func (m *MockOutput) EmitError(err error) {
	m.events <- Event{Kind: EventError, Err: err, Gen: m.Gen()}
}

// Emit delivers a raw event, letting tests forge stale generations.
func (m *MockOutput) Emit(ev Event) {
	m.events <- ev
}
