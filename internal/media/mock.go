package media

import (
	"context"
	"sync"
	"time"
)

// Mock is a test double for Element. It records calls and lets tests
// fire element events by hand.
type Mock struct {
	mu     sync.Mutex
	events Events

	LoadCalls  []string
	PlayCalls  int
	PauseCalls int
	SeekCalls  []time.Duration
	VolumeSets []float64
	MutedSets  []bool
	ClearCalls int

	LoadErr error
	PlayErr error

	position time.Duration
	duration time.Duration
}

// Verify Mock implements Element at compile time.
var _ Element = (*Mock)(nil)

// NewMock creates a mock element.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Load(_ context.Context, url string) error {
	m.mu.Lock()
	m.LoadCalls = append(m.LoadCalls, url)
	err := m.LoadErr
	m.mu.Unlock()
	return err
}

func (m *Mock) Play() error {
	m.mu.Lock()
	m.PlayCalls++
	err := m.PlayErr
	m.mu.Unlock()
	return err
}

func (m *Mock) Pause() {
	m.mu.Lock()
	m.PauseCalls++
	m.mu.Unlock()
}

func (m *Mock) SetCurrentTime(position time.Duration) {
	m.mu.Lock()
	m.SeekCalls = append(m.SeekCalls, position)
	m.position = position
	m.mu.Unlock()
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	m.VolumeSets = append(m.VolumeSets, level)
	m.mu.Unlock()
}

func (m *Mock) SetMuted(muted bool) {
	m.mu.Lock()
	m.MutedSets = append(m.MutedSets, muted)
	m.mu.Unlock()
}

func (m *Mock) ClearSource() {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SetEvents(ev Events) {
	m.mu.Lock()
	m.events = ev
	m.mu.Unlock()
}

func (m *Mock) Close() error { return nil }

// Test helpers

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

func (m *Mock) eventsCopy() Events {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

// FireTimeUpdate simulates a time-progress callback.
func (m *Mock) FireTimeUpdate(position time.Duration) {
	if ev := m.eventsCopy(); ev.OnTimeUpdate != nil {
		ev.OnTimeUpdate(position)
	}
}

// FireMetadataReady simulates the stream becoming decodable.
func (m *Mock) FireMetadataReady(duration time.Duration) {
	m.SetDuration(duration)
	if ev := m.eventsCopy(); ev.OnMetadataReady != nil {
		ev.OnMetadataReady(duration)
	}
}

// FireBuffering simulates the element stalling on data.
func (m *Mock) FireBuffering() {
	if ev := m.eventsCopy(); ev.OnBuffering != nil {
		ev.OnBuffering()
	}
}

// FirePlaying simulates playback actually starting.
func (m *Mock) FirePlaying() {
	if ev := m.eventsCopy(); ev.OnPlaying != nil {
		ev.OnPlaying()
	}
}

// FireEnded simulates the stream playing to completion.
func (m *Mock) FireEnded() {
	if ev := m.eventsCopy(); ev.OnEnded != nil {
		ev.OnEnded()
	}
}

// FireError simulates a decode or network failure on the element.
func (m *Mock) FireError(message string) {
	if ev := m.eventsCopy(); ev.OnError != nil {
		ev.OnError(message)
	}
}
