package api

import (
	"context"
	"sync"
)

// Mock is a test double for the command client. Every call is recorded
// by name; responses are configurable per surface.
type Mock struct {
	mu    sync.Mutex
	calls []string

	// Recorded arguments for commands whose payloads tests assert on.
	VolumeArgs   []int
	PositionArgs []int

	StateResult    *PlayerState
	SnapshotResult *QueueSnapshot
	FavoriteResult *FavoriteResult
	QueueOpResult  *QueueResult
	Err            error
}

// NewMock creates a mock command client returning empty successful
// responses until configured otherwise.
func NewMock() *Mock {
	return &Mock{
		StateResult:    &PlayerState{},
		SnapshotResult: &QueueSnapshot{},
		FavoriteResult: &FavoriteResult{},
		QueueOpResult:  &QueueResult{},
	}
}

// Calls returns the recorded command names in invocation order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *Mock) state(name string) (*PlayerState, error) {
	m.record(name)
	if m.Err != nil {
		return nil, m.Err
	}
	s := *m.StateResult
	return &s, nil
}

func (m *Mock) State(_ context.Context, _ int) (*PlayerState, error) {
	return m.state("state")
}

func (m *Mock) PlayTrack(_ context.Context, _ int, _ string) (*PlayerState, error) {
	return m.state("playTrack")
}

func (m *Mock) PlayFromSearch(_ context.Context, _ int, _, _ string, _ int) (*PlayerState, error) {
	return m.state("playFromSearch")
}

func (m *Mock) Play(_ context.Context, _ int) (*PlayerState, error) {
	return m.state("play")
}

func (m *Mock) Pause(_ context.Context, _ int) (*PlayerState, error) {
	return m.state("pause")
}

func (m *Mock) Next(_ context.Context, _ int) (*PlayerState, error) {
	return m.state("next")
}

func (m *Mock) Previous(_ context.Context, _ int) (*PlayerState, error) {
	return m.state("previous")
}

func (m *Mock) SetVolume(_ context.Context, _, volume int) (*PlayerState, error) {
	m.record("setVolume")
	m.mu.Lock()
	m.VolumeArgs = append(m.VolumeArgs, volume)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s := *m.StateResult
	return &s, nil
}

func (m *Mock) SetPosition(_ context.Context, _, positionSeconds int) (*PlayerState, error) {
	m.record("setPosition")
	m.mu.Lock()
	m.PositionArgs = append(m.PositionArgs, positionSeconds)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s := *m.StateResult
	return &s, nil
}

func (m *Mock) ToggleFavorite(_ context.Context, _ int) (*FavoriteResult, error) {
	m.record("toggleFavorite")
	if m.Err != nil {
		return nil, m.Err
	}
	r := *m.FavoriteResult
	return &r, nil
}

func (m *Mock) Queue(_ context.Context, _ int) (*QueueSnapshot, error) {
	m.record("queue")
	if m.Err != nil {
		return nil, m.Err
	}
	q := *m.SnapshotResult
	return &q, nil
}

func (m *Mock) Append(_ context.Context, _ int, _ []string, _ bool) (*QueueResult, error) {
	return m.queueOp("append")
}

func (m *Mock) RemoveItem(_ context.Context, _, _ int) (*QueueResult, error) {
	return m.queueOp("removeItem")
}

func (m *Mock) Clear(_ context.Context, _ int) error {
	m.record("clear")
	return m.Err
}

func (m *Mock) Reorder(_ context.Context, _, _, _ int) (*QueueResult, error) {
	return m.queueOp("reorder")
}

func (m *Mock) SetMode(_ context.Context, _ int, _ PlaybackMode) (*QueueResult, error) {
	return m.queueOp("setMode")
}

func (m *Mock) queueOp(name string) (*QueueResult, error) {
	m.record(name)
	if m.Err != nil {
		return nil, m.Err
	}
	r := *m.QueueOpResult
	return &r, nil
}

// Verify Mock implements both command surfaces at compile time.
var (
	_ PlayerCommands = (*Mock)(nil)
	_ QueueCommands  = (*Mock)(nil)
)
