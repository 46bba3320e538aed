package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/solenne/cadenza/internal/api"
	"github.com/solenne/cadenza/internal/push"
)

func TestPlayTrack_AdoptsResponseWithoutTouchingElement(t *testing.T) {
	m := api.NewMock()
	m.StateResult = &api.PlayerState{CurrentTrackID: "abc"}
	e, element, _ := newTestEngine(m, m)

	if err := e.PlayTrack(t.Context(), "abc"); err != nil {
		t.Fatal(err)
	}

	// The stream URL arrives later via READY; the command itself must
	// not drive the element.
	if len(element.LoadCalls) != 0 || element.PlayCalls != 0 {
		t.Error("PlayTrack must not touch the element")
	}
	if !e.Local().IsBuffering {
		t.Error("IsBuffering should be true while awaiting READY")
	}
	if state := e.PlayerState(); state == nil || state.CurrentTrackID != "abc" {
		t.Errorf("state not adopted: %+v", state)
	}
}

func TestPlayTrack_FailureRecordsError(t *testing.T) {
	m := api.NewMock()
	m.Err = errors.New("boom")
	e, _, _ := newTestEngine(m, m)

	if err := e.PlayTrack(t.Context(), "abc"); err == nil {
		t.Fatal("expected error")
	}
	local := e.Local()
	if local.IsBuffering {
		t.Error("IsBuffering should clear on failure")
	}
	if local.LastError == "" {
		t.Error("LastError should be set")
	}
}

// orderedPlayer asserts the element was already paused when the
// backend pause command is issued.
type orderedPlayer struct {
	*api.Mock
	pausedAtCall func() int
	observed     int
}

func (p *orderedPlayer) Pause(ctx context.Context, userID int) (*api.PlayerState, error) {
	p.observed = p.pausedAtCall()
	return p.Mock.Pause(ctx, userID)
}

func TestTogglePlayback_PausesElementBeforeBackendCall(t *testing.T) {
	inner := api.NewMock()
	player := &orderedPlayer{Mock: inner}
	e, element, _ := newTestEngine(player, inner)
	player.pausedAtCall = func() int { return element.PauseCalls }

	e.adoptState(&api.PlayerState{CurrentTrackID: "abc", IsPlaying: true})

	if err := e.TogglePlayback(t.Context()); err != nil {
		t.Fatal(err)
	}
	if player.observed != 1 {
		t.Errorf("element pause calls at backend-call time = %d, want 1", player.observed)
	}
}

func TestTogglePlayback_ResumePlaysElementFirst(t *testing.T) {
	m := api.NewMock()
	e, element, _ := newTestEngine(m, m)
	e.adoptState(&api.PlayerState{CurrentTrackID: "abc", IsPlaying: false})

	if err := e.TogglePlayback(t.Context()); err != nil {
		t.Fatal(err)
	}
	if element.PlayCalls != 1 {
		t.Errorf("Play calls = %d, want 1", element.PlayCalls)
	}
	calls := m.Calls()
	if len(calls) != 1 || calls[0] != "play" {
		t.Errorf("backend calls = %v, want [play]", calls)
	}
}

func TestTogglePlayback_NoStateIsNoop(t *testing.T) {
	m := api.NewMock()
	e, element, _ := newTestEngine(m, m)

	if err := e.TogglePlayback(t.Context()); err != nil {
		t.Fatal(err)
	}
	if element.PlayCalls != 0 || element.PauseCalls != 0 {
		t.Error("no-state toggle must not touch the element")
	}
	if len(m.Calls()) != 0 {
		t.Errorf("backend calls = %v, want none", m.Calls())
	}
}

func TestNext_NoLocalTrackSwapUntilReady(t *testing.T) {
	m := api.NewMock()
	m.StateResult = &api.PlayerState{CurrentTrackID: "next-track"}
	e, element, _ := newTestEngine(m, m)
	ctx := t.Context()

	e.adoptState(&api.PlayerState{CurrentTrackID: "current"})

	if err := e.Next(ctx); err != nil {
		t.Fatal(err)
	}

	// The response is deliberately discarded: only the follow-up READY
	// swaps tracks.
	if state := e.PlayerState(); state.CurrentTrackID != "current" {
		t.Errorf("CurrentTrackID = %q, want current", state.CurrentTrackID)
	}
	if !e.Local().IsBuffering {
		t.Error("IsBuffering should hold until READY arrives")
	}
	if len(element.LoadCalls) != 0 {
		t.Error("Next must not load anything")
	}

	e.processPush(ctx, push.Message{
		Kind:        push.KindReady,
		PlayerState: &api.PlayerState{CurrentTrackID: "next-track", PlaybackURL: "http://x/n.mp3"},
	})
	if state := e.PlayerState(); state.CurrentTrackID != "next-track" {
		t.Errorf("CurrentTrackID = %q, want next-track", state.CurrentTrackID)
	}
	if len(element.LoadCalls) != 1 {
		t.Errorf("Load calls = %d, want 1", len(element.LoadCalls))
	}
}

func TestNext_FailureClearsBuffering(t *testing.T) {
	m := api.NewMock()
	m.Err = errors.New("boom")
	e, _, _ := newTestEngine(m, m)

	if err := e.Next(t.Context()); err == nil {
		t.Fatal("expected error")
	}
	if e.Local().IsBuffering {
		t.Error("IsBuffering should clear when the command fails")
	}
}

func TestSeekTo_OptimisticWithoutRollback(t *testing.T) {
	m := api.NewMock()
	e, element, _ := newTestEngine(m, m)

	e.SeekTo(t.Context(), 42)

	if len(element.SeekCalls) != 1 || element.SeekCalls[0] != 42*time.Second {
		t.Errorf("SeekCalls = %v", element.SeekCalls)
	}
	if got := e.Local().CurrentTimeSeconds; got != 42 {
		t.Errorf("CurrentTimeSeconds = %v, want 42", got)
	}
	if len(m.PositionArgs) != 1 || m.PositionArgs[0] != 42 {
		t.Errorf("PositionArgs = %v", m.PositionArgs)
	}

	// Backend failure never rolls the scrub back.
	m.Err = errors.New("boom")
	e.SeekTo(t.Context(), 50)
	if got := e.Local().CurrentTimeSeconds; got != 50 {
		t.Errorf("CurrentTimeSeconds = %v, want 50", got)
	}
}

func TestSetVolume_Clamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{150, 100},
	}

	for _, tt := range tests {
		m := api.NewMock()
		e, element, _ := newTestEngine(m, m)

		e.SetVolume(t.Context(), tt.in)

		if got := e.Local().Volume; got != tt.want {
			t.Errorf("SetVolume(%d): local volume = %d, want %d", tt.in, got, tt.want)
		}
		if len(m.VolumeArgs) != 1 || m.VolumeArgs[0] != tt.want {
			t.Errorf("SetVolume(%d): backend got %v, want [%d]", tt.in, m.VolumeArgs, tt.want)
		}
		wantLevel := float64(tt.want) / 100
		if len(element.VolumeSets) != 1 || element.VolumeSets[0] != wantLevel {
			t.Errorf("SetVolume(%d): element got %v, want [%v]", tt.in, element.VolumeSets, wantLevel)
		}
		if muted := e.Local().IsMuted; muted != (tt.want == 0) {
			t.Errorf("SetVolume(%d): IsMuted = %v", tt.in, muted)
		}
	}
}

func TestToggleMute_LocalOnly(t *testing.T) {
	m := api.NewMock()
	e, element, _ := newTestEngine(m, m)

	e.ToggleMute()
	if !e.Local().IsMuted {
		t.Error("IsMuted should be true")
	}
	e.ToggleMute()
	if e.Local().IsMuted {
		t.Error("IsMuted should be false again")
	}
	if len(element.MutedSets) != 2 {
		t.Errorf("MutedSets = %v", element.MutedSets)
	}
	if len(m.Calls()) != 0 {
		t.Errorf("mute must not reach the backend, got %v", m.Calls())
	}
}

func TestToggleFavorite(t *testing.T) {
	m := api.NewMock()
	m.FavoriteResult = &api.FavoriteResult{
		IsFavorite: true,
		State:      api.PlayerState{CurrentTrackID: "abc", IsFavorite: true},
	}
	e, _, _ := newTestEngine(m, m)

	// No current track: refused without a backend call.
	if err := e.ToggleFavorite(t.Context()); err == nil {
		t.Fatal("expected error without a current track")
	}
	if len(m.Calls()) != 0 {
		t.Errorf("backend calls = %v, want none", m.Calls())
	}

	e.adoptState(&api.PlayerState{CurrentTrackID: "abc"})
	if err := e.ToggleFavorite(t.Context()); err != nil {
		t.Fatal(err)
	}
	if !e.IsFavorite() {
		t.Error("IsFavorite() should be true after adoption")
	}
}

func TestQueueCommands_ReplaceProjectionWholesale(t *testing.T) {
	m := api.NewMock()
	m.QueueOpResult = &api.QueueResult{
		Queue: api.QueueSnapshot{
			Tracks: []api.TrackSummary{{TrackID: "c"}, {TrackID: "a"}, {TrackID: "b"}},
			Size:   3,
		},
	}
	e, _, _ := newTestEngine(m, m)
	ctx := t.Context()

	if err := e.AppendToQueue(ctx, []string{"a"}, false); err != nil {
		t.Fatal(err)
	}

	queue := e.Queue()
	if queue == nil || len(queue.Tracks) != 3 {
		t.Fatalf("queue = %+v", queue)
	}
	// Order is exactly what the response specified; no client-side
	// reordering.
	for i, want := range []string{"c", "a", "b"} {
		if queue.Tracks[i].TrackID != want {
			t.Errorf("Tracks[%d] = %q, want %q", i, queue.Tracks[i].TrackID, want)
		}
	}

	if err := e.RemoveFromQueue(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.ReorderQueue(ctx, 0, 2); err != nil {
		t.Fatal(err)
	}
	if err := e.SetPlaybackMode(ctx, api.ModeShuffle); err != nil {
		t.Fatal(err)
	}

	want := []string{"append", "removeItem", "reorder", "setMode"}
	calls := m.Calls()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestClearQueue_Idempotent(t *testing.T) {
	m := api.NewMock()
	m.QueueOpResult = &api.QueueResult{
		Queue: api.QueueSnapshot{Tracks: []api.TrackSummary{{TrackID: "a"}}, Size: 1},
	}
	e, element, _ := newTestEngine(m, m)
	ctx := t.Context()

	e.adoptState(&api.PlayerState{CurrentTrackID: "a", IsPlaying: true})
	if err := e.AppendToQueue(ctx, []string{"a"}, true); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := e.ClearQueue(ctx); err != nil {
			t.Fatalf("ClearQueue #%d: %v", i+1, err)
		}
		if e.PlayerState() != nil {
			t.Error("PlayerState should be nil after clear")
		}
		if e.Queue() != nil {
			t.Error("Queue should be nil after clear")
		}
	}
	if element.PauseCalls != 2 || element.ClearCalls != 2 {
		t.Errorf("Pause = %d, Clear = %d, want 2 each", element.PauseCalls, element.ClearCalls)
	}
}

// blockingPlayer parks SetPosition until released so reconciliation
// overlap can be provoked.
type blockingPlayer struct {
	*api.Mock
	release chan struct{}
	calls   atomic.Int32
}

func (p *blockingPlayer) SetPosition(_ context.Context, _, _ int) (*api.PlayerState, error) {
	p.calls.Add(1)
	<-p.release
	return &api.PlayerState{}, nil
}

func TestReconcile_ReentrancyGuard(t *testing.T) {
	inner := api.NewMock()
	player := &blockingPlayer{Mock: inner, release: make(chan struct{})}
	e, _, _ := newTestEngine(player, inner)
	ctx := t.Context()

	e.adoptState(&api.PlayerState{CurrentTrackID: "abc", IsPlaying: true})

	started := make(chan struct{})
	go func() {
		close(started)
		e.reconcile(ctx)
	}()
	<-started
	waitFor(t, func() bool { return player.calls.Load() == 1 })

	// Rapid repeated ticks while one sync is in flight are skipped
	// silently, not queued.
	for i := 0; i < 5; i++ {
		e.reconcile(ctx)
	}
	if got := player.calls.Load(); got != 1 {
		t.Errorf("SetPosition calls = %d, want 1", got)
	}

	close(player.release)
	waitFor(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return !e.reconciling
	})

	e.reconcile(ctx)
	if got := player.calls.Load(); got != 2 {
		t.Errorf("SetPosition calls = %d, want 2 after release", got)
	}
}

func TestReconcile_SkipsWhenIdleOrPaused(t *testing.T) {
	m := api.NewMock()
	e, _, _ := newTestEngine(m, m)
	ctx := t.Context()

	e.reconcile(ctx)

	e.adoptState(&api.PlayerState{CurrentTrackID: "abc", IsPlaying: false})
	e.reconcile(ctx)

	if calls := m.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
