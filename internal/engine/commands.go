package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/solenne/cadenza/internal/api"
)

// User commands. Local effects are applied optimistically where it
// keeps the UI responsive; the backend's returned state remains the
// final authority, and optimistic changes are never rolled back on
// command failure.

// PlayTrack asks the backend to start playing trackID. The playable URL
// arrives later through a READY push event, so no element call happens
// here.
func (e *Engine) PlayTrack(ctx context.Context, trackID string) error {
	e.setBuffering(true)
	state, err := e.player.PlayTrack(ctx, e.userID, trackID)
	if err != nil {
		e.recordError("play track", err)
		return err
	}
	e.adoptState(state)
	return nil
}

// PlayFromSearch starts playback of a search result; the backend builds
// the queue from the surrounding results.
func (e *Engine) PlayFromSearch(ctx context.Context, trackID, searchTerm string, indexInSearch int) error {
	e.setBuffering(true)
	state, err := e.player.PlayFromSearch(ctx, e.userID, trackID, searchTerm, indexInSearch)
	if err != nil {
		e.recordError("play from search", err)
		return err
	}
	e.adoptState(state)
	return nil
}

// TogglePlayback pauses or resumes. The element is driven first so the
// user hears the change immediately; the backend response then replaces
// the authoritative state.
func (e *Engine) TogglePlayback(ctx context.Context) error {
	current := e.PlayerState()
	if current == nil {
		return nil
	}

	var (
		state *api.PlayerState
		err   error
	)
	if current.IsPlaying {
		e.element.Pause()
		state, err = e.player.Pause(ctx, e.userID)
	} else {
		if playErr := e.element.Play(); playErr != nil {
			e.recordError("start playback", playErr)
			return playErr
		}
		state, err = e.player.Play(ctx, e.userID)
	}
	if err != nil {
		e.logger.Warn("toggle playback sync failed", "err", err)
		return err
	}
	e.adoptState(state)
	return nil
}

// Next advances the queue. The engine never swaps tracks locally: it
// stays buffering until the follow-up READY event delivers the new
// stream, so there is only ever one source of truth about what comes
// next.
func (e *Engine) Next(ctx context.Context) error {
	e.setBuffering(true)
	if _, err := e.player.Next(ctx, e.userID); err != nil {
		e.setBuffering(false)
		e.logger.Warn("advance failed", "err", err)
		return err
	}
	return nil
}

// Previous moves back one queue entry; same contract as Next.
func (e *Engine) Previous(ctx context.Context) error {
	e.setBuffering(true)
	if _, err := e.player.Previous(ctx, e.userID); err != nil {
		e.setBuffering(false)
		e.logger.Warn("rewind failed", "err", err)
		return err
	}
	return nil
}

// SeekTo scrubs the element immediately and notifies the backend as a
// soft sync: a failed notification is logged, never rolled back.
func (e *Engine) SeekTo(ctx context.Context, seconds float64) {
	e.element.SetCurrentTime(time.Duration(seconds * float64(time.Second)))
	e.mu.Lock()
	e.local.CurrentTimeSeconds = seconds
	e.mu.Unlock()
	e.emitLocal()

	if _, err := e.player.SetPosition(ctx, e.userID, int(seconds)); err != nil {
		e.logger.Warn("position sync failed", "err", err)
	}
}

// SetVolume clamps to [0,100], applies the normalized level to the
// element immediately and notifies the backend as a soft sync.
func (e *Engine) SetVolume(ctx context.Context, volume int) {
	volume = clampVolume(volume)
	e.element.SetVolume(float64(volume) / 100)

	e.mu.Lock()
	e.local.Volume = volume
	e.local.IsMuted = volume == 0
	e.mu.Unlock()
	e.emitLocal()

	if _, err := e.player.SetVolume(ctx, e.userID, volume); err != nil {
		e.logger.Warn("volume sync failed", "err", err)
	}
}

// ToggleMute flips mute on the element only; mute is a client-side
// concern the backend never sees.
func (e *Engine) ToggleMute() {
	e.mu.Lock()
	e.local.IsMuted = !e.local.IsMuted
	muted := e.local.IsMuted
	e.mu.Unlock()
	e.element.SetMuted(muted)
	e.emitLocal()
}

// ToggleFavorite flips the favorite flag of the current track and
// adopts the returned state.
func (e *Engine) ToggleFavorite(ctx context.Context) error {
	current := e.PlayerState()
	if current == nil || current.CurrentTrackID == "" {
		return fmt.Errorf("no current track")
	}
	result, err := e.player.ToggleFavorite(ctx, e.userID)
	if err != nil {
		e.logger.Warn("favorite toggle failed", "err", err)
		return err
	}
	e.adoptState(&result.State)
	return nil
}

// Queue commands. Every response carries the new canonical queue, which
// replaces the projection wholesale.

// AppendToQueue adds tracks to the queue; with playNow the first one
// starts immediately.
func (e *Engine) AppendToQueue(ctx context.Context, trackIDs []string, playNow bool) error {
	result, err := e.queue.Append(ctx, e.userID, trackIDs, playNow)
	if err != nil {
		return err
	}
	e.cache.Replace(&result.Queue)
	e.emitQueue()
	return nil
}

// RemoveFromQueue removes the entry at index.
func (e *Engine) RemoveFromQueue(ctx context.Context, index int) error {
	result, err := e.queue.RemoveItem(ctx, e.userID, index)
	if err != nil {
		return err
	}
	e.cache.Replace(&result.Queue)
	e.emitQueue()
	return nil
}

// ReorderQueue moves the entry at fromIndex to toIndex.
func (e *Engine) ReorderQueue(ctx context.Context, fromIndex, toIndex int) error {
	result, err := e.queue.Reorder(ctx, e.userID, fromIndex, toIndex)
	if err != nil {
		return err
	}
	e.cache.Replace(&result.Queue)
	e.emitQueue()
	return nil
}

// SetPlaybackMode changes how the queue advances.
func (e *Engine) SetPlaybackMode(ctx context.Context, mode api.PlaybackMode) error {
	result, err := e.queue.SetMode(ctx, e.userID, mode)
	if err != nil {
		return err
	}
	e.cache.Replace(&result.Queue)
	e.emitQueue()
	return nil
}

// ClearQueue empties the queue. An empty queue implies no player state:
// playback halts, the element source is dropped and the authoritative
// state becomes nil. Idempotent.
func (e *Engine) ClearQueue(ctx context.Context) error {
	if err := e.queue.Clear(ctx, e.userID); err != nil {
		return err
	}
	e.cache.Clear()
	e.element.Pause()
	e.element.ClearSource()
	e.adoptState(nil)
	e.emitQueue()
	return nil
}

// RefreshQueue refetches the queue snapshot from the backend.
func (e *Engine) RefreshQueue(ctx context.Context) error {
	queue, err := e.queue.Queue(ctx, e.userID)
	if err != nil {
		return err
	}
	e.cache.Replace(queue)
	e.emitQueue()
	return nil
}

func (e *Engine) setBuffering(buffering bool) {
	e.mu.Lock()
	e.local.IsBuffering = buffering
	if buffering {
		e.local.LastError = ""
	}
	e.mu.Unlock()
	e.emitLocal()
}
