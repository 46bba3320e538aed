package engine

import "github.com/solenne/cadenza/internal/api"

// Read-only projections. Consumers never receive references into the
// engine's own state.

// PlayerState returns a copy of the authoritative state, or nil when no
// track is loaded.
func (e *Engine) PlayerState() *api.PlayerState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return nil
	}
	s := *e.state
	return &s
}

// Local returns a copy of the client-only playback state.
func (e *Engine) Local() LocalState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.local
}

// Progress returns the playback progress as a percentage of the
// element's duration, 0 when no duration is known.
func (e *Engine) Progress() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.local.DurationSeconds == 0 {
		return 0
	}
	return e.local.CurrentTimeSeconds / e.local.DurationSeconds * 100
}

// FormattedPosition returns the current position as m:ss.
func (e *Engine) FormattedPosition() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return formatTime(e.local.CurrentTimeSeconds)
}

// FormattedDuration returns the element duration as m:ss.
func (e *Engine) FormattedDuration() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return formatTime(e.local.DurationSeconds)
}

// IsFavorite reports whether the current track is a favorite.
func (e *Engine) IsFavorite() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state != nil && e.state.IsFavorite
}

// Queue returns a copy of the queue projection, or nil when no queue is
// known.
func (e *Engine) Queue() *api.QueueSnapshot {
	return e.cache.Get()
}

// IsConnected reports the push-channel transport state.
func (e *Engine) IsConnected() bool {
	return e.channel.IsConnected()
}
