package engine

import (
	"context"

	"github.com/solenne/cadenza/internal/push"
)

// processPush applies one server-pushed event. Events from a single
// connection arrive in send order; after a reconnect the next
// READY/PLAYING is treated as a fresh snapshot, never diffed against
// pre-disconnect state.
func (e *Engine) processPush(ctx context.Context, msg push.Message) {
	switch msg.Kind {
	case push.KindPlaying:
		e.mu.Lock()
		e.local.IsBuffering = true
		e.mu.Unlock()
		e.emitLocal()
		if msg.PlayerState != nil {
			e.adoptState(msg.PlayerState)
		}

	case push.KindReady:
		if msg.PlayerState == nil {
			e.logger.Warn("ready event without state")
			return
		}
		e.mu.Lock()
		e.local.IsBuffering = false
		e.local.LastError = ""
		e.mu.Unlock()
		e.emitLocal()
		e.adoptState(msg.PlayerState)

		if msg.PlayerState.PlaybackURL == "" {
			// Contract violation on the backend side; stay in the
			// loading state and wait for the next event.
			e.logger.Warn("ready event without playback url")
			return
		}
		e.loadAndPlay(ctx, msg.PlayerState.PlaybackURL)

	case push.KindPaused:
		if msg.PlayerState != nil {
			e.adoptState(msg.PlayerState)
			e.element.Pause()
		}

	case push.KindAdvancingNext, push.KindAdvancingPrevious:
		// The follow-up READY carries the new track.
		e.mu.Lock()
		e.local.IsBuffering = true
		e.mu.Unlock()
		e.emitLocal()

	case push.KindQueueUpdated:
		if msg.PlayerState == nil {
			return
		}
		e.adoptState(msg.PlayerState)
		if !msg.PlayerState.IsPlaying {
			e.element.Pause()
		} else if msg.PlayerState.PlaybackURL != "" {
			if err := e.element.Play(); err != nil {
				e.logger.Warn("resume after queue update failed", "err", err)
			}
		}

	case push.KindError:
		message := msg.Message
		if message == "" {
			message = "unknown player error"
		}
		e.mu.Lock()
		e.local.IsBuffering = false
		e.local.LastError = message
		e.mu.Unlock()
		e.emitLocal()
		e.logger.Error("server player error", "err", message)

	default:
		e.logger.Warn("unknown push event kind", "kind", msg.Kind)
	}
}

// loadAndPlay loads the resolved stream into the element and starts it.
// Failures are absorbed into LocalState per the element error policy.
func (e *Engine) loadAndPlay(ctx context.Context, url string) {
	if err := e.element.Load(ctx, e.resolveURL(url)); err != nil {
		e.recordError("load stream", err)
		return
	}
	if err := e.element.Play(); err != nil {
		e.recordError("start playback", err)
	}
}
