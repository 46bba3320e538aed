// Package media wraps the audio playback primitive behind an element
// interface modeled after a browser media element: load a stream URL,
// then drive it with play/pause/seek/volume while observing its events.
package media

import (
	"context"
	"time"
)

// Events are the element callbacks. Exactly one subscriber (the sync
// engine) is assumed; this is not a general pub/sub.
type Events struct {
	OnTimeUpdate    func(position time.Duration)
	OnMetadataReady func(duration time.Duration)
	OnBuffering     func()
	OnPlaying       func()
	OnEnded         func()
	OnError         func(message string)
}

// Element is the playback-element contract for dependency injection and
// testing.
type Element interface {
	// Load assigns a new source and blocks until enough data is
	// buffered to play, or until a bounded timeout elapses. The timeout
	// path returns nil so a slow stream can never wedge playback
	// intent; loading then finishes in the background.
	Load(ctx context.Context, url string) error
	// Play starts or resumes playback. Errors surface to the caller
	// (no source, decode failure).
	Play() error
	Pause()
	SetCurrentTime(position time.Duration)
	// SetVolume takes a normalized level in [0,1].
	SetVolume(level float64)
	SetMuted(muted bool)
	// ClearSource stops playback and drops the current stream.
	ClearSource()

	Position() time.Duration
	Duration() time.Duration

	SetEvents(ev Events)
	Close() error
}

// readyTimeout bounds how long Load waits for the stream to become
// playable before resolving anyway.
const readyTimeout = 5 * time.Second

// timeUpdateInterval is the cadence of OnTimeUpdate callbacks while a
// stream is playing.
const timeUpdateInterval = 500 * time.Millisecond
