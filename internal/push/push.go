// Package push maintains the per-user real-time channel that delivers
// server-authoritative player events. The connection reconnects forever
// on transport failure with a fixed delay; consumers must treat the
// first READY/PLAYING after a reconnect as a fresh snapshot, never as a
// continuation of what was missed.
package push

import (
	"github.com/solenne/cadenza/internal/api"
)

// EventKind discriminates push messages.
type EventKind string

const (
	KindPlaying           EventKind = "PLAYING"
	KindReady             EventKind = "READY"
	KindPaused            EventKind = "PAUSED"
	KindAdvancingNext     EventKind = "ADVANCING_NEXT"
	KindAdvancingPrevious EventKind = "ADVANCING_PREVIOUS"
	KindQueueUpdated      EventKind = "QUEUE_UPDATED"
	KindError             EventKind = "ERROR"
)

// Message is one server-pushed event. PlayerState is present on state
// transitions, Message on errors.
type Message struct {
	Kind            EventKind        `json:"eventKind"`
	PlayerState     *api.PlayerState `json:"playerState"`
	Message         string           `json:"message"`
	TimestampMillis int64            `json:"timestampMillis"`
}

// subscribeFrame is sent once per connection to scope the subscription
// to a single user's player topic.
type subscribeFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}
