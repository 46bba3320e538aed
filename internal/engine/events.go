package engine

import "github.com/solenne/cadenza/internal/api"

// StateChange is emitted whenever the authoritative player state is
// replaced. State is nil after the queue is cleared or at teardown.
type StateChange struct {
	State *api.PlayerState
}

// LocalChange is emitted when the client-only playback state moves
// (time progress, buffering, volume, errors).
type LocalChange struct {
	Local LocalState
}

// QueueChange is emitted when the queue projection is replaced.
// Queue is nil after the queue is cleared.
type QueueChange struct {
	Queue *api.QueueSnapshot
}

// ConnectionChange is emitted when the push channel connects or drops.
type ConnectionChange struct {
	Connected bool
}

// ErrorEvent is emitted when an operation fails in a way that is
// absorbed into state rather than returned to a caller.
type ErrorEvent struct {
	Operation string
	Err       error
}
