// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackToggle Op = "toggle playback"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackVolume Op = "change volume"
	OpPlaybackNext   Op = "skip to next track"
	OpPlaybackPrev   Op = "go back to previous track"

	// Queue operations
	OpQueueLoad    Op = "load queue"
	OpQueueAppend  Op = "add to queue"
	OpQueueRemove  Op = "remove from queue"
	OpQueueReorder Op = "reorder queue"
	OpQueueClear   Op = "clear queue"
	OpQueueMode    Op = "change playback mode"

	// Favorites
	OpFavoriteToggle Op = "update favorites"

	// Connection
	OpChannelConnect Op = "connect player channel"
	OpStreamLoad     Op = "load stream"

	// Session
	OpSessionLoad Op = "load session"
	OpSessionSave Op = "save session"

	// Initialization
	OpInitialize Op = "initialize player"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
