// Package api provides the JSON command client for the backend player
// session. All commands are request/response; real-time state flows in
// separately over the push channel.
package api

// SourceKind identifies how the backend resolved the current stream.
type SourceKind string

const (
	SourceStreamOnline   SourceKind = "STREAM_ONLINE"
	SourceLocalFile      SourceKind = "LOCAL_FILE"
	SourceStreamExternal SourceKind = "STREAM_EXTERNAL"
	SourceCachedPrimary  SourceKind = "CACHED_PRIMARY"
	SourceExternalDirect SourceKind = "EXTERNAL_DIRECT"
)

// PlaybackMode defines how the queue advances.
type PlaybackMode string

const (
	ModeNormal    PlaybackMode = "NORMAL"
	ModeShuffle   PlaybackMode = "SHUFFLE"
	ModeRepeatAll PlaybackMode = "REPEAT_ALL"
	ModeRepeatOne PlaybackMode = "REPEAT_ONE"
)

// PlayerState is the server-authoritative snapshot of the player session.
// It is replaced wholesale on every push event or command response, never
// mutated field by field.
type PlayerState struct {
	CurrentTrackID  string       `json:"currentTrackId"`
	Title           string       `json:"title"`
	Channel         string       `json:"channel"`
	ThumbnailURL    string       `json:"thumbnailUrl"`
	DurationSeconds float64      `json:"durationSeconds"`
	IsPlaying       bool         `json:"isPlaying"`
	PositionSeconds float64      `json:"positionSeconds"`
	Volume          int          `json:"volume"`
	IsFavorite      bool         `json:"isFavorite"`
	PlaybackURL     string       `json:"playbackUrl"`
	SourceKind      SourceKind   `json:"playbackSourceKind"`
	QueueIndex      int          `json:"queueIndex"`
	QueueSize       int          `json:"queueSize"`
	HasNext         bool         `json:"hasNext"`
	HasPrevious     bool         `json:"hasPrevious"`
	PlaybackMode    PlaybackMode `json:"playbackMode"`
}

// TrackSummary describes one queue entry.
type TrackSummary struct {
	TrackID         string `json:"trackId"`
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	DurationSeconds int    `json:"durationSeconds"`
	DurationText    string `json:"durationText"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	IsExplicit      bool   `json:"isExplicit"`
}

// QueueSnapshot is the full server-side queue. Like PlayerState it is
// only ever replaced wholesale.
type QueueSnapshot struct {
	UserID       int            `json:"userId"`
	Tracks       []TrackSummary `json:"tracks"`
	CurrentIndex int            `json:"currentIndex"`
	Size         int            `json:"size"`
	PlaybackMode PlaybackMode   `json:"playbackMode"`
	SearchTerm   string         `json:"searchTerm,omitempty"`
}

// FavoriteResult is the response of the favorite toggle command.
type FavoriteResult struct {
	Message    string      `json:"message"`
	IsFavorite bool        `json:"isFavorite"`
	State      PlayerState `json:"state"`
}

// QueueResult is the response of every queue-mutating command except
// clear: the new canonical queue.
type QueueResult struct {
	Message string        `json:"message"`
	Queue   QueueSnapshot `json:"queue"`
}
