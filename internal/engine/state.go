package engine

import (
	"fmt"
	"math"
)

// LocalState is the client-only playback state. Its time and duration
// fields are owned exclusively by the media element's event callbacks;
// server positions are only applied at load time.
type LocalState struct {
	CurrentTimeSeconds float64
	DurationSeconds    float64
	Volume             int // 0..100
	IsMuted            bool
	IsBuffering        bool
	LastError          string
}

const defaultVolume = 80

// formatTime renders seconds as m:ss, with 0:00 for unknown values.
func formatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds <= 0 {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// clampVolume bounds a volume to the backend's 0..100 range.
func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
