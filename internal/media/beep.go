package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// The speaker is a process-wide resource and is initialized once with
// the sample rate of the first decoded stream.
var (
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// BeepElement is the speaker-backed Element implementation. Streams are
// fetched over HTTP, buffered in memory and decoded with beep, which
// gives the element full seek support.
type BeepElement struct {
	mu         sync.Mutex
	httpClient *http.Client
	events     Events

	// gen invalidates in-flight loads and stale finish callbacks after
	// ClearSource or a superseding Load.
	gen int

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	duration time.Duration

	loaded        bool
	loading       bool
	started       bool // seq handed to the speaker
	paused        bool
	playWhenReady bool

	volumeLevel float64
	muted       bool

	done chan struct{}
}

// Verify BeepElement implements Element at compile time.
var _ Element = (*BeepElement)(nil)

// NewBeepElement creates an element. The time-update loop runs until
// Close.
func NewBeepElement() *BeepElement {
	e := &BeepElement{
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
		volumeLevel: 1,
		done:        make(chan struct{}),
	}
	go e.timeUpdateLoop()
	return e
}

// SetEvents installs the single event subscriber.
func (e *BeepElement) SetEvents(ev Events) {
	e.mu.Lock()
	e.events = ev
	e.mu.Unlock()
}

// Load fetches and decodes url. It returns once the stream is playable,
// on decode/fetch failure, or after readyTimeout, whichever comes
// first. The timeout path returns nil and the load finishes in the
// background; a Play issued meanwhile starts playback as soon as the
// stream is ready.
func (e *BeepElement) Load(ctx context.Context, url string) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.stopLocked()
	e.loading = true
	e.playWhenReady = false
	onBuffering := e.events.OnBuffering
	e.mu.Unlock()

	if onBuffering != nil {
		onBuffering()
	}

	ready := make(chan error, 1)
	go e.fetchAndPrepare(ctx, url, gen, ready)

	select {
	case err := <-ready:
		return err
	case <-time.After(readyTimeout):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *BeepElement) fetchAndPrepare(ctx context.Context, url string, gen int, ready chan<- error) {
	fail := func(err error) {
		e.mu.Lock()
		current := gen == e.gen
		if current {
			e.loading = false
		}
		onError := e.events.OnError
		e.mu.Unlock()

		if current && onError != nil {
			onError(err.Error())
		}
		ready <- err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		fail(fmt.Errorf("create request: %w", err))
		return
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		fail(fmt.Errorf("fetch stream: %w", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("stream returned status %d", resp.StatusCode))
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fail(fmt.Errorf("read stream: %w", err))
		return
	}

	streamer, format, err := decodeStream(resp.Header.Get("Content-Type"), url, data)
	if err != nil {
		fail(fmt.Errorf("decode stream: %w", err))
		return
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		streamer.Close()
		ready <- fmt.Errorf("load superseded")
		return
	}

	if !speakerInitialized {
		speakerSampleRate = format.SampleRate
		if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			e.loading = false
			e.mu.Unlock()
			streamer.Close()
			ready <- fmt.Errorf("init speaker: %w", err)
			return
		}
		speakerInitialized = true
	}

	e.streamer = streamer
	e.format = format
	e.duration = format.SampleRate.D(streamer.Len())
	e.ctrl = &beep.Ctrl{Streamer: streamer}

	var chained beep.Streamer = e.ctrl
	if format.SampleRate != speakerSampleRate {
		chained = beep.Resample(4, format.SampleRate, speakerSampleRate, e.ctrl)
	}
	e.volume = &effects.Volume{
		Streamer: chained,
		Base:     2,
		Volume:   levelToVolume(e.volumeLevel),
		Silent:   e.muted,
	}

	e.loaded = true
	e.loading = false
	wantPlay := e.playWhenReady
	e.playWhenReady = false
	duration := e.duration
	onMetadata := e.events.OnMetadataReady
	e.mu.Unlock()

	if onMetadata != nil {
		onMetadata(duration)
	}
	ready <- nil

	if wantPlay {
		_ = e.playGen(gen)
	}
}

// Play starts or resumes playback. Calling Play while a load is still
// in flight defers the start until the stream is ready.
func (e *BeepElement) Play() error {
	e.mu.Lock()
	if !e.loaded {
		if e.loading {
			e.playWhenReady = true
			e.mu.Unlock()
			return nil
		}
		e.mu.Unlock()
		return fmt.Errorf("no source loaded")
	}
	gen := e.gen
	e.mu.Unlock()
	return e.playGen(gen)
}

func (e *BeepElement) playGen(gen int) error {
	e.mu.Lock()
	if gen != e.gen || !e.loaded {
		e.mu.Unlock()
		return fmt.Errorf("no source loaded")
	}

	switch {
	case e.started && e.paused:
		speaker.Lock()
		e.ctrl.Paused = false
		speaker.Unlock()
		e.paused = false
	case !e.started:
		e.started = true
		e.paused = false
		final := e.volume
		speaker.Play(beep.Seq(final, beep.Callback(func() {
			e.handleFinished(gen)
		})))
	}
	onPlaying := e.events.OnPlaying
	e.mu.Unlock()

	if onPlaying != nil {
		onPlaying()
	}
	return nil
}

// handleFinished runs inside the speaker callback; hand the event off so
// the subscriber never blocks audio mixing.
func (e *BeepElement) handleFinished(gen int) {
	go func() {
		e.mu.Lock()
		if gen != e.gen {
			e.mu.Unlock()
			return
		}
		e.started = false
		e.paused = false
		onEnded := e.events.OnEnded
		e.mu.Unlock()

		if onEnded != nil {
			onEnded()
		}
	}()
}

// Pause halts playback without releasing the stream.
func (e *BeepElement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.paused || e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.paused = true
}

// SetCurrentTime seeks the stream, clamped to its bounds.
func (e *BeepElement) SetCurrentTime(position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return
	}
	sample := e.format.SampleRate.N(position)
	if sample < 0 {
		sample = 0
	}
	if max := e.streamer.Len() - 1; sample > max {
		sample = max
	}
	speaker.Lock()
	_ = e.streamer.Seek(sample)
	speaker.Unlock()
}

// SetVolume sets the playback volume from a normalized [0,1] level.
func (e *BeepElement) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.volumeLevel = level
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.volume.Volume = levelToVolume(level)
	speaker.Unlock()
}

// SetMuted silences output without losing the volume level.
func (e *BeepElement) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.volume.Silent = muted
	speaker.Unlock()
}

// ClearSource stops playback and drops the stream.
func (e *BeepElement) ClearSource() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.stopLocked()
}

func (e *BeepElement) stopLocked() {
	if e.started {
		speaker.Clear()
	}
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	e.ctrl = nil
	e.volume = nil
	e.duration = 0
	e.loaded = false
	e.loading = false
	e.started = false
	e.paused = false
	e.playWhenReady = false
}

// Position returns the playback position of the current stream.
func (e *BeepElement) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.format.SampleRate.D(e.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the total duration of the current stream.
func (e *BeepElement) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Close stops the element permanently.
func (e *BeepElement) Close() error {
	e.ClearSource()
	close(e.done)
	return nil
}

func (e *BeepElement) timeUpdateLoop() {
	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		if !e.started || e.paused || e.streamer == nil {
			e.mu.Unlock()
			continue
		}
		speaker.Lock()
		pos := e.format.SampleRate.D(e.streamer.Position())
		speaker.Unlock()
		onTime := e.events.OnTimeUpdate
		e.mu.Unlock()

		if onTime != nil {
			onTime(pos)
		}
	}
}

// decodeStream picks a decoder from the content type, falling back to
// the URL extension, and defaults to MP3 (what the backend serves for
// cached streams).
func decodeStream(contentType, url string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	ct := strings.ToLower(contentType)
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))

	if strings.Contains(ct, "flac") || ext == ".flac" {
		return flac.Decode(bytes.NewReader(data))
	}
	return mp3.Decode(&nopReadSeekCloser{bytes.NewReader(data)})
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (*nopReadSeekCloser) Close() error { return nil }

// levelToVolume converts a 0.0-1.0 level to beep's logarithmic Volume
// value: 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (essentially silent).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
