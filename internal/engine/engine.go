// Package engine owns the canonical view of "what is playing". It is
// the single writer of the authoritative PlayerState and the client
// LocalState, merging push-channel events, media-element events and
// user commands, plus a periodic position
// reconciliation, into one consistent projection for consumers.
//
// Conflict policy: the last received authoritative PlayerState wins,
// regardless of source. No sequence numbers or version stamps are used;
// a stale command response arriving after a newer push event can in
// principle regress the view until the next event (known gap, see
// DESIGN.md).
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/solenne/cadenza/internal/api"
	"github.com/solenne/cadenza/internal/media"
	"github.com/solenne/cadenza/internal/push"
	"github.com/solenne/cadenza/internal/queuecache"
)

const reconcileInterval = 10 * time.Second

// PushChannel is the push-client surface the engine consumes.
type PushChannel interface {
	Connect(userID int)
	Disconnect()
	Events() <-chan push.Message
	ConnectionState() <-chan bool
	IsConnected() bool
}

// Options configures a new Engine.
type Options struct {
	UserID  int
	Player  api.PlayerCommands
	Queue   api.QueueCommands
	Element media.Element
	Channel PushChannel
	// BaseURL resolves relative playback URLs delivered by the backend.
	BaseURL string
	Logger  *log.Logger
}

// Engine is the integrated player synchronization engine. Construct one
// per session with New, start it with Initialize and release it with
// Close.
type Engine struct {
	mu sync.RWMutex

	userID  int
	player  api.PlayerCommands
	queue   api.QueueCommands
	element media.Element
	channel PushChannel
	cache   *queuecache.Cache
	baseURL string
	logger  *log.Logger

	state *api.PlayerState
	local LocalState

	// reconciling guards the periodic position sync: overlapping runs
	// are skipped, never queued.
	reconciling bool

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates an engine and takes exclusive ownership of the media
// element. Nothing else may call play/pause/seek on it.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		userID:  opts.UserID,
		player:  opts.Player,
		queue:   opts.Queue,
		element: opts.Element,
		channel: opts.Channel,
		cache:   queuecache.New(),
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		logger:  logger.With("component", "engine"),
		local:   LocalState{Volume: defaultVolume},
		done:    make(chan struct{}),
	}
	e.element.SetEvents(media.Events{
		OnTimeUpdate:    e.onTimeUpdate,
		OnMetadataReady: e.onMetadataReady,
		OnBuffering:     e.onBuffering,
		OnPlaying:       e.onPlaying,
		OnEnded:         e.onEnded,
		OnError:         e.onElementError,
	})
	return e
}

// Initialize connects the push channel, adopts the backend's current
// state (resuming mid-track playback when the session was already
// playing), fetches the queue snapshot and starts the background loops.
func (e *Engine) Initialize(ctx context.Context) error {
	e.channel.Connect(e.userID)
	go e.pushLoop(ctx)
	go e.reconcileLoop(ctx)

	state, err := e.player.State(ctx, e.userID)
	if err != nil {
		return err
	}
	e.adoptState(state)

	if state.PlaybackURL != "" {
		if err := e.element.Load(ctx, e.resolveURL(state.PlaybackURL)); err != nil {
			e.recordError("load stream", err)
		} else {
			e.element.SetCurrentTime(time.Duration(state.PositionSeconds * float64(time.Second)))
			if state.IsPlaying {
				if err := e.element.Play(); err != nil {
					e.recordError("resume playback", err)
				}
			}
		}
	}

	queue, err := e.queue.Queue(ctx, e.userID)
	if err != nil {
		e.logger.Warn("initial queue fetch failed", "err", err)
		return nil
	}
	e.cache.Replace(queue)
	e.emitQueue()
	return nil
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close releases the media element and the channel subscription. Safe
// to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.done)
	e.mu.Unlock()

	e.channel.Disconnect()
	e.element.Pause()
	e.element.ClearSource()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()
	return nil
}

// pushLoop funnels push-channel events and connectivity changes into
// the engine until shutdown.
func (e *Engine) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case msg := <-e.channel.Events():
			e.processPush(ctx, msg)
		case connected := <-e.channel.ConnectionState():
			e.emitConnection(connected)
		}
	}
}

func (e *Engine) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			e.reconcile(ctx)
		}
	}
}

// reconcile pushes the element's rounded position to the backend as a
// soft position sync. A run already in flight means this tick is
// skipped silently, never queued or retried.
func (e *Engine) reconcile(ctx context.Context) {
	e.mu.Lock()
	if e.reconciling || e.state == nil || !e.state.IsPlaying {
		e.mu.Unlock()
		return
	}
	e.reconciling = true
	position := int(e.local.CurrentTimeSeconds)
	e.mu.Unlock()

	if _, err := e.player.SetPosition(ctx, e.userID, position); err != nil {
		e.logger.Warn("position sync failed", "err", err)
	}

	e.mu.Lock()
	e.reconciling = false
	e.mu.Unlock()
}

// Media element callbacks. Time and duration flow exclusively from
// here into LocalState.

func (e *Engine) onTimeUpdate(position time.Duration) {
	e.mu.Lock()
	e.local.CurrentTimeSeconds = position.Seconds()
	e.mu.Unlock()
	e.emitLocal()
}

func (e *Engine) onMetadataReady(duration time.Duration) {
	e.mu.Lock()
	e.local.DurationSeconds = duration.Seconds()
	e.local.IsBuffering = false
	e.mu.Unlock()
	e.emitLocal()
}

func (e *Engine) onBuffering() {
	e.mu.Lock()
	e.local.IsBuffering = true
	e.mu.Unlock()
	e.emitLocal()
}

func (e *Engine) onPlaying() {
	e.mu.Lock()
	e.local.IsBuffering = false
	e.mu.Unlock()
	e.emitLocal()
}

// onEnded advances the session when a stream plays out. The next track
// itself arrives later through a READY push event.
func (e *Engine) onEnded() {
	if err := e.Next(context.Background()); err != nil {
		e.logger.Warn("auto-advance failed", "err", err)
	}
}

// onElementError absorbs element-level failures into state: playback
// halts and stays halted until a fresh server-driven event.
func (e *Engine) onElementError(message string) {
	e.mu.Lock()
	e.local.IsBuffering = false
	e.local.LastError = message
	e.mu.Unlock()
	e.emitLocal()
	e.logger.Error("media element error", "err", message)
}

// adoptState replaces the authoritative state wholesale.
func (e *Engine) adoptState(state *api.PlayerState) {
	e.mu.Lock()
	if state == nil {
		e.state = nil
	} else {
		s := *state
		e.state = &s
	}
	e.mu.Unlock()
	e.emitState()
}

func (e *Engine) resolveURL(url string) string {
	if strings.HasPrefix(url, "/") {
		return e.baseURL + url
	}
	return url
}

func (e *Engine) recordError(operation string, err error) {
	e.mu.Lock()
	e.local.IsBuffering = false
	e.local.LastError = err.Error()
	e.mu.Unlock()
	e.emitLocal()
	e.logger.Error("operation failed", "op", operation, "err", err)
	e.emitError(operation, err)
}

// Emit helpers fan events out to all subscribers without blocking.

func (e *Engine) emitState() {
	state := e.PlayerState()
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendState(StateChange{State: state})
	}
}

func (e *Engine) emitLocal() {
	local := e.Local()
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendLocal(LocalChange{Local: local})
	}
}

func (e *Engine) emitQueue() {
	queue := e.cache.Get()
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendQueue(QueueChange{Queue: queue})
	}
}

func (e *Engine) emitConnection(connected bool) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendConnection(ConnectionChange{Connected: connected})
	}
}

func (e *Engine) emitError(operation string, err error) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendError(ErrorEvent{Operation: operation, Err: err})
	}
}
