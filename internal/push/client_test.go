package push

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/solenne/cadenza/internal/api"
)

// pushServer is a websocket endpoint that records subscriptions and
// lets tests inject server events.
type pushServer struct {
	srv      *httptest.Server
	upgrades atomic.Int32
	topics   chan string
	send     chan any
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	ps := &pushServer{
		topics: make(chan string, 4),
		send:   make(chan any, 4),
	}
	upgrader := websocket.Upgrader{}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		ps.upgrades.Add(1)

		var frame subscribeFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		ps.topics <- frame.Topic

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for {
			select {
			case <-done:
				return
			case msg := <-ps.send:
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http")
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestConnect_SubscribesToUserTopic(t *testing.T) {
	ps := newPushServer(t)
	c := NewClient(ps.wsURL(), testLogger())
	defer c.Disconnect()

	c.Connect(7)

	select {
	case topic := <-ps.topics:
		if topic != "player/7" {
			t.Errorf("topic = %q, want player/7", topic)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe frame received")
	}

	select {
	case connected := <-c.ConnectionState():
		if !connected {
			t.Error("first connectivity change should be true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no connectivity change")
	}
	if !c.IsConnected() {
		t.Error("IsConnected() should report true")
	}
}

func TestEvents_DeliversServerMessages(t *testing.T) {
	ps := newPushServer(t)
	c := NewClient(ps.wsURL(), testLogger())
	defer c.Disconnect()

	c.Connect(7)
	<-ps.topics

	ps.send <- map[string]any{
		"eventKind":       "READY",
		"playerState":     map[string]any{"currentTrackId": "abc", "playbackUrl": "/s/abc.mp3"},
		"timestampMillis": 1700000000000,
	}

	select {
	case msg := <-c.Events():
		if msg.Kind != KindReady {
			t.Errorf("Kind = %q, want READY", msg.Kind)
		}
		if msg.PlayerState == nil || msg.PlayerState.CurrentTrackID != "abc" {
			t.Errorf("PlayerState = %+v", msg.PlayerState)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestEvents_SkipsMalformedFrames(t *testing.T) {
	ps := newPushServer(t)
	c := NewClient(ps.wsURL(), testLogger())
	defer c.Disconnect()

	c.Connect(7)
	<-ps.topics

	ps.send <- "not an event object"
	ps.send <- map[string]any{"eventKind": "PAUSED"}

	select {
	case msg := <-c.Events():
		if msg.Kind != KindPaused {
			t.Errorf("Kind = %q, want PAUSED after skipping garbage", msg.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestConnect_Idempotent(t *testing.T) {
	ps := newPushServer(t)
	c := NewClient(ps.wsURL(), testLogger())
	defer c.Disconnect()

	c.Connect(7)
	<-ps.topics
	c.Connect(7)
	c.Connect(7)

	// Give a second dial time to happen if one were going to.
	time.Sleep(100 * time.Millisecond)
	if got := ps.upgrades.Load(); got != 1 {
		t.Errorf("upgrades = %d, want 1", got)
	}
}

func TestDisconnect_SafeWhenNotConnected(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws/player", testLogger())
	c.Disconnect()
	c.Disconnect()
	if c.IsConnected() {
		t.Error("IsConnected() should be false")
	}
}

func TestDisconnect_EmitsDisconnected(t *testing.T) {
	ps := newPushServer(t)
	c := NewClient(ps.wsURL(), testLogger())

	c.Connect(7)
	<-ps.topics
	<-c.ConnectionState()

	c.Disconnect()

	select {
	case connected := <-c.ConnectionState():
		if connected {
			t.Error("expected disconnected notification")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no connectivity change after Disconnect")
	}
}

func TestMessage_Unmarshal(t *testing.T) {
	raw := `{
		"eventKind": "ERROR",
		"message": "stream failed",
		"timestampMillis": 1700000000123
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindError || msg.Message != "stream failed" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.TimestampMillis != 1700000000123 {
		t.Errorf("TimestampMillis = %d", msg.TimestampMillis)
	}
	if msg.PlayerState != nil {
		t.Errorf("PlayerState = %+v, want nil", msg.PlayerState)
	}

	withState := `{"eventKind":"PLAYING","playerState":{"currentTrackId":"abc","isPlaying":true}}`
	if err := json.Unmarshal([]byte(withState), &msg); err != nil {
		t.Fatal(err)
	}
	var want api.PlayerState
	want.CurrentTrackID = "abc"
	want.IsPlaying = true
	if msg.PlayerState == nil || *msg.PlayerState != want {
		t.Errorf("PlayerState = %+v", msg.PlayerState)
	}
}
