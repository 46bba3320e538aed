package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	eventBufferSize = 16

	reconnectDelay    = 5 * time.Second
	heartbeatInterval = 4 * time.Second
	pongWait          = 10 * time.Second
	writeWait         = 5 * time.Second

	// Reconnect attempts are counted for diagnostics only; the loop
	// never gives up.
	maxLoggedAttempts = 5
)

// Client owns one websocket connection scoped to a single user.
type Client struct {
	url    string
	logger *log.Logger

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	conn   *websocket.Conn

	events    chan Message
	connState chan bool
	connected bool
}

// NewClient creates a push channel client for the given websocket
// endpoint.
func NewClient(url string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		url:       url,
		logger:    logger.With("component", "push"),
		events:    make(chan Message, eventBufferSize),
		connState: make(chan bool, eventBufferSize),
	}
}

// Events returns the server event stream. Events are dropped, not
// blocked on, when the consumer lags.
func (c *Client) Events() <-chan Message {
	return c.events
}

// ConnectionState returns a boolean stream of connectivity changes,
// independent of the event stream.
func (c *Client) ConnectionState() <-chan bool {
	return c.connState
}

// IsConnected reports the current transport state.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect starts the connection loop for userID. Connecting while
// already active is a no-op.
func (c *Client) Connect(userID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		c.logger.Debug("already connected")
		return
	}
	c.active = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx, userID)
}

// Disconnect tears down the subscription and connection. Safe to call
// when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	cancel()
	if conn != nil {
		conn.Close()
	}
	c.setConnected(false)
}

func (c *Client) run(ctx context.Context, userID int) {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.dial(ctx, userID)
		if err != nil {
			attempts++
			if attempts <= maxLoggedAttempts {
				c.logger.Warn("connect failed", "attempt", attempts, "err", err)
			}
			c.setConnected(false)
			if !sleepCtx(ctx, reconnectDelay) {
				return
			}
			continue
		}

		attempts = 0
		c.logger.Info("connected", "user", userID)
		c.setConnected(true)

		c.readLoop(ctx, conn)

		c.setConnected(false)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("connection lost, reconnecting", "delay", reconnectDelay)
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

func (c *Client) dial(ctx context.Context, userID int) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	frame := subscribeFrame{Action: "subscribe", Topic: fmt.Sprintf("player/%d", userID)}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return conn, nil
}

// readLoop reads messages until the connection fails or ctx is
// canceled. Heartbeats run alongside to detect half-open connections.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Debug("read failed", "err", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("malformed push message", "err", err)
			continue
		}

		select {
		case c.events <- msg:
		default:
			c.logger.Warn("event buffer full, dropping", "kind", msg.Kind)
		}
	}
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	if c.connected == connected {
		c.mu.Unlock()
		return
	}
	c.connected = connected
	c.mu.Unlock()

	select {
	case c.connState <- connected:
	default:
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
