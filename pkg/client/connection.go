package client

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/metrics"
	"github.com/leitstand/leitstand/pkg/protocol"
)

// ConnStateType represents the connection status surfaced to the UI.
type ConnStateType int

const (
	StateConnected ConnStateType = iota
	StateDisconnected
	StateReconnecting
)

// ConnStateUpdate is a connection state change. Attempt carries the retry
// counter while reconnecting so the indicator can show progress.
type ConnStateUpdate struct {
	State   ConnStateType
	Attempt int
	Err     error
}

// ErrNameTaken is surfaced when the server refuses the session identity with
// close code 1008. Retrying with the same identity would repeat the
// conflict, so this ends the session instead of feeding the backoff path.
var ErrNameTaken = errors.New("session identity already taken")

// ConnConfig tunes the resilient-connection behavior. The zero value is
// completed with production defaults.
type ConnConfig struct {
	// URL is the full session endpoint, see protocol.SessionURL.
	URL string
	// HandshakeTimeout force-fails dial attempts whose socket never
	// reaches open. Default 5s.
	HandshakeTimeout time.Duration
	// HeartbeatInterval paces the application-level heartbeat literal
	// while the connection is open. Default 20s.
	HeartbeatInterval time.Duration
	// BackoffBase and BackoffCap bound the reconnect delay:
	// base*2^attempt, clamped to cap. Defaults 500ms and 30s.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	Logger  logger.Logger
	Metrics *metrics.Set
}

func (c *ConnConfig) withDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 5 * time.Second
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 20 * time.Second
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.BackoffCap == 0 {
		c.BackoffCap = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logger.Nop{}
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
}

// ReconnectDelay is the capped exponential backoff schedule: base*2^attempt,
// clamped to cap. Attempt 0 is the first retry after a loss.
func ReconnectDelay(attempt int, base, cap time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}

// Conn owns one persistent duplex connection to a session endpoint and keeps
// it alive: automatic reconnect with capped exponential backoff, a handshake
// timeout on every dial, and an application-level heartbeat. Inbound frames
// are decoded and delivered on Incoming; heartbeats are recognized and
// dropped before decoding ever reaches a consumer.
type Conn struct {
	cfg    ConnConfig
	dialer *websocket.Dialer

	mu        sync.Mutex
	ws        *websocket.Conn
	open      bool
	leaving   bool // intentional close; one-way, never reset
	attempt   int
	reconnect *time.Timer
	hbStop    chan struct{}

	incoming chan protocol.Message
	states   chan ConnStateUpdate

	wg sync.WaitGroup
}

// NewConn creates a connection manager for the given session endpoint. No
// network activity happens until Connect.
func NewConn(cfg ConnConfig) *Conn {
	cfg.withDefaults()
	return &Conn{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		incoming: make(chan protocol.Message, 100),
		states:   make(chan ConnStateUpdate, 10),
	}
}

// Incoming delivers decoded snapshots and free-text messages in arrival
// order. Heartbeats never appear here.
func (c *Conn) Incoming() <-chan protocol.Message { return c.incoming }

// States delivers connection state changes for the UI indicator.
func (c *Conn) States() <-chan ConnStateUpdate { return c.states }

// IsOpen reports whether the connection is currently established.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Connect establishes the connection. A failed dial is handled like a lost
// connection: the backoff path takes over and Connect returns nil. The only
// immediate error is connecting after Close.
func (c *Conn) Connect() error {
	c.mu.Lock()
	if c.leaving {
		c.mu.Unlock()
		return errors.New("connection closed")
	}
	if c.open {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	c.mu.Unlock()

	c.dial()
	return nil
}

// dial performs one connection attempt and either starts the session loops
// or schedules the next retry.
func (c *Conn) dial() {
	c.cfg.Logger.Debugf("dialing %s", c.cfg.URL)
	ws, _, err := c.dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		c.cfg.Logger.Warnf("dial failed: %v", err)
		c.handleLoss(err)
		return
	}

	c.mu.Lock()
	if c.leaving {
		c.mu.Unlock()
		ws.Close()
		return
	}
	c.ws = ws
	c.open = true
	c.attempt = 0
	c.hbStop = make(chan struct{})
	hbStop := c.hbStop
	c.mu.Unlock()

	c.cfg.Logger.Infof("connected to %s", c.cfg.URL)
	c.emitState(ConnStateUpdate{State: StateConnected})

	c.wg.Add(2)
	go c.readLoop(ws)
	go c.heartbeatLoop(ws, hbStop)
}

// Send transmits a text frame. Sending while the connection is not open is a
// no-op: callers watch States if they need affordances for that.
func (c *Conn) Send(payload string) {
	c.mu.Lock()
	ws, open := c.ws, c.open
	c.mu.Unlock()
	if !open || ws == nil {
		return
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		c.cfg.Logger.Warnf("send failed: %v", err)
	}
}

// Close ends the session intentionally. The leaving flag is a one-way
// transition: it suppresses the lost-connection indicator and all future
// reconnect attempts, and is set before the socket close so the read loop's
// close handling observes it.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.leaving {
		c.mu.Unlock()
		return
	}
	c.leaving = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	c.stopHeartbeatLocked()
	ws := c.ws
	c.ws = nil
	c.open = false
	c.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}
	c.wg.Wait()
	close(c.incoming)
	close(c.states)
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	defer c.wg.Done()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			leaving := c.leaving
			c.mu.Unlock()
			if leaving {
				return
			}
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				// 1008: the identity is already in use. Terminal for
				// this session; retrying would repeat the conflict.
				c.cfg.Logger.Errorf("identity rejected: %v", err)
				c.teardown()
				c.emitState(ConnStateUpdate{State: StateDisconnected, Err: ErrNameTaken})
				return
			}
			c.cfg.Logger.Warnf("connection lost: %v", err)
			c.teardown()
			c.handleLoss(err)
			return
		}

		msg := protocol.Decode(string(data))
		if msg.Heartbeat {
			// Keepalive echo; dropped before any consumer sees it.
			continue
		}
		if msg.Snapshot != nil {
			c.cfg.Metrics.SnapshotsApplied.Inc()
		}
		c.incoming <- msg
	}
}

func (c *Conn) heartbeatLoop(ws *websocket.Conn, stop chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ws.WriteMessage(websocket.TextMessage, []byte(protocol.Heartbeat)); err != nil {
				return
			}
			c.cfg.Metrics.HeartbeatsSent.Inc()
		case <-stop:
			return
		}
	}
}

// teardown closes the socket and defuses the heartbeat after a loss, leaving
// reconnect scheduling to the caller.
func (c *Conn) teardown() {
	c.mu.Lock()
	c.stopHeartbeatLocked()
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
	c.open = false
	c.mu.Unlock()
}

func (c *Conn) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

// handleLoss surfaces the loss and schedules the next attempt. The reconnect
// timer is replaced, never stacked: a second loss before the previous retry
// fires cancels it.
func (c *Conn) handleLoss(err error) {
	c.mu.Lock()
	if c.leaving {
		c.mu.Unlock()
		return
	}
	attempt := c.attempt
	c.attempt++
	delay := ReconnectDelay(attempt, c.cfg.BackoffBase, c.cfg.BackoffCap)
	if c.reconnect != nil {
		c.reconnect.Stop()
	}
	c.reconnect = time.AfterFunc(delay, c.retry)
	c.mu.Unlock()

	c.cfg.Metrics.ReconnectAttempts.Inc()
	c.cfg.Logger.Infof("retrying in %v (attempt %d)", delay, attempt+1)
	c.emitState(ConnStateUpdate{State: StateReconnecting, Attempt: attempt + 1, Err: err})
}

func (c *Conn) retry() {
	c.mu.Lock()
	leaving := c.leaving
	c.mu.Unlock()
	if leaving {
		return
	}
	c.dial()
}

// emitState never blocks; a stalled consumer loses older indicator updates
// rather than stalling the session.
func (c *Conn) emitState(u ConnStateUpdate) {
	select {
	case c.states <- u:
	default:
	}
}
