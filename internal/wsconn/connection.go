package wsconn

import (
	"context"
	"encoding/binary"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/driftbook/internal/logging"
)

// Connection is a single WebSocket connection driven through the
// Closed -> Connecting -> Open -> Closed retry/backoff state machine.
//
// A Connection does nothing until Start is called; Session queues that
// call onto its loop. Start runs the connect/read/retry loop on the
// goroutine that calls it, while the synchronous Send/Close methods may be
// called from any goroutine and guard shared fields with the connection's
// locks. Callers receive frames and lifecycle signals from Connection's
// channels.
type Connection struct {
	url    string
	header http.Header
	policy RetryPolicy
	log    *logging.Entry

	mu          sync.RWMutex
	state       State
	conn        *websocket.Conn
	retryCount  int
	userClosed  bool
	permanently bool

	onOpen func()

	messages  chan Message
	exhausted chan struct{}
	closed    chan struct{}
	writeMu   sync.Mutex
}

// SetOnOpen registers a callback invoked every time the connection
// transitions to StateOpen (including after a reconnect). Must be called
// before Start.
func (c *Connection) SetOnOpen(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOpen = fn
}

// New returns a Connection that has not yet started connecting.
func New(url string, header http.Header, policy RetryPolicy, log *logging.Entry) *Connection {
	return &Connection{
		url:       url,
		header:    header,
		policy:    policy,
		log:       log,
		messages:  make(chan Message, 1024),
		exhausted: make(chan struct{}),
		closed:    make(chan struct{}),
	}
}

// Messages returns the channel of decoded frames. Never closed by
// Connection itself — readPump runs for the life of each dial, across
// reconnects, so callers stop reading once Closed() fires instead.
func (c *Connection) Messages() <-chan Message { return c.messages }

// Exhausted is closed once retry_count exceeds the policy's ConcealCount,
// signaling the Session to set its interrupted flag.
func (c *Connection) Exhausted() <-chan struct{} { return c.exhausted }

// Closed is closed once the connection is permanently closed, whether by
// retry exhaustion or an explicit Close call.
func (c *Connection) Closed() <-chan struct{} { return c.closed }

// State returns the connection's current state.
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Start runs the connect/retry loop until ctx is canceled or the
// connection is closed or exhausted. It is the Connecting/Open half of the
// state machine; callers run it in its own goroutine.
func (c *Connection) Start(ctx context.Context) {
	defer c.finish()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			if c.userClosedFlag() {
				return
			}
			if !c.scheduleRetry(ctx) {
				return
			}
			continue
		}

		c.mu.Lock()
		if c.userClosed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.retryCount = 0
		onOpen := c.onOpen
		c.mu.Unlock()
		c.setState(StateOpen)
		if onOpen != nil {
			onOpen()
		}

		c.readPump(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if c.userClosedFlag() {
			return
		}
		c.setState(StateClosed)
		if !c.scheduleRetry(ctx) {
			return
		}
	}
}

func (c *Connection) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, c.header)
	return conn, err
}

func (c *Connection) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			return
		}
		select {
		case c.messages <- Message{Data: data, ReceivedAt: receivedAt}:
		default:
			if c.log != nil {
				c.log.Warn("message buffer full, dropping message")
			}
		}
	}
}

// scheduleRetry sleeps for the backoff entry at retryCount (with jitter),
// incrementing retryCount first. Returns false if retries are exhausted or
// ctx was canceled during the wait.
func (c *Connection) scheduleRetry(ctx context.Context) bool {
	c.mu.Lock()
	c.retryCount++
	n := c.retryCount
	c.mu.Unlock()

	if n > c.policy.ConcealCount {
		c.mu.Lock()
		c.permanently = true
		c.mu.Unlock()
		close(c.exhausted)
		return false
	}

	wait := c.backoffWithJitter(n - 1)
	select {
	case <-time.After(wait):
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Connection) backoffWithJitter(index int) time.Duration {
	if index >= len(c.policy.Backoff) {
		index = len(c.policy.Backoff) - 1
	}
	base := c.policy.Backoff[index]
	if c.policy.JitterPercent <= 0 {
		return base
	}
	jitterRange := float64(base) * float64(c.policy.JitterPercent) / 100.0
	delta := (rand.Float64()*2 - 1) * jitterRange
	return base + time.Duration(delta)
}

// Send writes a text frame. Returns ErrNotOpen if the connection is not
// currently Open.
func (c *Connection) Send(data []byte) error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if state != StateOpen || conn == nil {
		return ErrNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close idempotently closes the connection: the first call flips open to
// false and sends a CLOSE frame with the 16-bit code big-endian prepended
// to payload; subsequent calls are no-ops and return 0.
func (c *Connection) Close(code CloseCode, payload []byte) int {
	c.mu.Lock()
	if c.userClosed {
		c.mu.Unlock()
		return 0
	}
	c.userClosed = true
	conn := c.conn
	c.mu.Unlock()
	c.setState(StateClosed)

	if conn == nil {
		return 0
	}

	frame := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(frame[:2], uint16(code))
	copy(frame[2:], payload)

	conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
	conn.Close()
	return len(frame)
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Connection) userClosedFlag() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userClosed
}

func (c *Connection) finish() {
	close(c.closed)
}
