package session

import (
	"time"

	"github.com/rickgao/driftbook/internal/wsconn"
)

// Status is the Session's terminal/in-progress status, monotonic:
// OK -> GracefulShutdown -> ForcedShutdown only.
type Status int

const (
	StatusOK Status = iota
	StatusGracefulShutdown
	StatusForcedShutdown
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusGracefulShutdown:
		return "GRACEFUL_SHUTDOWN"
	case StatusForcedShutdown:
		return "FORCED_SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// OnData is invoked on the loop goroutine for every frame a connection
// receives, in receive order, never concurrently with another OnData call.
type OnData func(data []byte, receivedAt time.Time)

// Handle is the shared reference ws() returns: user code may read its
// status fields but must not mutate connection state directly — only the
// loop goroutine does that, per the single-writer invariant.
type Handle struct {
	id   int
	URL  string
	conn *wsconn.Connection
}

// State returns the underlying connection's current state.
func (h *Handle) State() wsconn.State { return h.conn.State() }

// Send writes data on the underlying connection. Synchronous, per
// spec.md's "send() and close() are synchronous" contract — safe to call
// from an OnOpen callback or any other goroutine, since it only touches
// this connection's own write path, never Session-owned state.
func (h *Handle) Send(data []byte) error { return h.conn.Send(data) }

// Close idempotently closes the underlying connection.
func (h *Handle) Close(code wsconn.CloseCode, payload []byte) int {
	return h.conn.Close(code, payload)
}

type eventKind int

const (
	// eventStart asks the loop to spawn the goroutines that actually drive
	// a connection that Ws/WsWithOnOpen has already registered.
	eventStart eventKind = iota
	eventMessage
	eventExhausted
	eventClosed
)

type loopEvent struct {
	kind     eventKind
	handleID int

	// eventStart
	conn *wsconn.Connection

	// eventMessage
	data []byte
	ts   time.Time
}
