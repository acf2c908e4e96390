package session

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rickgao/driftbook/internal/logging"
	"github.com/rickgao/driftbook/internal/wsconn"
)

// Session is the connection manager: it owns every Connection, the
// deferred-init queue, and drives cooperative graceful/forced shutdown.
type Session struct {
	log    *logging.Entry
	policy wsconn.RetryPolicy

	inbox *eventQueue

	mu          sync.Mutex
	handles     map[int]*Handle
	onData      map[int]OnData
	nextID      int
	interrupted bool

	idleSince  time.Time
	eventCount int64
}

// New returns a Session ready to accept ws() registrations.
func New(log *logging.Entry, policy wsconn.RetryPolicy) *Session {
	return &Session{
		log:     log,
		policy:  policy,
		inbox:   newEventQueue(256),
		handles: make(map[int]*Handle),
		onData:  make(map[int]OnData),
	}
}

// Ws registers a new connection to url; onData is invoked on the loop
// goroutine for every frame the connection receives. Safe to call before
// Run starts, or reentrantly from within an OnData callback: the Handle is
// built and registered synchronously, mirroring the teacher's manager.go
// returning its handle immediately: only the connect/read goroutines'
// actual start is deferred onto the loop's event queue, since they need
// the context Run establishes.
func (s *Session) Ws(url string, onData OnData) *Handle {
	return s.WsWithOnOpen(url, onData, nil)
}

// WsWithOnOpen is Ws plus an onOpen callback invoked every time the
// connection transitions to Open (including after a reconnect) — the hook
// a caller uses to send an initial subscribe frame.
func (s *Session) WsWithOnOpen(url string, onData OnData, onOpen func(*Handle)) *Handle {
	conn := wsconn.New(url, http.Header{}, s.policy, s.log)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	h := &Handle{id: id, URL: url, conn: conn}
	s.handles[id] = h
	s.onData[id] = onData
	s.mu.Unlock()

	if onOpen != nil {
		conn.SetOnOpen(func() { onOpen(h) })
	}

	s.inbox.Push(loopEvent{kind: eventStart, handleID: id, conn: conn})
	return h
}

// Connections returns a defensive copy of the current connection handles.
func (s *Session) Connections() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h)
	}
	return out
}

// Run runs the event loop to completion, returning the terminal status.
// SIGINT's first delivery asks every open connection to close and sets
// GracefulShutdown; a second delivery (or one arriving mid-drain) sets
// ForcedShutdown and returns immediately. SIGHUP dumps loop idle time and
// event counters through the logging facade.
func (s *Session) Run(ctx context.Context, sig <-chan os.Signal) Status {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	status := StatusOK
	sigintCount := 0
	s.idleSince = time.Now()

	events := s.drainInbox(loopCtx)

	for {
		select {
		case <-loopCtx.Done():
			s.closeAll()
			return StatusForcedShutdown

		case signal := <-sig:
			if isHangup(signal) {
				s.dumpStats()
				continue
			}
			sigintCount++
			if sigintCount == 1 {
				s.log.Info("first SIGINT: closing all open connections")
				status = StatusGracefulShutdown
				s.closeAll()
			} else {
				s.log.Info("second SIGINT: forcing shutdown")
				return StatusForcedShutdown
			}

		case ev, ok := <-events:
			if !ok {
				return status
			}
			s.idleSince = time.Now()
			s.eventCount++
			s.handleEvent(loopCtx, ev)

			if status == StatusGracefulShutdown && len(s.Connections()) == 0 {
				return status
			}
		}
	}
}

// drainInbox spawns the single goroutine that bridges eventQueue's
// condvar-based blocking Pop onto a channel Run's select can multiplex
// against signals and ctx.Done. Exactly one of these runs per Run call, so
// a Pop that loses a select race is never orphaned holding an event no one
// will read.
func (s *Session) drainInbox(ctx context.Context) <-chan loopEvent {
	ch := make(chan loopEvent)
	go func() {
		defer close(ch)
		for {
			ev, ok := s.inbox.Pop()
			if !ok {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (s *Session) handleEvent(ctx context.Context, ev loopEvent) {
	switch ev.kind {
	case eventStart:
		go ev.conn.Start(ctx)
		go s.forward(ev.handleID, ev.conn)
	case eventMessage:
		s.mu.Lock()
		cb := s.onData[ev.handleID]
		s.mu.Unlock()
		if cb != nil {
			cb(ev.data, ev.ts)
		}
	case eventExhausted:
		s.mu.Lock()
		s.interrupted = true
		s.mu.Unlock()
		s.log.WithCategory("retry").WithError(wsconn.ErrRetriesExhausted).Error("connection retries exhausted, interrupted flag set")
	case eventClosed:
		s.mu.Lock()
		delete(s.handles, ev.handleID)
		delete(s.onData, ev.handleID)
		s.mu.Unlock()
	}
}

// forward relays a connection's own channels onto the loop's single inbox,
// so the loop goroutine remains the only place OnData callbacks, the
// interrupted flag, and the handle registry are touched. Exhausted is a
// channel that is closed once and stays closed, so its local reference is
// nil'd out after the first fire — otherwise the select would spin,
// re-posting eventExhausted on every iteration until Closed happens to win.
func (s *Session) forward(id int, conn *wsconn.Connection) {
	exhausted := conn.Exhausted()
	for {
		select {
		case msg, ok := <-conn.Messages():
			if !ok {
				return
			}
			s.inbox.Push(loopEvent{kind: eventMessage, handleID: id, data: msg.Data, ts: msg.ReceivedAt})
		case <-exhausted:
			s.inbox.Push(loopEvent{kind: eventExhausted, handleID: id})
			exhausted = nil
		case <-conn.Closed():
			s.inbox.Push(loopEvent{kind: eventClosed, handleID: id})
			return
		}
	}
}

func (s *Session) closeAll() {
	for _, h := range s.Connections() {
		h.conn.Close(wsconn.Normal, nil)
	}
}

func (s *Session) dumpStats() {
	s.log.WithCategory("diagnostics").WithFields(logging.Fields{
		"idle_for":    time.Since(s.idleSince).String(),
		"event_count": s.eventCount,
	}).Info("loop stats")
}

func isHangup(sig os.Signal) bool {
	return sig.String() == "hangup"
}
