package wsconn

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestConnectionReachesOpenState(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	c := New(wsURL(server), nil, DefaultRetryPolicy(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Start(ctx)

	deadline := time.After(2 * time.Second)
	for c.State() != StateOpen {
		select {
		case <-deadline:
			t.Fatal("connection never reached StateOpen")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestConnectionReceivesMessages(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"match"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	c := New(wsURL(server), nil, DefaultRetryPolicy(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	select {
	case msg := <-c.Messages():
		if string(msg.Data) != `{"type":"match"}` {
			t.Errorf("Data = %s, want match frame", msg.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestCloseIsIdempotentAndBigEndian(t *testing.T) {
	closeCodeCh := make(chan []byte, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Read the client's frame straight off the socket: gorilla's close
		// handler strips the status code and rejects a non-UTF-8 reason, so
		// it cannot show the payload bytes as they were sent.
		raw := conn.UnderlyingConn()
		var hdr [2]byte
		var mask [4]byte
		if _, err := io.ReadFull(raw, hdr[:]); err != nil || hdr[0]&0x0f != websocket.CloseMessage {
			return
		}
		if _, err := io.ReadFull(raw, mask[:]); err != nil {
			return
		}
		payload := make([]byte, hdr[1]&0x7f)
		if _, err := io.ReadFull(raw, payload); err != nil {
			return
		}
		for i := range payload {
			payload[i] ^= mask[i%4]
		}
		closeCodeCh <- payload
	})
	defer server.Close()

	c := New(wsURL(server), nil, DefaultRetryPolicy(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	deadline := time.After(2 * time.Second)
	for c.State() != StateOpen {
		select {
		case <-deadline:
			t.Fatal("connection never reached StateOpen")
		case <-time.After(10 * time.Millisecond):
		}
	}

	n1 := c.Close(PolicyViolation, []byte{0xAA, 0xBB})
	n2 := c.Close(PolicyViolation, []byte{0xAA, 0xBB})

	if n1 != 4 {
		t.Errorf("first Close returned %d bytes sent, want 4", n1)
	}
	if n2 != 0 {
		t.Errorf("second Close returned %d bytes sent, want 0 (idempotent)", n2)
	}

	select {
	case payload := <-closeCodeCh:
		want := make([]byte, 2)
		binary.BigEndian.PutUint16(want, uint16(PolicyViolation))
		want = append(want, 0xAA, 0xBB)
		if string(payload) != string(want) {
			t.Errorf("close payload = %v, want %v", []byte(payload), want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never observed CLOSE frame")
	}
}

func TestSendBeforeOpenReturnsErrNotOpen(t *testing.T) {
	c := New("ws://unused.invalid", nil, DefaultRetryPolicy(), nil)
	if err := c.Send([]byte("hello")); err != ErrNotOpen {
		t.Errorf("err = %v, want ErrNotOpen", err)
	}
}

func TestBackoffWithJitterStaysNearTable(t *testing.T) {
	c := New("ws://unused.invalid", nil, DefaultRetryPolicy(), nil)
	for i := 0; i < len(c.policy.Backoff); i++ {
		base := c.policy.Backoff[i]
		d := c.backoffWithJitter(i)
		low := time.Duration(float64(base) * 0.8)
		high := time.Duration(float64(base) * 1.2)
		if d < low || d > high {
			t.Errorf("backoffWithJitter(%d) = %v, want within [%v, %v]", i, d, low, high)
		}
	}
}
