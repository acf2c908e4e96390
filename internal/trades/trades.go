package trades

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rickgao/driftbook/internal/cache"
	"github.com/rickgao/driftbook/internal/decode"
)

// WindowSize is the rolling window's age limit before a new match resets it.
const WindowSize = time.Second

// matchRecord is the JSON shape published for each trade, matching
// original_source's Match glaze field order.
type matchRecord struct {
	Type         string `json:"type"`
	Time         string `json:"time"`
	TradeID      int64  `json:"trade_id"`
	MakerOrderID string `json:"maker_order_id"`
	TakerOrderID string `json:"taker_order_id"`
	Side         string `json:"side"`
	Size         string `json:"size"`
	Price        string `json:"price"`
	ProductID    string `json:"product_id"`
	Sequence     int64  `json:"sequence"`
}

// Window is a rolling ≤1s buffer of recent matches, safe for concurrent use.
type Window struct {
	mu        sync.Mutex
	matches   []matchRecord
	lastReset time.Time
	now       func() time.Time
}

// New returns an empty Window.
func New() *Window {
	return &Window{lastReset: time.Now(), now: time.Now}
}

// Append adds m to the window, clearing it first if the window has aged
// out (more than WindowSize since the last reset).
func (w *Window) Append(m *decode.Match) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.Sub(w.lastReset) > WindowSize {
		w.matches = w.matches[:0]
		w.lastReset = now
	}

	w.matches = append(w.matches, matchRecord{
		Type:         "match",
		Time:         m.Time,
		TradeID:      m.TradeID,
		MakerOrderID: m.MakerOrderID,
		TakerOrderID: m.TakerOrderID,
		Side:         m.Side,
		Size:         m.Size,
		Price:        m.Price,
		ProductID:    m.ProductID,
		Sequence:     m.Sequence,
	})
}

// Publish serializes the current window as a JSON array and SETs it under
// the "matches" key.
func (w *Window) Publish(ctx context.Context, c cache.Client) error {
	w.mu.Lock()
	records := make([]matchRecord, len(w.matches))
	copy(records, w.matches)
	w.mu.Unlock()

	body, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.Set(ctx, "matches", string(body))
}

// Len returns the current number of matches held in the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.matches)
}
