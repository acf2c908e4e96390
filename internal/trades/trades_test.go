package trades

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rickgao/driftbook/internal/decode"
)

type fakeCache struct {
	sets map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{sets: make(map[string]string)} }

func (f *fakeCache) Set(ctx context.Context, key, value string) error {
	f.sets[key] = value
	return nil
}
func (f *fakeCache) HMSet(ctx context.Context, key string, fields []string) error { return nil }
func (f *fakeCache) Close() error                                                { return nil }

func TestAppendWithinWindowAccumulates(t *testing.T) {
	base := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	w := New()
	w.lastReset = base
	w.now = func() time.Time { return base.Add(200 * time.Millisecond) }

	w.Append(&decode.Match{TradeID: 1, ProductID: "BTC-USD"})
	w.Append(&decode.Match{TradeID: 2, ProductID: "BTC-USD"})

	if w.Len() != 2 {
		t.Fatalf("Len = %d, want 2", w.Len())
	}
}

func TestAppendClearsWindowAfterExpiry(t *testing.T) {
	base := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	w := New()
	w.lastReset = base
	w.now = func() time.Time { return base }
	w.Append(&decode.Match{TradeID: 1, ProductID: "BTC-USD"})

	w.now = func() time.Time { return base.Add(1500 * time.Millisecond) }
	w.Append(&decode.Match{TradeID: 2, ProductID: "BTC-USD"})

	if w.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after window reset", w.Len())
	}
}

func TestPublishSerializesJSONArray(t *testing.T) {
	w := New()
	w.Append(&decode.Match{TradeID: 7, ProductID: "ETH-USD", Side: "buy", Size: "0.1", Price: "3000.00"})

	fc := newFakeCache()
	if err := w.Publish(context.Background(), fc); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var records []matchRecord
	if err := json.Unmarshal([]byte(fc.sets["matches"]), &records); err != nil {
		t.Fatalf("unmarshal published matches: %v", err)
	}
	if len(records) != 1 || records[0].TradeID != 7 {
		t.Fatalf("records = %+v", records)
	}
}

func TestPublishEmptyWindow(t *testing.T) {
	w := New()
	fc := newFakeCache()
	if err := w.Publish(context.Background(), fc); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if fc.sets["matches"] != "[]" {
		t.Errorf("matches = %q, want empty array", fc.sets["matches"])
	}
}
