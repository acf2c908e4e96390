package processor

import (
	"context"
	"testing"
	"time"

	"github.com/rickgao/driftbook/internal/book"
	"github.com/rickgao/driftbook/internal/logging"
	"github.com/rickgao/driftbook/internal/trades"
)

type fakeCache struct {
	sets  map[string]string
	hmset map[string][]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{sets: make(map[string]string), hmset: make(map[string][]string)}
}

func (f *fakeCache) Set(ctx context.Context, key, value string) error {
	f.sets[key] = value
	return nil
}

func (f *fakeCache) HMSet(ctx context.Context, key string, fields []string) error {
	f.hmset[key] = fields
	return nil
}

func (f *fakeCache) Close() error { return nil }

func testLog() *logging.Entry {
	return logging.New(logging.LevelCritical).WithComponent("processor-test")
}

func TestHandleSnapshotMaterializesBook(t *testing.T) {
	b := book.New()
	fc := newFakeCache()
	p := New(b, trades.New(), fc, testLog())

	raw := []byte(`{
		"type": "snapshot",
		"product_id": "ETH-USD",
		"asks": [["3000.00", "1.0"]],
		"bids": [["2999.00", "0.5"]]
	}`)

	p.Handle(raw, time.Now())

	if _, ok := fc.hmset["ETH-USD-ASKS"]; !ok {
		t.Error("expected ETH-USD-ASKS to be published")
	}
	if _, ok := fc.hmset["ETH-USD-BIDS"]; !ok {
		t.Error("expected ETH-USD-BIDS to be published")
	}
}

func TestHandleMatchPublishesTradeWindow(t *testing.T) {
	b := book.New()
	fc := newFakeCache()
	p := New(b, trades.New(), fc, testLog())

	raw := []byte(`{
		"type": "match",
		"trade_id": 1,
		"product_id": "BTC-USD",
		"side": "buy",
		"size": "0.01",
		"price": "50000.00",
		"sequence": 1
	}`)

	p.Handle(raw, time.Now())

	if _, ok := fc.sets["matches"]; !ok {
		t.Error("expected matches to be published")
	}
}

func TestHandleUnknownTypeIsDroppedWithoutPanic(t *testing.T) {
	b := book.New()
	fc := newFakeCache()
	p := New(b, trades.New(), fc, testLog())

	p.Handle([]byte(`{"type":"heartbeat"}`), time.Now())

	if len(fc.sets) != 0 || len(fc.hmset) != 0 {
		t.Error("expected no cache writes for an unknown frame type")
	}
}

func TestHandleMalformedJSONIsDroppedWithoutPanic(t *testing.T) {
	b := book.New()
	fc := newFakeCache()
	p := New(b, trades.New(), fc, testLog())

	p.Handle([]byte(`{not json`), time.Now())
}
