package processor

import (
	"context"
	"time"

	"github.com/rickgao/driftbook/internal/book"
	"github.com/rickgao/driftbook/internal/cache"
	"github.com/rickgao/driftbook/internal/decode"
	"github.com/rickgao/driftbook/internal/logging"
	"github.com/rickgao/driftbook/internal/trades"
)

// Processor fans a connection's raw frames out to the order-book engine
// and trade aggregator.
type Processor struct {
	book   *book.Book
	window *trades.Window
	cache  cache.Client
	log    *logging.Entry
}

// New returns a Processor wired to the given book, trade window, and
// cache adapter.
func New(b *book.Book, w *trades.Window, c cache.Client, log *logging.Entry) *Processor {
	return &Processor{book: b, window: w, cache: c, log: log}
}

// Handle is a session.OnData-shaped callback: decode, dispatch, publish.
// Decode errors and unknown variants are logged and dropped.
func (p *Processor) Handle(data []byte, receivedAt time.Time) {
	ev, err := decode.Decode(data)
	if err != nil {
		if err == decode.ErrUnknownEventType {
			p.log.WithCategory("decode").Warn("unknown event type, dropping frame")
		} else {
			p.log.WithCategory("decode").WithError(err).Error("failed to decode frame")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch ev.Kind {
	case decode.KindSnapshot:
		p.dispatchSnapshot(ctx, ev.Snapshot)
	case decode.KindUpdate:
		p.dispatchUpdate(ctx, ev.Update)
	case decode.KindMatch:
		p.dispatchMatch(ctx, ev.Match)
	}
}

func (p *Processor) dispatchSnapshot(ctx context.Context, s *decode.Snapshot) {
	if err := p.book.ProcessSnapshot(s); err != nil {
		p.log.WithCategory("book").WithError(err).Error("failed to process snapshot")
		return
	}
	if err := p.book.Materialize(ctx, p.cache, s.ProductID); err != nil {
		p.log.WithCategory("cache").WithError(err).Error("failed to materialize book")
	}
}

func (p *Processor) dispatchUpdate(ctx context.Context, u *decode.Update) {
	if err := p.book.ProcessUpdate(u); err != nil {
		p.log.WithCategory("book").WithError(err).Error("failed to process update")
		return
	}
	if err := p.book.Materialize(ctx, p.cache, u.ProductID); err != nil {
		p.log.WithCategory("cache").WithError(err).Error("failed to materialize book")
	}
}

func (p *Processor) dispatchMatch(ctx context.Context, m *decode.Match) {
	p.window.Append(m)
	if err := p.window.Publish(ctx, p.cache); err != nil {
		p.log.WithCategory("cache").WithError(err).Error("failed to publish trade window")
	}
}
