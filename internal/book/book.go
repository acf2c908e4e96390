package book

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rickgao/driftbook/internal/cache"
	"github.com/rickgao/driftbook/internal/decode"
)

// Epsilon is the size threshold below which a price level is considered
// empty and removed.
const Epsilon = 1e-11

// productBook holds one product's two-sided price->size map.
type productBook struct {
	bids map[float64]float64
	asks map[float64]float64
}

func newProductBook() *productBook {
	return &productBook{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// Book is the set of all products' order books, safe for concurrent use by
// the Session's loop goroutine and any reader that needs a snapshot.
type Book struct {
	mu       sync.RWMutex
	products map[string]*productBook
}

// New returns an empty Book.
func New() *Book {
	return &Book{products: make(map[string]*productBook)}
}

func (b *Book) productLocked(productID string) *productBook {
	pb, ok := b.products[productID]
	if !ok {
		pb = newProductBook()
		b.products[productID] = pb
	}
	return pb
}

// ProcessSnapshot sets every listed price level for the snapshot's product.
// Levels not present in the snapshot are left untouched.
func (b *Book) ProcessSnapshot(s *decode.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pb := b.productLocked(s.ProductID)
	for _, lvl := range s.Asks {
		if err := setLevel(pb.asks, lvl.Price, lvl.Size); err != nil {
			return fmt.Errorf("book: snapshot %s ask: %w", s.ProductID, err)
		}
	}
	for _, lvl := range s.Bids {
		if err := setLevel(pb.bids, lvl.Price, lvl.Size); err != nil {
			return fmt.Errorf("book: snapshot %s bid: %w", s.ProductID, err)
		}
	}
	return nil
}

// ProcessUpdate applies an incremental delta: each change adds to the
// existing size at that price (inserting the level if absent); a change
// whose size is at or below Epsilon removes the level instead.
func (b *Book) ProcessUpdate(u *decode.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pb := b.productLocked(u.ProductID)
	for _, c := range u.Changes {
		side := pb.bids
		if !isBuy(c.Side) {
			side = pb.asks
		}
		if err := applyDelta(side, c.Price, c.Size); err != nil {
			return fmt.Errorf("book: update %s %s: %w", u.ProductID, c.Side, err)
		}
	}
	return nil
}

func isBuy(side string) bool {
	return strings.EqualFold(side, "buy")
}

func setLevel(side map[float64]float64, priceStr, sizeStr string) error {
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	size, err := strconv.ParseFloat(sizeStr, 64)
	if err != nil {
		return fmt.Errorf("parse size %q: %w", sizeStr, err)
	}
	side[price] = size
	return nil
}

func applyDelta(side map[float64]float64, priceStr, sizeStr string) error {
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	volume, err := strconv.ParseFloat(sizeStr, 64)
	if err != nil {
		return fmt.Errorf("parse size %q: %w", sizeStr, err)
	}

	if volume <= Epsilon {
		delete(side, price)
		return nil
	}

	if existing, ok := side[price]; ok {
		updated := existing + volume
		if updated <= Epsilon {
			delete(side, price)
		} else {
			side[price] = updated
		}
		return nil
	}
	side[price] = volume
	return nil
}

// Materialize publishes the named product's current book to the cache
// adapter via two HMSET calls, "<product_id>-ASKS" and "<product_id>-BIDS".
func (b *Book) Materialize(ctx context.Context, c cache.Client, productID string) error {
	b.mu.RLock()
	pb, ok := b.products[productID]
	if !ok {
		b.mu.RUnlock()
		return nil
	}
	asks := flatten(pb.asks)
	bids := flatten(pb.bids)
	b.mu.RUnlock()

	if len(asks) > 0 {
		if err := c.HMSet(ctx, productID+"-ASKS", asks); err != nil {
			return err
		}
	}
	if len(bids) > 0 {
		if err := c.HMSet(ctx, productID+"-BIDS", bids); err != nil {
			return err
		}
	}
	return nil
}

func flatten(side map[float64]float64) []string {
	out := make([]string, 0, len(side)*2)
	for price, size := range side {
		out = append(out, strconv.FormatFloat(price, 'f', -1, 64), strconv.FormatFloat(size, 'f', -1, 64))
	}
	return out
}

// Snapshot returns a defensive copy of a product's current book, primarily
// for tests and debugging.
func (b *Book) Snapshot(productID string) (bids, asks map[float64]float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pb, ok := b.products[productID]
	if !ok {
		return nil, nil
	}
	bids = make(map[float64]float64, len(pb.bids))
	for k, v := range pb.bids {
		bids[k] = v
	}
	asks = make(map[float64]float64, len(pb.asks))
	for k, v := range pb.asks {
		asks[k] = v
	}
	return bids, asks
}
