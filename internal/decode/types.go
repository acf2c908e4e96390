package decode

import "errors"

// Kind discriminates the variant held by an Event.
type Kind int

const (
	KindSnapshot Kind = iota
	KindUpdate
	KindMatch
)

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindUpdate:
		return "update"
	case KindMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Event is a tagged union over the three decoded message types driftbook's
// processor dispatches on.
type Event struct {
	Kind     Kind
	Snapshot *Snapshot
	Update   *Update
	Match    *Match
}

// PriceLevel is a single (price, size) pair as it appears on the wire,
// carried as decimal strings so no precision is lost before C3 parses them.
type PriceLevel struct {
	Price string
	Size  string
}

// Snapshot is a full order-book snapshot for one product.
type Snapshot struct {
	Time      string       `json:"time"`
	ProductID string       `json:"product_id"`
	Asks      []PriceLevel `json:"-"`
	Bids      []PriceLevel `json:"-"`
}

// Change is one delta entry within an Update.
type Change struct {
	Side  string // "buy" or "sell"
	Price string
	Size  string
}

// Update is an incremental order-book delta for one product.
type Update struct {
	Time      string   `json:"time"`
	ProductID string   `json:"product_id"`
	Changes   []Change `json:"-"`
}

// Match is a single executed trade.
type Match struct {
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

// ErrUnknownEventType is returned when a frame's type field (or structural
// shape, when the type field is absent) does not match any of
// snapshot/l2update/match.
var ErrUnknownEventType = errors.New("decode: unknown event type")
