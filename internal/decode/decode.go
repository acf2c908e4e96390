package decode

import "encoding/json"

// envelope is used for fast type extraction before committing to a
// specific wire struct.
type envelope struct {
	Type string `json:"type"`
}

// snapshotWire mirrors the exchange's snapshot frame: asks/bids are arrays
// of [price, size] string pairs.
type snapshotWire struct {
	Type      string     `json:"type"`
	Time      string     `json:"time"`
	ProductID string     `json:"product_id"`
	Asks      [][]string `json:"asks"`
	Bids      [][]string `json:"bids"`
}

// updateWire mirrors the exchange's l2update frame: changes are arrays of
// [side, price, size] string triples.
type updateWire struct {
	Type      string     `json:"type"`
	Time      string     `json:"time"`
	ProductID string     `json:"product_id"`
	Changes   [][]string `json:"changes"`
}

// matchWire mirrors the exchange's match frame.
type matchWire struct {
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

// sniff is used when the type field is absent or unrecognized: it inspects
// the structural shape of the frame to recover the intended variant.
type sniff struct {
	Asks    json.RawMessage `json:"asks"`
	Bids    json.RawMessage `json:"bids"`
	Changes json.RawMessage `json:"changes"`
	TradeID json.RawMessage `json:"trade_id"`
}

// Decode parses a raw WebSocket frame into an Event.
//
// Discrimination tries the explicit "type" field first
// (snapshot/l2update/match, with last_match decoded as a match);
// everything else is structurally sniffed
// (changes present => update, asks/bids present => snapshot, trade_id
// present => match). Frames matching neither return ErrUnknownEventType.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, err
	}

	switch env.Type {
	case "snapshot":
		return decodeSnapshot(raw)
	case "l2update":
		return decodeUpdate(raw)
	case "match", "last_match":
		return decodeMatch(raw)
	}

	var s sniff
	if err := json.Unmarshal(raw, &s); err != nil {
		return Event{}, err
	}
	switch {
	case len(s.Changes) > 0:
		return decodeUpdate(raw)
	case len(s.Asks) > 0 || len(s.Bids) > 0:
		return decodeSnapshot(raw)
	case len(s.TradeID) > 0:
		return decodeMatch(raw)
	default:
		return Event{}, ErrUnknownEventType
	}
}

func decodeSnapshot(raw []byte) (Event, error) {
	var w snapshotWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{}, err
	}
	return Event{
		Kind: KindSnapshot,
		Snapshot: &Snapshot{
			Time:      w.Time,
			ProductID: w.ProductID,
			Asks:      parseLevelPairs(w.Asks),
			Bids:      parseLevelPairs(w.Bids),
		},
	}, nil
}

func decodeUpdate(raw []byte) (Event, error) {
	var w updateWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{}, err
	}
	return Event{
		Kind: KindUpdate,
		Update: &Update{
			Time:      w.Time,
			ProductID: w.ProductID,
			Changes:   parseChanges(w.Changes),
		},
	}, nil
}

func decodeMatch(raw []byte) (Event, error) {
	var w matchWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{}, err
	}
	return Event{
		Kind: KindMatch,
		Match: &Match{
			Time:         w.Time,
			TradeID:      w.TradeID,
			MakerOrderID: w.MakerOrderID,
			TakerOrderID: w.TakerOrderID,
			Side:         w.Side,
			Size:         w.Size,
			Price:        w.Price,
			ProductID:    w.ProductID,
			Sequence:     w.Sequence,
		},
	}, nil
}

func parseLevelPairs(pairs [][]string) []PriceLevel {
	result := make([]PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		result = append(result, PriceLevel{Price: p[0], Size: p[1]})
	}
	return result
}

func parseChanges(triples [][]string) []Change {
	result := make([]Change, 0, len(triples))
	for _, t := range triples {
		if len(t) < 3 {
			continue
		}
		result = append(result, Change{Side: t[0], Price: t[1], Size: t[2]})
	}
	return result
}
