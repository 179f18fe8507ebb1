package event

import (
	"fmt"
	"slices"
)

// Type names an event.
type Type string

const (
	TypeGameStarted       Type = "game.started"
	TypeGameOver          Type = "game.over"
	TypeRoundStarted      Type = "round.started"
	TypeRoundEnded        Type = "round.ended"
	TypePhaseChanged      Type = "phase.changed"
	TypePriorityChanged   Type = "priority.changed"
	TypeItemBought        Type = "start_item.bought"
	TypeItemBid           Type = "start_item.bid"
	TypeItemPriceReduced  Type = "start_item.price_reduced"
	TypeCompanyStarted    Type = "company.started"
	TypeCompanyFloated    Type = "company.floated"
	TypePresidentChanged  Type = "company.president_changed"
	TypeCertificateBought Type = "certificate.bought"
	TypeSharesSold        Type = "shares.sold"
	TypePriceMoved        Type = "market.moved"
	TypeSpecialUsed       Type = "special.used"
	TypePrivateClosed     Type = "private.closed"
	TypePrivateRevenue    Type = "private.revenue"
	TypePrivateBought     Type = "private.bought"
	TypeTileLaid          Type = "tile.laid"
	TypeTokenLaid         Type = "token.laid"
	TypeRevenuePaid       Type = "revenue.paid"
	TypeRevenueWithheld   Type = "revenue.withheld"
	TypeTrainBought       Type = "train.bought"
	TypeTrainsRusted      Type = "train.rusted"
	TypeTrainDiscarded    Type = "train.discarded"
	TypePlayerPassed      Type = "player.passed"
	TypeBankrupt          Type = "player.bankrupt"
	TypeBankBroken        Type = "bank.broken"
)

// Event is a report of one state change.
type Event struct {
	Type    Type              `json:"type"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// New returns an event with a formatted message.
func New(typ Type, format string, args ...any) Event {
	return Event{Type: typ, Message: fmt.Sprintf(format, args...)}
}

// With returns a copy of the event with an extra attribute.
func (e Event) With(key, value string) Event {
	attrs := make(map[string]string, len(e.Attrs)+1)
	for k, v := range e.Attrs {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attrs = attrs
	return e
}

// Log is an append-only list of events.
type Log []Event

// Since returns the events appended after the first n.
func (l Log) Since(n int) Log {
	if n >= len(l) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return slices.Clone(l[n:])
}

// Types returns the event types in order.
func (l Log) Types() []Type {
	out := make([]Type, len(l))
	for i, e := range l {
		out[i] = e.Type
	}
	return out
}
