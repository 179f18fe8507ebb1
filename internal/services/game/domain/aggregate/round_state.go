package aggregate

import (
	"maps"
	"slices"

	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

// RoundKind names the active round type.
type RoundKind string

const (
	RoundStart     RoundKind = "start"
	RoundStock     RoundKind = "stock"
	RoundOperating RoundKind = "operating"
	RoundGameOver  RoundKind = "game_over"
)

// RoundState is the cursor of the active round.
type RoundState struct {
	Kind RoundKind `json:"kind"`
	// StockRound counts stock rounds started so far.
	StockRound int `json:"stock_round"`
	// OperatingRound is the 1-based index inside the current set.
	OperatingRound int `json:"operating_round"`
	// OperatingRounds is the size of the current set.
	OperatingRounds int `json:"operating_rounds"`

	Start     *StartRoundState     `json:"start,omitempty"`
	Stock     *StockRoundState     `json:"stock,omitempty"`
	Operating *OperatingRoundState `json:"operating,omitempty"`
}

// Clone returns a deep copy.
func (r RoundState) Clone() RoundState {
	out := r
	if r.Start != nil {
		st := *r.Start
		st.Bidders = slices.Clone(r.Start.Bidders)
		if r.Start.PendingPar != nil {
			pp := *r.Start.PendingPar
			st.PendingPar = &pp
		}
		out.Start = &st
	}
	if r.Stock != nil {
		st := *r.Stock
		st.SoldThisTurn = slices.Clone(r.Stock.SoldThisTurn)
		st.SoldThisRound = make(map[entity.PlayerID][]entity.CompanyID, len(r.Stock.SoldThisRound))
		for k, v := range r.Stock.SoldThisRound {
			st.SoldThisRound[k] = slices.Clone(v)
		}
		st.SoldOut = maps.Clone(r.Stock.SoldOut)
		out.Stock = &st
	}
	if r.Operating != nil {
		op := *r.Operating
		op.Order = slices.Clone(r.Operating.Order)
		out.Operating = &op
	}
	return out
}

// PendingPar is a bundled president certificate waiting for its par price.
type PendingPar struct {
	Player  entity.PlayerID  `json:"player"`
	Company entity.CompanyID `json:"company"`
}

// StartRoundState is the cursor of the start packet auction.
type StartRoundState struct {
	Current           entity.PlayerID `json:"current"`
	ConsecutivePasses int             `json:"consecutive_passes"`
	// Auction is the item under bid-off, with the remaining bidders in turn order.
	Auction    string            `json:"auction,omitempty"`
	Bidders    []entity.PlayerID `json:"bidders,omitempty"`
	BidderTurn int               `json:"bidder_turn"`
	Resume     entity.PlayerID   `json:"resume,omitempty"`
	PendingPar *PendingPar       `json:"pending_par,omitempty"`
	LastBuyer  entity.PlayerID   `json:"last_buyer,omitempty"`
	ForcedBuy  bool              `json:"forced_buy"`
}

// StockRoundState is the cursor of a stock round.
type StockRoundState struct {
	Current           entity.PlayerID                        `json:"current"`
	ConsecutivePasses int                                    `json:"consecutive_passes"`
	Acted             bool                                   `json:"acted"`
	Bought            bool                                   `json:"bought"`
	SoldThisTurn      []entity.CompanyID                     `json:"sold_this_turn,omitempty"`
	SoldThisRound     map[entity.PlayerID][]entity.CompanyID `json:"sold_this_round,omitempty"`
	LastActor         entity.PlayerID                        `json:"last_actor,omitempty"`
	// SoldOut records companies whose sold-out move already ran this round.
	SoldOut map[entity.CompanyID]bool `json:"sold_out,omitempty"`
}

// OperatingStep is the stage of a company's operating turn.
type OperatingStep string

const (
	StepTrack   OperatingStep = "track"
	StepToken   OperatingStep = "token"
	StepRevenue OperatingStep = "revenue"
	StepTrains  OperatingStep = "trains"
)

// OperatingRoundState is the cursor of an operating round.
type OperatingRoundState struct {
	Order     []entity.CompanyID `json:"order"`
	Index     int                `json:"index"`
	Step      OperatingStep      `json:"step"`
	TileLays  int                `json:"tile_lays"`
	Revenue   int                `json:"revenue"`
	Allocated bool               `json:"allocated"`
}

// Company returns the operating company, or "" when the round is complete.
func (o *OperatingRoundState) Company() entity.CompanyID {
	if o == nil || o.Index >= len(o.Order) {
		return ""
	}
	return o.Order[o.Index]
}
