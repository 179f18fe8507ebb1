package round

import (
	"maps"

	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

// StartItemView is the read model of one start packet item.
type StartItemView struct {
	Item       string                  `json:"item"`
	Name       string                  `json:"name"`
	Price      int                     `json:"price"`
	MinimumBid int                     `json:"minimum_bid"`
	Bids       map[entity.PlayerID]int `json:"bids,omitempty"`
	Bidders    []entity.PlayerID       `json:"bidders,omitempty"`
	Buyable    bool                    `json:"buyable"`
	Sold       bool                    `json:"sold"`
	Buyer      entity.PlayerID         `json:"buyer,omitempty"`
}

// BidderView is the read model of a player's cash during the start round.
type BidderView struct {
	Player  entity.PlayerID `json:"player"`
	Cash    int             `json:"cash"`
	Blocked int             `json:"blocked"`
	Free    int             `json:"free"`
}

// StartItems returns the start packet read model.
func StartItems(s *aggregate.State) []StartItemView {
	cheapest := cheapestItem(s)
	out := make([]StartItemView, 0, len(s.StartPacket))
	for i := range s.StartPacket {
		item := &s.StartPacket[i]
		view := StartItemView{
			Item:    item.ID,
			Name:    item.Name,
			Price:   item.Price,
			Bids:    maps.Clone(item.Bids),
			Buyable: !item.Sold && (i == cheapest || !s.Rules.BidsAllowed),
			Sold:    item.Sold,
			Buyer:   item.Buyer,
		}
		if !item.Sold {
			view.MinimumBid = minimumBid(s, item)
			for _, p := range s.PlayerIDs() {
				if _, ok := item.Bids[p]; ok {
					view.Bidders = append(view.Bidders, p)
				}
			}
		}
		out = append(out, view)
	}
	return out
}

// Bidders returns every player's cash, blocked bids and free cash.
func Bidders(s *aggregate.State) []BidderView {
	out := make([]BidderView, 0, len(s.Players))
	for _, p := range s.Players {
		blocked := blockedCash(s, p.ID)
		cash := s.Cash(p.ID)
		out = append(out, BidderView{Player: p.ID, Cash: cash, Blocked: blocked, Free: cash - blocked})
	}
	return out
}
