package round

import (
	"cmp"
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

// Start auctions the start packet. The cheapest unsold item may be bought
// outright; other items collect bids that resolve when they become cheapest.
// When everyone passes the cheapest item gets cheaper, and at zero the next
// player must take it.
type Start struct{}

// Kind returns the start round kind.
func (Start) Kind() aggregate.RoundKind { return aggregate.RoundStart }

// Begin opens the auction with the priority holder.
func (Start) Begin(s *aggregate.State) error {
	s.Round.Start = &aggregate.StartRoundState{Current: s.Priority}
	s.Emit(event.New(event.TypeRoundStarted, "start round begins").With("round", string(aggregate.RoundStart)))
	return nil
}

// CurrentPlayer returns the player to act.
func (Start) CurrentPlayer(s *aggregate.State) entity.PlayerID {
	st := s.Round.Start
	switch {
	case st == nil:
		return ""
	case st.PendingPar != nil:
		return st.PendingPar.Player
	case st.Auction != "" && len(st.Bidders) > 0:
		return st.Bidders[st.BidderTurn%len(st.Bidders)]
	default:
		return st.Current
	}
}

// PossibleActions lists buys, bids, par and pass for the current player.
func (r Start) PossibleActions(s *aggregate.State) []action.Action {
	st := s.Round.Start
	if st == nil || r.Finished(s) {
		return nil
	}
	p := r.CurrentPlayer(s)
	if st.PendingPar != nil {
		return []action.Action{{Type: action.TypeSetPar, Player: p, Company: st.PendingPar.Company, ParPrices: s.Market.ParPrices()}}
	}
	var out []action.Action
	if st.Auction != "" {
		item := startItem(s, st.Auction)
		min := highestBid(item) + s.Rules.BidIncrement
		if max := freeCash(s, p) + item.Bids[p]; min <= max {
			out = append(out, action.Action{Type: action.TypeBidStartItem, Player: p, Item: item.ID, MinPrice: min, MaxPrice: max})
		}
		return append(out, action.Action{Type: action.TypePass, Player: p})
	}
	free := freeCash(s, p)
	cheapest := cheapestItem(s)
	if cheapest < 0 {
		return nil
	}
	for i := range s.StartPacket {
		item := &s.StartPacket[i]
		if item.Sold {
			continue
		}
		if i == cheapest || !s.Rules.BidsAllowed {
			if free >= item.Price {
				out = append(out, action.Action{Type: action.TypeBuyStartItem, Player: p, Item: item.ID, Price: item.Price})
			}
			continue
		}
		if st.ForcedBuy {
			continue
		}
		min := minimumBid(s, item)
		if max := free + item.Bids[p]; min <= max {
			out = append(out, action.Action{Type: action.TypeBidStartItem, Player: p, Item: item.ID, MinPrice: min, MaxPrice: max})
		}
	}
	if !st.ForcedBuy {
		out = append(out, action.Action{Type: action.TypePass, Player: p})
	}
	return out
}

// Process applies a start round action.
func (r Start) Process(s *aggregate.State, a action.Action) (bool, error) {
	st := s.Round.Start
	if st == nil {
		return false, apperrors.IllegalState("start round not initialised")
	}
	if p := r.CurrentPlayer(s); a.Player != p {
		return false, apperrors.IllegalAction("it is %s's turn, not %s's", p, a.Player)
	}
	switch a.Type {
	case action.TypeSetPar:
		return true, r.setPar(s, a)
	case action.TypeBuyStartItem:
		return true, r.buy(s, a)
	case action.TypeBidStartItem:
		return true, r.bid(s, a)
	case action.TypePass:
		return true, r.pass(s, a)
	default:
		return false, unsupported(r.Kind(), a)
	}
}

func (r Start) setPar(s *aggregate.State, a action.Action) error {
	st := s.Round.Start
	if st.PendingPar == nil || st.PendingPar.Company != a.Company {
		return apperrors.IllegalAction("no par price is pending for %s", a.Company)
	}
	if err := s.StartCompany(a.Company, a.Price); err != nil {
		return err
	}
	if err := s.CheckFloat(a.Company); err != nil {
		return err
	}
	st.PendingPar = nil
	return resolveBids(s)
}

func (r Start) buy(s *aggregate.State, a action.Action) error {
	st := s.Round.Start
	if st.PendingPar != nil || st.Auction != "" {
		return apperrors.IllegalAction("items cannot be bought now")
	}
	idx := startItemIndex(s, a.Item)
	if idx < 0 || s.StartPacket[idx].Sold {
		return apperrors.IllegalAction("start item %s is not for sale", a.Item)
	}
	if s.Rules.BidsAllowed && idx != cheapestItem(s) {
		return apperrors.IllegalAction("only the cheapest item can be bought")
	}
	item := &s.StartPacket[idx]
	if a.Price != item.Price {
		return apperrors.IllegalAction("%s costs %d, not %d", item.ID, item.Price, a.Price)
	}
	if free := freeCash(s, a.Player); free < item.Price {
		return apperrors.InsufficientFunds("%s has %d free, needs %d", a.Player, free, item.Price)
	}
	if err := sellItem(s, item, a.Player, item.Price); err != nil {
		return err
	}
	st.ConsecutivePasses = 0
	st.ForcedBuy = false
	st.Current = s.NextPlayer(a.Player)
	return resolveBids(s)
}

func (r Start) bid(s *aggregate.State, a action.Action) error {
	st := s.Round.Start
	item := startItem(s, a.Item)
	if item == nil || item.Sold {
		return apperrors.IllegalAction("start item %s is not open for bids", a.Item)
	}
	var min int
	if st.Auction != "" {
		if st.Auction != item.ID {
			return apperrors.IllegalAction("bidding is limited to %s", st.Auction)
		}
		min = highestBid(item) + s.Rules.BidIncrement
	} else {
		if !s.Rules.BidsAllowed || startItemIndex(s, item.ID) == cheapestItem(s) || st.ForcedBuy {
			return apperrors.IllegalAction("%s cannot be bid on", item.ID)
		}
		min = minimumBid(s, item)
	}
	if a.Price < min {
		return apperrors.IllegalAction("bid %d is below the minimum %d", a.Price, min)
	}
	if max := freeCash(s, a.Player) + item.Bids[a.Player]; a.Price > max {
		return apperrors.InsufficientFunds("%s can bid at most %d", a.Player, max)
	}
	if item.Bids == nil {
		item.Bids = make(map[entity.PlayerID]int)
	}
	item.Bids[a.Player] = a.Price
	s.Emit(event.New(event.TypeItemBid, "%s bids %d on %s", a.Player, a.Price, item.ID).
		With("player", string(a.Player)).With("item", item.ID).With("price", fmt.Sprint(a.Price)))
	if st.Auction != "" {
		st.BidderTurn = (st.BidderTurn + 1) % len(st.Bidders)
		return nil
	}
	st.ConsecutivePasses = 0
	st.Current = s.NextPlayer(a.Player)
	return nil
}

func (r Start) pass(s *aggregate.State, a action.Action) error {
	st := s.Round.Start
	if st.ForcedBuy && st.Auction == "" {
		return apperrors.IllegalAction("%s must buy the free item", a.Player)
	}
	if st.Auction != "" {
		item := startItem(s, st.Auction)
		delete(item.Bids, a.Player)
		idx := slices.Index(st.Bidders, a.Player)
		st.Bidders = slices.Delete(st.Bidders, idx, idx+1)
		if len(st.Bidders) > 0 {
			st.BidderTurn %= len(st.Bidders)
		}
		s.Emit(event.New(event.TypePlayerPassed, "%s leaves the auction for %s", a.Player, item.ID).With("player", string(a.Player)))
		if len(st.Bidders) > 1 {
			return nil
		}
		winner := st.Bidders[0]
		st.Auction, st.Bidders, st.BidderTurn = "", nil, 0
		st.Current = st.Resume
		st.Resume = ""
		if err := sellItem(s, item, winner, item.Bids[winner]); err != nil {
			return err
		}
		return resolveBids(s)
	}
	s.Emit(event.New(event.TypePlayerPassed, "%s passes", a.Player).With("player", string(a.Player)))
	st.ConsecutivePasses++
	st.Current = s.NextPlayer(a.Player)
	if st.ConsecutivePasses < len(s.Players) {
		return nil
	}
	st.ConsecutivePasses = 0
	idx := cheapestItem(s)
	if idx < 0 {
		return nil
	}
	item := &s.StartPacket[idx]
	if s.Rules.StartPriceReduction <= 0 {
		return s.PayPrivateRevenues()
	}
	item.Price = max(0, item.Price-s.Rules.StartPriceReduction)
	s.Emit(event.New(event.TypeItemPriceReduced, "%s reduced to %d", item.ID, item.Price).
		With("item", item.ID).With("price", fmt.Sprint(item.Price)))
	if item.Price == 0 {
		st.ForcedBuy = true
	}
	return nil
}

// Finished reports whether every item is sold and no par is pending.
func (Start) Finished(s *aggregate.State) bool {
	st := s.Round.Start
	if st == nil {
		return true
	}
	return cheapestItem(s) < 0 && st.PendingPar == nil && st.Auction == ""
}

// End hands priority to the player after the last buyer.
func (Start) End(s *aggregate.State) error {
	st := s.Round.Start
	if st != nil && st.LastBuyer != "" {
		s.Priority = s.NextPlayer(st.LastBuyer)
		s.Emit(event.New(event.TypePriorityChanged, "%s has priority", s.Priority).With("player", string(s.Priority)))
	}
	s.Emit(event.New(event.TypeRoundEnded, "start round ends").With("round", string(aggregate.RoundStart)))
	s.Round.Start = nil
	return nil
}

// Help summarises the legal actions.
func (r Start) Help(s *aggregate.State) string {
	return help("Start round", s, r)
}

func sellItem(s *aggregate.State, item *aggregate.StartItem, player entity.PlayerID, price int) error {
	st := s.Round.Start
	holder := portfolio.PlayerHolder(player)
	if err := s.Ledger.TransferCash(holder, portfolio.Bank, price); err != nil {
		return err
	}
	if item.Private != "" {
		if err := s.Ledger.MoveCertificate(aggregate.PrivateCertificateID(item.Private), portfolio.Bank, holder); err != nil {
			return err
		}
	}
	for _, id := range item.Certificates {
		if err := s.Ledger.MoveCertificate(id, portfolio.IPO, holder); err != nil {
			return err
		}
		cert, _ := s.Ledger.Certificate(id)
		if err := s.CheckPresidency(cert.Company); err != nil {
			return err
		}
		if cert.President {
			st.PendingPar = &aggregate.PendingPar{Player: player, Company: cert.Company}
		}
	}
	item.Sold = true
	item.Buyer = player
	item.Price = price
	item.Bids = nil
	st.LastBuyer = player
	s.Emit(event.New(event.TypeItemBought, "%s buys %s for %d", player, item.ID, price).
		With("player", string(player)).With("item", item.ID).With("price", fmt.Sprint(price)))
	return nil
}

// resolveBids settles bids on the cheapest item: a single bidder buys at the
// bid, several bidders start a bid-off led by the lowest bidder.
func resolveBids(s *aggregate.State) error {
	st := s.Round.Start
	for st.PendingPar == nil && st.Auction == "" {
		idx := cheapestItem(s)
		if idx < 0 {
			return nil
		}
		item := &s.StartPacket[idx]
		if len(item.Bids) == 0 {
			return nil
		}
		bidders := make([]entity.PlayerID, 0, len(item.Bids))
		for _, p := range s.PlayerIDs() {
			if _, ok := item.Bids[p]; ok {
				bidders = append(bidders, p)
			}
		}
		if len(bidders) == 1 {
			if err := sellItem(s, item, bidders[0], item.Bids[bidders[0]]); err != nil {
				return err
			}
			continue
		}
		slices.SortStableFunc(bidders, func(a, b entity.PlayerID) int {
			return cmp.Compare(item.Bids[a], item.Bids[b])
		})
		st.Auction = item.ID
		st.Bidders = bidders
		st.BidderTurn = 0
		st.Resume = st.Current
	}
	return nil
}

func startItemIndex(s *aggregate.State, id string) int {
	for i, item := range s.StartPacket {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func startItem(s *aggregate.State, id string) *aggregate.StartItem {
	if i := startItemIndex(s, id); i >= 0 {
		return &s.StartPacket[i]
	}
	return nil
}

func cheapestItem(s *aggregate.State) int {
	for i, item := range s.StartPacket {
		if !item.Sold {
			return i
		}
	}
	return -1
}

func highestBid(item *aggregate.StartItem) int {
	high := 0
	for _, bid := range item.Bids {
		high = max(high, bid)
	}
	return high
}

func minimumBid(s *aggregate.State, item *aggregate.StartItem) int {
	if high := highestBid(item); high > 0 {
		return high + s.Rules.BidIncrement
	}
	return item.Price + s.Rules.BidIncrement
}

// blockedCash is the money a player has committed to open bids.
func blockedCash(s *aggregate.State, player entity.PlayerID) int {
	blocked := 0
	for _, item := range s.StartPacket {
		if !item.Sold {
			blocked += item.Bids[player]
		}
	}
	return blocked
}

func freeCash(s *aggregate.State, player entity.PlayerID) int {
	return s.Cash(player) - blockedCash(s, player)
}
