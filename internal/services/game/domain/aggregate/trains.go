package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/phase"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// IPOTrainCounts returns the number of trains per type left in the IPO.
func (s *State) IPOTrainCounts() map[string]int {
	return s.Ledger.TrainCounts(portfolio.IPO)
}

// NextIPOTrain returns the next train sold by the IPO.
func (s *State) NextIPOTrain() (train.Train, train.Type, bool) {
	typ, ok := s.Trains.NextAvailable(s.IPOTrainCounts())
	if !ok {
		return train.Train{}, train.Type{}, false
	}
	for _, t := range s.Ledger.TrainsOf(portfolio.IPO) {
		if t.Type == typ.Name {
			return t, typ, true
		}
	}
	return train.Train{}, train.Type{}, false
}

// TrainLimit returns the current per-company train limit.
func (s *State) TrainLimit() int {
	return s.Phases.CurrentPhase().TrainLimit
}

// BuyTrain moves a train to company and pays for it. Purchases from the IPO
// count toward rusting and phase triggers.
func (s *State) BuyTrain(company entity.CompanyID, id train.ID, from portfolio.Holder, price int) error {
	buyer := portfolio.CompanyHolder(company)
	t, ok := s.Ledger.Trains[id]
	if !ok {
		return apperrors.NotHeld("unknown train %s", id)
	}
	payee := from
	if from.IsBank() {
		payee = portfolio.Bank
	}
	if s.Ledger.Cash(buyer) < price {
		return apperrors.InsufficientFunds("%s has %d, needs %d", company, s.Ledger.Cash(buyer), price)
	}
	if err := s.Ledger.MoveTrain(id, from, buyer); err != nil {
		return err
	}
	if err := s.Ledger.TransferCash(buyer, payee, price); err != nil {
		return err
	}
	s.Emit(event.New(event.TypeTrainBought, "%s buys a %s-train from %s for %d", company, t.Type, from, price).
		With("company", string(company)).With("train", string(id)).With("from", string(from)))
	if from != portfolio.IPO {
		return nil
	}
	count, rusted := s.Trains.RecordPurchase(t.Type)
	if err := s.RustTrains(rusted); err != nil {
		return err
	}
	tr, changed, err := s.Phases.OnTrainBought(t.Type, count)
	if err != nil {
		return err
	}
	if changed {
		return s.ApplyPhaseTransition(tr)
	}
	return nil
}

// RustTrains scraps every train of the given types.
func (s *State) RustTrains(types []string) error {
	if len(types) == 0 {
		return nil
	}
	for _, id := range sortedTrainIDs(s.Ledger.Trains) {
		t := s.Ledger.Trains[id]
		if !slices.Contains(types, t.Type) {
			continue
		}
		holder, ok := s.Ledger.TrainHolderOf(id)
		if !ok || holder == portfolio.Scrapyard {
			continue
		}
		if err := s.Ledger.MoveTrain(id, holder, portfolio.Scrapyard); err != nil {
			return err
		}
	}
	for _, typ := range types {
		s.Emit(event.New(event.TypeTrainsRusted, "%s-trains rust", typ).With("type", typ))
	}
	return nil
}

// ApplyPhaseTransition runs the effects of entering each passed phase.
func (s *State) ApplyPhaseTransition(tr phase.Transition) error {
	for _, name := range tr.Passed {
		p, ok := s.Phases.Phase(name)
		if !ok {
			return apperrors.IllegalState("unknown phase %s", name)
		}
		s.Emit(event.New(event.TypePhaseChanged, "phase %s begins", name).With("phase", name))
		if err := s.ClosePrivatesAtPhase(name, p.ClosePrivates); err != nil {
			return err
		}
	}
	return s.EnforceTrainLimits()
}

// EnforceTrainLimits discards trains above the current limit to the pool,
// cheapest first.
func (s *State) EnforceTrainLimits() error {
	limit := s.TrainLimit()
	if limit <= 0 {
		return nil
	}
	for _, id := range s.PublicOrder {
		holder := portfolio.CompanyHolder(id)
		trains := s.Ledger.TrainsOf(holder)
		if len(trains) <= limit {
			continue
		}
		slices.SortStableFunc(trains, func(a, b train.Train) int {
			return cmp.Compare(s.Trains.Index(a.Type), s.Trains.Index(b.Type))
		})
		for _, t := range trains[:len(trains)-limit] {
			if err := s.Ledger.MoveTrain(t.ID, holder, portfolio.Pool); err != nil {
				return err
			}
			s.Emit(event.New(event.TypeTrainDiscarded, "%s discards a %s-train over the limit of %d", id, t.Type, limit).
				With("company", string(id)).With("train", string(t.ID)).With("limit", fmt.Sprint(limit)))
		}
	}
	return nil
}

func sortedTrainIDs(trains map[train.ID]train.Train) []train.ID {
	out := make([]train.ID, 0, len(trains))
	for id := range trains {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
