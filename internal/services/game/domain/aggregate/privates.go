package aggregate

import (
	"fmt"

	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

// ClosePrivate closes a private company and discards its certificate.
func (s *State) ClosePrivate(id entity.CompanyID, reason string) error {
	p, err := s.Private(id)
	if err != nil {
		return err
	}
	if p.Closed {
		return nil
	}
	p.Closed = true
	if _, held := s.PrivateHolder(id); held {
		if err := s.Ledger.Discard(PrivateCertificateID(id)); err != nil {
			return err
		}
	}
	s.Emit(event.New(event.TypePrivateClosed, "%s closes (%s)", id, reason).
		With("private", string(id)).With("reason", reason))
	return nil
}

// CheckClosingIfExercised closes the private when its exercised-based closing
// predicate holds. endOfOR is true at the end of the owning company's turn.
func (s *State) CheckClosingIfExercised(id entity.CompanyID, endOfOR bool) (bool, error) {
	p, err := s.Private(id)
	if err != nil {
		return false, err
	}
	if !p.ShouldClose(endOfOR) {
		return false, nil
	}
	if err := s.ClosePrivate(id, "special properties exercised"); err != nil {
		return false, err
	}
	return true, nil
}

// PayPrivateRevenues pays every open private's revenue to its holder.
// Privates still owned by the bank pay nothing.
func (s *State) PayPrivateRevenues() error {
	for _, id := range s.PrivateOrder {
		p := s.Privates[id]
		if p.Closed || p.Revenue == 0 {
			continue
		}
		holder, ok := s.PrivateHolder(id)
		if !ok || holder.IsBank() {
			continue
		}
		if err := s.Ledger.TransferCash(portfolio.Bank, holder, p.Revenue); err != nil {
			return err
		}
		s.Emit(event.New(event.TypePrivateRevenue, "%s pays %d to %s", id, p.Revenue, holder).
			With("private", string(id)).With("holder", string(holder)).With("amount", fmt.Sprint(p.Revenue)))
	}
	return nil
}

// BlockedHexes maps each hex reserved by an open private to that private.
func (s *State) BlockedHexes() map[string]entity.CompanyID {
	out := make(map[string]entity.CompanyID)
	for _, id := range s.PrivateOrder {
		p := s.Privates[id]
		if p.Closed {
			continue
		}
		for _, hex := range p.BlockedHexes {
			out[hex] = id
		}
	}
	return out
}

// BlockingPrivate returns the private that keeps company from building on hex.
// A company owning the private is not blocked by it.
func (s *State) BlockingPrivate(hex string, company entity.CompanyID) entity.CompanyID {
	private, ok := s.BlockedHexes()[hex]
	if !ok {
		return ""
	}
	if holder, held := s.PrivateHolder(private); held && holder == portfolio.CompanyHolder(company) {
		return ""
	}
	return private
}

// ClosePrivatesAtPhase closes privates tied to the named phase, or all of them
// when closeAll is set.
func (s *State) ClosePrivatesAtPhase(name string, closeAll bool) error {
	for _, id := range s.PrivateOrder {
		p := s.Privates[id]
		if p.Closed {
			continue
		}
		if closeAll || p.Closing.AtPhase == name {
			if err := s.ClosePrivate(id, "phase "+name); err != nil {
				return err
			}
		}
	}
	return nil
}
