package aggregate

import (
	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

// OperatingCompanies returns the floated open companies in market order.
func (s *State) OperatingCompanies() []entity.CompanyID {
	var floated []entity.CompanyID
	for _, id := range s.PublicOrder {
		c := s.Publics[id]
		if c.Floated && c.Status != entity.StatusClosed {
			floated = append(floated, id)
		}
	}
	return s.Market.OperatingOrder(floated)
}

// AnyFloated reports whether at least one company has floated.
func (s *State) AnyFloated() bool {
	for _, c := range s.Publics {
		if c.Floated {
			return true
		}
	}
	return false
}

// CheckInvariants verifies the ownership and market invariants.
func (s *State) CheckInvariants() error {
	for _, id := range s.PublicOrder {
		if total := s.Ledger.CompanyPercentTotal(id); total != 100 {
			return apperrors.IllegalState("shares of %s sum to %d%%", id, total)
		}
		c := s.Publics[id]
		_, placed := s.Market.Position(id)
		if c.Started() != placed {
			return apperrors.IllegalState("%s started=%v but market token placed=%v", id, c.Started(), placed)
		}
		if pos, ok := s.Market.Position(id); ok {
			if _, exists := s.Market.Cell(pos); !exists {
				return apperrors.IllegalState("%s token at %v is off the market", id, pos)
			}
		}
		if err := s.checkPresident(id); err != nil {
			return err
		}
	}
	for id, cert := range s.Ledger.Certificates {
		if _, held := s.Ledger.HolderOf(id); held {
			continue
		}
		if p, ok := s.Privates[cert.Company]; ok && p.Closed {
			continue
		}
		return apperrors.IllegalState("certificate %s has no holder", id)
	}
	for id := range s.Ledger.Trains {
		if _, held := s.Ledger.TrainHolderOf(id); !held {
			return apperrors.IllegalState("train %s has no holder", id)
		}
	}
	if total := s.Ledger.TotalCash(); total != s.CashTotal {
		return apperrors.IllegalState("cash total %d, want %d", total, s.CashTotal)
	}
	return nil
}

func (s *State) checkPresident(id entity.CompanyID) error {
	c := s.Publics[id]
	presCert, ok := s.PresidentCertificate(id)
	if !ok {
		return apperrors.IllegalState("%s has no president certificate", id)
	}
	holder, _ := s.Ledger.HolderOf(presCert.ID)
	president, isPlayer := holder.Player()
	if !isPlayer {
		if c.President != "" {
			return apperrors.IllegalState("%s names president %s without the certificate", id, c.President)
		}
		return nil
	}
	if c.President != president {
		return apperrors.IllegalState("%s president is %s but %s holds the certificate", id, c.President, president)
	}
	presPct := s.Ledger.ShareCount(holder, id)
	for _, p := range s.Players {
		if p.ID == president {
			continue
		}
		if pct := s.Ledger.ShareCount(portfolio.PlayerHolder(p.ID), id); pct > presPct {
			return apperrors.IllegalState("%s holds %d%% of %s, more than president %s", p.ID, pct, id, president)
		}
	}
	return nil
}
