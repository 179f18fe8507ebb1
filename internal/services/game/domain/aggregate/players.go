package aggregate

import (
	"cmp"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

// Player returns a player by id.
func (s *State) Player(id entity.PlayerID) (entity.Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return entity.Player{}, false
}

// PlayerIDs returns the player ids in seat order.
func (s *State) PlayerIDs() []entity.PlayerID {
	out := make([]entity.PlayerID, len(s.Players))
	for i, p := range s.Players {
		out[i] = p.ID
	}
	return out
}

// NextPlayer returns the player seated after id.
func (s *State) NextPlayer(id entity.PlayerID) entity.PlayerID {
	for i, p := range s.Players {
		if p.ID == id {
			return s.Players[(i+1)%len(s.Players)].ID
		}
	}
	return s.Players[0].ID
}

// PlayersAfter returns every other player in seat order starting after id.
func (s *State) PlayersAfter(id entity.PlayerID) []entity.PlayerID {
	start := 0
	for i, p := range s.Players {
		if p.ID == id {
			start = i
			break
		}
	}
	out := make([]entity.PlayerID, 0, len(s.Players)-1)
	for i := 1; i < len(s.Players); i++ {
		out = append(out, s.Players[(start+i)%len(s.Players)].ID)
	}
	return out
}

// Cash returns a player's cash.
func (s *State) Cash(id entity.PlayerID) int {
	return s.Ledger.Cash(portfolio.PlayerHolder(id))
}

// Public returns a public company by id.
func (s *State) Public(id entity.CompanyID) (*entity.PublicCompany, error) {
	c, ok := s.Publics[id]
	if !ok {
		return nil, apperrors.IllegalAction("unknown public company %s", id)
	}
	return c, nil
}

// Private returns a private company by id.
func (s *State) Private(id entity.CompanyID) (*entity.PrivateCompany, error) {
	p, ok := s.Privates[id]
	if !ok {
		return nil, apperrors.IllegalAction("unknown private company %s", id)
	}
	return p, nil
}

// PrivateHolder returns the holder of a private company.
func (s *State) PrivateHolder(id entity.CompanyID) (portfolio.Holder, bool) {
	return s.Ledger.HolderOf(PrivateCertificateID(id))
}

// PrivatesOf returns the open private companies held by holder in definition order.
func (s *State) PrivatesOf(holder portfolio.Holder) []*entity.PrivateCompany {
	var out []*entity.PrivateCompany
	for _, id := range s.PrivateOrder {
		p := s.Privates[id]
		if p.Closed {
			continue
		}
		if h, ok := s.PrivateHolder(id); ok && h == holder {
			out = append(out, p)
		}
	}
	return out
}

// CertificateCount returns the number of certificates counted against a player's limit.
func (s *State) CertificateCount(id entity.PlayerID) int {
	return s.Ledger.CertificateCount(portfolio.PlayerHolder(id), nil)
}

// Standing is a player's final or current worth.
type Standing struct {
	Player entity.PlayerID `json:"player"`
	Cash   int             `json:"cash"`
	Worth  int             `json:"worth"`
}

// Worth returns a player's cash plus the market value of their shares and the
// face value of their open private companies.
func (s *State) Worth(id entity.PlayerID) int {
	holder := portfolio.PlayerHolder(id)
	worth := s.Ledger.Cash(holder)
	for _, cert := range s.Ledger.AllCertificates(holder) {
		if cert.IsShare() {
			worth += s.Market.Price(cert.Company) * cert.Percent / s.Rules.ShareUnit
			continue
		}
		if p, ok := s.Privates[cert.Company]; ok && !p.Closed {
			worth += p.FacePrice
		}
	}
	return worth
}

// Standings ranks players by worth, richest first; seat order breaks ties.
func (s *State) Standings() []Standing {
	out := make([]Standing, len(s.Players))
	for i, p := range s.Players {
		out[i] = Standing{Player: p.ID, Cash: s.Cash(p.ID), Worth: s.Worth(p.ID)}
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		return cmp.Compare(b.Worth, a.Worth)
	})
	return out
}
