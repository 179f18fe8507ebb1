package definition

import (
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/phase"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// Build returns the initial state of a game of this title for players. The
// state has no round cursor; engine.New opens the first round.
func (d Definition) Build(players []entity.Player) (*aggregate.State, error) {
	n := len(players)
	if n < d.MinPlayers || n > d.MaxPlayers {
		return nil, apperrors.Configuration("%s is for %d-%d players, got %d", d.Name, d.MinPlayers, d.MaxPlayers, n)
	}
	rules := d.Rules
	if limit, ok := d.CertLimits[n]; ok {
		rules.CertLimit = limit
	}
	cells, err := d.Market.Cells()
	if err != nil {
		return nil, err
	}
	mkt, err := market.New(cells, d.Market.Rules)
	if err != nil {
		return nil, err
	}
	phases, err := phase.New(slices.Clone(d.Phases))
	if err != nil {
		return nil, err
	}
	trains, err := train.NewManager(slices.Clone(d.Trains))
	if err != nil {
		return nil, err
	}
	s, err := aggregate.NewState(players, rules, mkt, phases, trains)
	if err != nil {
		return nil, err
	}

	for _, c := range d.Companies {
		company := entity.PublicCompany{
			ID:             c.ID,
			Name:           c.Name,
			FloatPercent:   c.FloatPercent,
			Capitalisation: c.Capitalisation,
			HomeHex:        c.HomeHex,
			TokensTotal:    c.Tokens,
			TokenCosts:     slices.Clone(c.TokenCosts),
		}
		if err := s.AddPublic(company, shares(c)); err != nil {
			return nil, err
		}
	}
	for _, p := range d.Privates {
		if err := s.AddPrivate(p.entity()); err != nil {
			return nil, err
		}
	}
	if err := s.AddTrains(); err != nil {
		return nil, err
	}
	if err := s.Fund(d.Bank, d.Cash[n]); err != nil {
		return nil, err
	}

	items := make([]aggregate.StartItem, 0, len(d.Packet))
	for _, item := range d.Packet {
		si := aggregate.StartItem{ID: item.ID, Name: item.Name, BasePrice: item.Price, Private: item.Private}
		for _, ref := range item.Certificates {
			si.Certificates = append(si.Certificates, certificate.ID(ref))
		}
		items = append(items, si)
	}
	if err := s.SetStartPacket(items); err != nil {
		return nil, err
	}
	s.Hexes = slices.Clone(d.Hexes)
	s.TileColors = slices.Clone(d.TileColors)

	if err := s.CheckInvariants(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfiguration, "built state", err)
	}
	return s, nil
}

// Players seats n players named player1..playerN.
func Players(n int) []entity.Player {
	players := make([]entity.Player, n)
	for i := range players {
		id := entity.PlayerID(fmt.Sprintf("player%d", i+1))
		players[i] = entity.Player{ID: id, Name: string(id), Seat: i}
	}
	return players
}

func shares(c Company) []certificate.Certificate {
	certs := make([]certificate.Certificate, len(c.Shares))
	for i, pct := range c.Shares {
		id := certificate.ID(fmt.Sprintf("%s-%d", c.ID, i))
		certs[i] = certificate.NewShare(id, c.ID, pct, i == 0)
	}
	return certs
}

func (p Private) entity() entity.PrivateCompany {
	out := entity.PrivateCompany{
		ID:           p.ID,
		Name:         p.Name,
		FacePrice:    p.Face,
		Revenue:      p.Revenue,
		BlockedHexes: slices.Clone(p.Blocks),
		Closing: entity.Closing{
			IfAllExercised: p.Closing.IfAllExercised,
			IfAnyExercised: p.Closing.IfAnyExercised,
			AtEndOfORTurn:  p.Closing.AtEndOfORTurn,
			AtPhase:        p.Closing.AtPhase,
		},
	}
	for _, sp := range p.Special {
		out.Specials = append(out.Specials, entity.SpecialProperty{ID: sp.ID, Kind: sp.Kind, Hex: sp.Hex, Company: sp.Company})
	}
	return out
}
