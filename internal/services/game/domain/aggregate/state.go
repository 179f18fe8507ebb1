package aggregate

import (
	"maps"
	"slices"
	"strconv"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/board"
	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/phase"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// SellBuyScope is how long a sale blocks buying the same company.
type SellBuyScope string

const (
	// SellBuyTurn blocks buying back for the rest of the turn.
	SellBuyTurn SellBuyScope = "turn"
	// SellBuyRound blocks buying back for the rest of the stock round.
	SellBuyRound SellBuyScope = "round"
)

// EndKind names a game-ending condition.
type EndKind string

const (
	EndGameOverCell EndKind = "game_over_cell"
	EndBankBroken   EndKind = "bank_broken"
	EndBankruptcy   EndKind = "bankruptcy"
	EndLastPhase    EndKind = "last_phase"
)

// EndTiming is when a triggered end condition finishes the game.
type EndTiming string

const (
	// EndImmediate ends the game as soon as the condition fires.
	EndImmediate EndTiming = "immediate"
	// EndOfSet ends the game after the current set of operating rounds.
	EndOfSet EndTiming = "end_of_set"
)

// EndCondition is a configured game end.
type EndCondition struct {
	Kind   EndKind   `json:"kind" yaml:"kind"`
	Timing EndTiming `json:"timing" yaml:"timing"`
}

// Rules are the game-wide rule parameters.
type Rules struct {
	ShareUnit            int          `json:"share_unit" yaml:"share_unit"`
	CertLimit            int          `json:"cert_limit" yaml:"cert_limit"`
	MaxPercent           int          `json:"max_percent" yaml:"max_percent"`
	PoolLimit            int          `json:"pool_limit" yaml:"pool_limit"`
	NoSaleInFirstSR      bool         `json:"no_sale_in_first_sr" yaml:"no_sale_in_first_sr"`
	SellRequiresOperated bool         `json:"sell_requires_operated" yaml:"sell_requires_operated"`
	SellBuyRestriction   SellBuyScope `json:"sell_buy_restriction" yaml:"sell_buy_restriction"`
	BidsAllowed          bool         `json:"bids_allowed" yaml:"bids_allowed"`
	BidIncrement         int          `json:"bid_increment" yaml:"bid_increment"`
	StartPriceReduction  int          `json:"start_price_reduction" yaml:"start_price_reduction"`
	// IPODividendsToCompany pays dividends of IPO shares to the company instead of the bank.
	IPODividendsToCompany bool `json:"ipo_dividends_to_company" yaml:"ipo_dividends_to_company"`
	// PoolDividendsToCompany pays dividends of pool shares to the company instead of the bank.
	PoolDividendsToCompany bool           `json:"pool_dividends_to_company" yaml:"pool_dividends_to_company"`
	TileLaysPerTurn        int            `json:"tile_lays_per_turn" yaml:"tile_lays_per_turn"`
	MustBuyTrain           bool           `json:"must_buy_train" yaml:"must_buy_train"`
	MaxRevenuePerTrain     int            `json:"max_revenue_per_train" yaml:"max_revenue_per_train"`
	EndConditions          []EndCondition `json:"end_conditions" yaml:"end_conditions"`
}

// EndTiming returns the configured timing for kind.
func (r Rules) EndTiming(kind EndKind) (EndTiming, bool) {
	for _, c := range r.EndConditions {
		if c.Kind == kind {
			return c.Timing, true
		}
	}
	return "", false
}

// StartItem is one lot of the start packet.
type StartItem struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	BasePrice    int                     `json:"base_price"`
	Price        int                     `json:"price"`
	Private      entity.CompanyID        `json:"private,omitempty"`
	Certificates []certificate.ID        `json:"certificates,omitempty"`
	Sold         bool                    `json:"sold"`
	Buyer        entity.PlayerID         `json:"buyer,omitempty"`
	Bids         map[entity.PlayerID]int `json:"bids,omitempty"`
}

// Ending records a fired end condition.
type Ending struct {
	Kind   EndKind   `json:"kind"`
	Timing EndTiming `json:"timing"`
}

// State is the whole game.
type State struct {
	Players      []entity.Player                             `json:"players"`
	Publics      map[entity.CompanyID]*entity.PublicCompany  `json:"publics"`
	Privates     map[entity.CompanyID]*entity.PrivateCompany `json:"privates"`
	PublicOrder  []entity.CompanyID                          `json:"public_order"`
	PrivateOrder []entity.CompanyID                          `json:"private_order"`
	StartPacket  []StartItem                                 `json:"start_packet"`
	Hexes        []board.Hex                                 `json:"hexes"`
	TileColors   []string                                    `json:"tile_colors"`

	Ledger *portfolio.Ledger `json:"ledger"`
	Market *market.Market    `json:"market"`
	Phases *phase.Manager    `json:"phases"`
	Trains *train.Manager    `json:"trains"`
	Board  board.Record      `json:"board"`
	Rules  Rules             `json:"rules"`

	Round    RoundState      `json:"round"`
	Priority entity.PlayerID `json:"priority"`
	// CashTotal is the money in the game, constant after setup.
	CashTotal int               `json:"cash_total"`
	Bankrupt  []entity.PlayerID `json:"bankrupt,omitempty"`
	Pending   *Ending           `json:"pending,omitempty"`
	Over      bool              `json:"over"`
	Ended     *Ending           `json:"ended,omitempty"`
	Log       event.Log         `json:"log"`
}

// NewState returns a state with seated players and empty portfolios.
func NewState(players []entity.Player, rules Rules, mkt *market.Market, phases *phase.Manager, trains *train.Manager) (*State, error) {
	if len(players) < 2 {
		return nil, apperrors.Configuration("at least two players are required, got %d", len(players))
	}
	if mkt == nil || phases == nil || trains == nil {
		return nil, apperrors.Configuration("market, phases and trains are required")
	}
	if rules.ShareUnit <= 0 {
		rules.ShareUnit = 10
	}
	if rules.TileLaysPerTurn <= 0 {
		rules.TileLaysPerTurn = 1
	}
	if rules.SellBuyRestriction == "" {
		rules.SellBuyRestriction = SellBuyTurn
	}
	s := &State{
		Publics:  make(map[entity.CompanyID]*entity.PublicCompany),
		Privates: make(map[entity.CompanyID]*entity.PrivateCompany),
		Ledger:   portfolio.NewLedger(),
		Market:   mkt,
		Phases:   phases,
		Trains:   trains,
		Board:    board.NewRecord(),
		Rules:    rules,
	}
	seen := make(map[entity.PlayerID]bool, len(players))
	for i, p := range players {
		if p.ID == "" {
			return nil, apperrors.Configuration("player %d has no id", i)
		}
		if seen[p.ID] {
			return nil, apperrors.Configuration("duplicate player %s", p.ID)
		}
		seen[p.ID] = true
		p.Seat = i
		if p.Name == "" {
			p.Name = string(p.ID)
		}
		s.Players = append(s.Players, p)
		s.Ledger.AddPortfolio(portfolio.PlayerHolder(p.ID))
	}
	s.Priority = s.Players[0].ID
	return s, nil
}

// AddPublic registers a public company and issues its certificates to the IPO.
func (s *State) AddPublic(c entity.PublicCompany, certs []certificate.Certificate) error {
	if c.ID == "" {
		return apperrors.Configuration("public company id is required")
	}
	if s.companyExists(c.ID) {
		return apperrors.Configuration("duplicate company %s", c.ID)
	}
	total, presidents := 0, 0
	for _, cert := range certs {
		if cert.Company != c.ID || !cert.IsShare() {
			return apperrors.Configuration("certificate %s does not belong to %s", cert.ID, c.ID)
		}
		if cert.Percent <= 0 || cert.Percent%s.Rules.ShareUnit != 0 {
			return apperrors.Configuration("certificate %s percent %d is not a multiple of %d", cert.ID, cert.Percent, s.Rules.ShareUnit)
		}
		total += cert.Percent
		if cert.President {
			presidents++
		}
	}
	if total != 100 {
		return apperrors.Configuration("certificates of %s sum to %d%%, want 100%%", c.ID, total)
	}
	if presidents != 1 {
		return apperrors.Configuration("%s needs exactly one president certificate, got %d", c.ID, presidents)
	}
	if c.Capitalisation == "" {
		c.Capitalisation = entity.CapitalisationFull
	}
	if c.FloatPercent <= 0 {
		c.FloatPercent = 60
	}
	c.Status = entity.StatusNotStarted
	company := c
	s.Publics[c.ID] = &company
	s.PublicOrder = append(s.PublicOrder, c.ID)
	s.Ledger.AddPortfolio(portfolio.CompanyHolder(c.ID))
	for _, cert := range certs {
		if err := s.Ledger.IssueCertificate(cert, portfolio.IPO); err != nil {
			return apperrors.Wrap(apperrors.CodeConfiguration, "issue certificate", err)
		}
	}
	return nil
}

// AddPrivate registers a private company. Its certificate starts with the bank.
func (s *State) AddPrivate(p entity.PrivateCompany) error {
	if p.ID == "" {
		return apperrors.Configuration("private company id is required")
	}
	if s.companyExists(p.ID) {
		return apperrors.Configuration("duplicate company %s", p.ID)
	}
	for _, sp := range p.Specials {
		if sp.Kind == entity.SpecialExchange {
			if _, ok := s.Publics[sp.Company]; !ok {
				return apperrors.Configuration("private %s exchanges for unknown company %s", p.ID, sp.Company)
			}
		}
	}
	if p.Closing.AtPhase != "" {
		if _, ok := s.Phases.Phase(p.Closing.AtPhase); !ok {
			return apperrors.Configuration("private %s closes at unknown phase %s", p.ID, p.Closing.AtPhase)
		}
	}
	private := p
	private.Specials = slices.Clone(p.Specials)
	s.Privates[p.ID] = &private
	s.PrivateOrder = append(s.PrivateOrder, p.ID)
	if err := s.Ledger.IssueCertificate(certificate.NewPrivate(PrivateCertificateID(p.ID), p.ID), portfolio.Bank); err != nil {
		return apperrors.Wrap(apperrors.CodeConfiguration, "issue private certificate", err)
	}
	return nil
}

// AddTrains issues every train of every type to the IPO.
func (s *State) AddTrains() error {
	for _, typ := range s.Trains.Types {
		for i := 0; i < typ.Quantity; i++ {
			t := train.Train{ID: TrainID(typ.Name, i), Type: typ.Name}
			if err := s.Ledger.IssueTrain(t, portfolio.IPO); err != nil {
				return apperrors.Wrap(apperrors.CodeConfiguration, "issue train", err)
			}
		}
	}
	return nil
}

// Fund gives the bank its cash and pays each player the starting capital.
func (s *State) Fund(bankCash, playerCash int) error {
	if bankCash <= 0 || playerCash <= 0 {
		return apperrors.Configuration("bank and player cash must be positive")
	}
	bank, _ := s.Ledger.Portfolio(portfolio.Bank)
	bank.Cash = bankCash
	for _, p := range s.Players {
		if err := s.Ledger.TransferCash(portfolio.Bank, portfolio.PlayerHolder(p.ID), playerCash); err != nil {
			return err
		}
	}
	if s.Ledger.Cash(portfolio.Bank) < 0 {
		return apperrors.Configuration("bank cash %d cannot fund %d players", bankCash, len(s.Players))
	}
	s.CashTotal = s.Ledger.TotalCash()
	return nil
}

// SetStartPacket sets the start packet items.
func (s *State) SetStartPacket(items []StartItem) error {
	for _, item := range items {
		if item.Private != "" {
			if _, ok := s.Privates[item.Private]; !ok {
				return apperrors.Configuration("start item %s names unknown private %s", item.ID, item.Private)
			}
		}
		for _, id := range item.Certificates {
			if h, ok := s.Ledger.HolderOf(id); !ok || h != portfolio.IPO {
				return apperrors.Configuration("start item %s names unavailable certificate %s", item.ID, id)
			}
		}
		if item.Price == 0 {
			item.Price = item.BasePrice
		}
		item.Bids = nil
		s.StartPacket = append(s.StartPacket, item)
	}
	return nil
}

func (s *State) companyExists(id entity.CompanyID) bool {
	_, public := s.Publics[id]
	_, private := s.Privates[id]
	return public || private
}

// PrivateCertificateID returns the certificate id of a private company.
func PrivateCertificateID(id entity.CompanyID) certificate.ID {
	return certificate.ID(id)
}

// TrainID returns the id of the n-th train of a type.
func TrainID(typ string, n int) train.ID {
	return train.ID(typ + "-" + strconv.Itoa(n))
}

// Emit appends an event to the report log.
func (s *State) Emit(e event.Event) {
	s.Log = append(s.Log, e)
}

// Clone returns an independent deep copy.
func (s *State) Clone() *State {
	out := *s
	out.Players = slices.Clone(s.Players)
	out.Publics = make(map[entity.CompanyID]*entity.PublicCompany, len(s.Publics))
	for id, c := range s.Publics {
		cp := *c
		cp.TokenCosts = slices.Clone(c.TokenCosts)
		out.Publics[id] = &cp
	}
	out.Privates = make(map[entity.CompanyID]*entity.PrivateCompany, len(s.Privates))
	for id, p := range s.Privates {
		cp := *p
		cp.Specials = slices.Clone(p.Specials)
		cp.BlockedHexes = slices.Clone(p.BlockedHexes)
		out.Privates[id] = &cp
	}
	out.PublicOrder = slices.Clone(s.PublicOrder)
	out.PrivateOrder = slices.Clone(s.PrivateOrder)
	out.StartPacket = make([]StartItem, len(s.StartPacket))
	for i, item := range s.StartPacket {
		item.Certificates = slices.Clone(item.Certificates)
		item.Bids = maps.Clone(item.Bids)
		out.StartPacket[i] = item
	}
	out.Hexes = slices.Clone(s.Hexes)
	out.TileColors = slices.Clone(s.TileColors)
	out.Ledger = s.Ledger.Clone()
	out.Market = s.Market.Clone()
	out.Phases = s.Phases.Clone()
	out.Trains = s.Trains.Clone()
	out.Board = s.Board.Clone()
	out.Rules.EndConditions = slices.Clone(s.Rules.EndConditions)
	out.Round = s.Round.Clone()
	out.Bankrupt = slices.Clone(s.Bankrupt)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	if s.Ended != nil {
		e := *s.Ended
		out.Ended = &e
	}
	out.Log = slices.Clip(s.Log)
	return &out
}
