package definition

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/phase"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

var cellFlags = map[rune]market.Flag{
	'p': market.FlagPar,
	'e': market.FlagGameOver,
	'n': market.FlagNoPayoutMove,
	'w': market.FlagWithholdDrops,
	's': market.FlagNoSoldOutBonus,
}

var specialKinds = []entity.SpecialKind{
	entity.SpecialFreeTileLay,
	entity.SpecialExtraTileLay,
	entity.SpecialFreeToken,
	entity.SpecialExchange,
}

// Validate reports the first inconsistency of the definition as a
// CONFIGURATION error.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return apperrors.Configuration("definition name is required")
	}
	if d.MinPlayers < 2 || d.MaxPlayers < d.MinPlayers {
		return apperrors.Configuration("player range %d-%d is invalid", d.MinPlayers, d.MaxPlayers)
	}
	if d.Bank <= 0 {
		return apperrors.Configuration("bank cash must be positive")
	}
	for n := d.MinPlayers; n <= d.MaxPlayers; n++ {
		if d.Cash[n] <= 0 {
			return apperrors.Configuration("no starting cash for %d players", n)
		}
		if d.Rules.CertLimit == 0 && d.CertLimits[n] <= 0 {
			return apperrors.Configuration("no certificate limit for %d players", n)
		}
	}
	cells, err := d.Market.Cells()
	if err != nil {
		return err
	}
	if _, err := market.New(cells, d.Market.Rules); err != nil {
		return err
	}
	if _, err := phase.New(d.Phases); err != nil {
		return err
	}
	if _, err := train.NewManager(d.Trains); err != nil {
		return err
	}
	if err := d.validateReferences(); err != nil {
		return err
	}
	return d.validateRules()
}

func (d Definition) validateReferences() error {
	trainTypes := make(map[string]bool, len(d.Trains))
	for _, t := range d.Trains {
		trainTypes[t.Name] = true
	}
	for _, t := range d.Trains {
		if t.RustedBy != "" && !trainTypes[t.RustedBy] {
			return apperrors.Configuration("train %s is rusted by unknown type %s", t.Name, t.RustedBy)
		}
	}
	phases := make(map[string]bool, len(d.Phases))
	for _, p := range d.Phases {
		phases[p.Name] = true
		if p.Trigger.TrainType != "" && !trainTypes[p.Trigger.TrainType] {
			return apperrors.Configuration("phase %s is triggered by unknown train %s", p.Name, p.Trigger.TrainType)
		}
		for _, c := range p.TileColors {
			if !slices.Contains(d.TileColors, c) {
				return apperrors.Configuration("phase %s allows unknown tile color %s", p.Name, c)
			}
		}
	}

	hexes := make(map[string]bool, len(d.Hexes))
	for _, h := range d.Hexes {
		if h.ID == "" || hexes[h.ID] {
			return apperrors.Configuration("hex id %q is empty or duplicated", h.ID)
		}
		hexes[h.ID] = true
	}

	companies := make(map[entity.CompanyID]Company, len(d.Companies))
	for _, c := range d.Companies {
		if c.ID == "" {
			return apperrors.Configuration("company id is required")
		}
		if _, dup := companies[c.ID]; dup {
			return apperrors.Configuration("duplicate company %s", c.ID)
		}
		companies[c.ID] = c
		if len(c.Shares) == 0 {
			return apperrors.Configuration("company %s has no shares", c.ID)
		}
		total := 0
		for _, pct := range c.Shares {
			total += pct
		}
		if total != 100 {
			return apperrors.Configuration("shares of %s sum to %d%%, want 100%%", c.ID, total)
		}
		if c.HomeHex != "" && !hexes[c.HomeHex] {
			return apperrors.Configuration("company %s has unknown home hex %s", c.ID, c.HomeHex)
		}
		if c.HomeHex != "" && c.Tokens < 1 {
			return apperrors.Configuration("company %s needs a token for its home", c.ID)
		}
	}
	for _, h := range d.Hexes {
		if _, ok := companies[h.Home]; h.Home != "" && !ok {
			return apperrors.Configuration("hex %s is home to unknown company %s", h.ID, h.Home)
		}
	}

	privates := make(map[entity.CompanyID]bool, len(d.Privates))
	for _, p := range d.Privates {
		if p.ID == "" || privates[p.ID] {
			return apperrors.Configuration("private id %q is empty or duplicated", p.ID)
		}
		if _, clash := companies[p.ID]; clash {
			return apperrors.Configuration("private %s reuses a company id", p.ID)
		}
		privates[p.ID] = true
		if p.Face <= 0 {
			return apperrors.Configuration("private %s face price must be positive", p.ID)
		}
		for _, h := range p.Blocks {
			if !hexes[h] {
				return apperrors.Configuration("private %s blocks unknown hex %s", p.ID, h)
			}
		}
		for _, sp := range p.Special {
			if !slices.Contains(specialKinds, sp.Kind) {
				return apperrors.Configuration("private %s has unknown special kind %s", p.ID, sp.Kind)
			}
			if sp.Hex != "" && !hexes[sp.Hex] {
				return apperrors.Configuration("special %s names unknown hex %s", sp.ID, sp.Hex)
			}
			if _, ok := companies[sp.Company]; sp.Kind == entity.SpecialExchange && !ok {
				return apperrors.Configuration("special %s exchanges for unknown company %s", sp.ID, sp.Company)
			}
		}
		if p.Closing.AtPhase != "" && !phases[p.Closing.AtPhase] {
			return apperrors.Configuration("private %s closes at unknown phase %s", p.ID, p.Closing.AtPhase)
		}
	}

	items := make(map[string]bool, len(d.Packet))
	certs := make(map[string]bool)
	for _, item := range d.Packet {
		if item.ID == "" || items[item.ID] {
			return apperrors.Configuration("start item id %q is empty or duplicated", item.ID)
		}
		items[item.ID] = true
		if item.Price <= 0 {
			return apperrors.Configuration("start item %s price must be positive", item.ID)
		}
		if item.Private != "" && !privates[item.Private] {
			return apperrors.Configuration("start item %s names unknown private %s", item.ID, item.Private)
		}
		for _, ref := range item.Certificates {
			if certs[ref] {
				return apperrors.Configuration("certificate %s is in two start items", ref)
			}
			certs[ref] = true
			if _, _, err := splitCertificate(ref, companies); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d Definition) validateRules() error {
	r := d.Rules
	if r.ShareUnit < 0 || r.MaxPercent < 0 || r.PoolLimit < 0 {
		return apperrors.Configuration("rule percentages cannot be negative")
	}
	switch r.SellBuyRestriction {
	case "", aggregate.SellBuyTurn, aggregate.SellBuyRound:
	default:
		return apperrors.Configuration("unknown sell_buy_restriction %s", r.SellBuyRestriction)
	}
	for _, c := range r.EndConditions {
		switch c.Kind {
		case aggregate.EndBankruptcy, aggregate.EndBankBroken, aggregate.EndGameOverCell, aggregate.EndLastPhase:
		default:
			return apperrors.Configuration("unknown end condition %s", c.Kind)
		}
		if c.Timing != aggregate.EndImmediate && c.Timing != aggregate.EndOfSet {
			return apperrors.Configuration("end condition %s has unknown timing %s", c.Kind, c.Timing)
		}
	}
	return nil
}

// Cells converts the chart rows into market cells. The last row listed is row 0.
func (m Market) Cells() ([]market.Cell, error) {
	var cells []market.Cell
	for i, line := range m.Rows {
		row := len(m.Rows) - 1 - i
		for col, field := range strings.Fields(line) {
			if field == "-" {
				continue
			}
			cell, err := parseCell(field)
			if err != nil {
				return nil, apperrors.Configuration("market row %d col %d: %v", i+1, col+1, err)
			}
			cell.Position = market.Position{Row: row, Col: col}
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

func parseCell(field string) (market.Cell, error) {
	digits := strings.TrimRightFunc(field, func(r rune) bool { return r < '0' || r > '9' })
	price, err := strconv.Atoi(digits)
	if err != nil {
		return market.Cell{}, fmt.Errorf("cell %q has no price", field)
	}
	cell := market.Cell{Price: price}
	for _, r := range field[len(digits):] {
		flag, ok := cellFlags[r]
		if !ok {
			return market.Cell{}, fmt.Errorf("cell %q has unknown flag %q", field, r)
		}
		cell.Flags = append(cell.Flags, flag)
	}
	return cell, nil
}

// splitCertificate resolves "<company>-<n>" against the company list.
func splitCertificate(ref string, companies map[entity.CompanyID]Company) (entity.CompanyID, int, error) {
	i := strings.LastIndex(ref, "-")
	if i <= 0 {
		return "", 0, apperrors.Configuration("certificate %q is not <company>-<n>", ref)
	}
	id := entity.CompanyID(ref[:i])
	n, err := strconv.Atoi(ref[i+1:])
	if err != nil {
		return "", 0, apperrors.Configuration("certificate %q has no index", ref)
	}
	c, ok := companies[id]
	if !ok {
		return "", 0, apperrors.Configuration("certificate %s of unknown company %s", ref, id)
	}
	if n < 0 || n >= len(c.Shares) {
		return "", 0, apperrors.Configuration("certificate %s out of range for %s", ref, id)
	}
	return id, n, nil
}
