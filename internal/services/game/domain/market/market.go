// Package market implements the stock market grid and company price tokens.
//
// Row 0 is the bottom of the chart and prices rise toward higher columns.
// Each moved token records an arrival number; a company arriving at a cell
// later operates after the companies already there.
package market

import (
	"cmp"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

// Flag marks a cell with a special behaviour.
type Flag string

const (
	// FlagPar marks a cell usable as a par price.
	FlagPar Flag = "par"
	// FlagGameOver ends the game when a token reaches the cell.
	FlagGameOver Flag = "game_over"
	// FlagNoPayoutMove keeps the token in place on payout.
	FlagNoPayoutMove Flag = "no_payout_move"
	// FlagWithholdDrops moves the token down instead of left on withhold.
	FlagWithholdDrops Flag = "withhold_drops"
	// FlagNoSoldOutBonus suppresses the sold-out move.
	FlagNoSoldOutBonus Flag = "no_sold_out_bonus"
)

// Position is a cell coordinate.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Cell is one square of the stock market.
type Cell struct {
	Position Position `json:"position" yaml:",inline"`
	Price    int      `json:"price" yaml:"price"`
	Flags    []Flag   `json:"flags,omitempty" yaml:"flags"`
}

// HasFlag reports whether the cell carries flag.
func (c Cell) HasFlag(flag Flag) bool {
	return slices.Contains(c.Flags, flag)
}

// Rules tunes price movements.
type Rules struct {
	// SellStep is the number of rows a price drops per share sold.
	SellStep int `json:"sell_step" yaml:"sell_step"`
	// FreeSellShares is the number of shares per sale that do not move the price.
	FreeSellShares int `json:"free_sell_shares" yaml:"free_sell_shares"`
	// SoldOutStep is the number of rows a sold-out company rises.
	SoldOutStep int `json:"sold_out_step" yaml:"sold_out_step"`
}

func (r Rules) withDefaults() Rules {
	if r.SellStep <= 0 {
		r.SellStep = 1
	}
	if r.SoldOutStep <= 0 {
		r.SoldOutStep = 1
	}
	if r.FreeSellShares < 0 {
		r.FreeSellShares = 0
	}
	return r
}

// Reason explains a price movement.
type Reason string

const (
	ReasonStart    Reason = "start"
	ReasonSell     Reason = "sell"
	ReasonPayOut   Reason = "payout"
	ReasonWithhold Reason = "withhold"
	ReasonSoldOut  Reason = "sold_out"
	ReasonMoveUp   Reason = "move_up"
	ReasonManual   Reason = "manual"
)

// Move is a recorded token movement.
type Move struct {
	Company entity.CompanyID `json:"company"`
	From    Position         `json:"from"`
	To      Position         `json:"to"`
	Reason  Reason           `json:"reason"`
}

// Moved reports whether the token changed cell.
func (m Move) Moved() bool {
	return m.From != m.To
}

// Token is a company's price marker.
type Token struct {
	Position Position `json:"position"`
	Arrival  int      `json:"arrival"`
}

// Market is the stock market grid with the companies' tokens.
type Market struct {
	Rows        int                        `json:"rows"`
	Cols        int                        `json:"cols"`
	Cells       []Cell                     `json:"cells"`
	Rules       Rules                      `json:"rules"`
	Tokens      map[entity.CompanyID]Token `json:"tokens"`
	History     []Move                     `json:"history"`
	NextArrival int                        `json:"next_arrival"`

	index map[Position]int
}

// New validates cells and returns an empty market.
func New(cells []Cell, rules Rules) (*Market, error) {
	if len(cells) == 0 {
		return nil, apperrors.Configuration("stock market has no cells")
	}
	m := &Market{
		Cells:  slices.Clone(cells),
		Rules:  rules.withDefaults(),
		Tokens: make(map[entity.CompanyID]Token),
	}
	m.index = make(map[Position]int, len(cells))
	hasPar := false
	for i, c := range m.Cells {
		if c.Position.Row < 0 || c.Position.Col < 0 {
			return nil, apperrors.Configuration("stock market cell %v has a negative coordinate", c.Position)
		}
		if c.Price <= 0 {
			return nil, apperrors.Configuration("stock market cell %v price must be positive", c.Position)
		}
		if _, dup := m.index[c.Position]; dup {
			return nil, apperrors.Configuration("duplicate stock market cell %v", c.Position)
		}
		m.index[c.Position] = i
		m.Rows = max(m.Rows, c.Position.Row+1)
		m.Cols = max(m.Cols, c.Position.Col+1)
		hasPar = hasPar || c.HasFlag(FlagPar)
	}
	if !hasPar {
		return nil, apperrors.Configuration("stock market has no par cells")
	}
	return m, nil
}

func (m *Market) ensureIndex() {
	if m.index != nil {
		return
	}
	m.index = make(map[Position]int, len(m.Cells))
	for i, c := range m.Cells {
		m.index[c.Position] = i
	}
}

// Cell returns the cell at pos.
func (m *Market) Cell(pos Position) (Cell, bool) {
	m.ensureIndex()
	i, ok := m.index[pos]
	if !ok {
		return Cell{}, false
	}
	return m.Cells[i], true
}

func (m *Market) exists(pos Position) bool {
	_, ok := m.Cell(pos)
	return ok
}

// ParCells returns the par cells ordered by price.
func (m *Market) ParCells() []Cell {
	var out []Cell
	for _, c := range m.Cells {
		if c.HasFlag(FlagPar) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Cell) int { return cmp.Compare(a.Price, b.Price) })
	return out
}

// ParCell returns the par cell with the given price.
func (m *Market) ParCell(price int) (Cell, bool) {
	for _, c := range m.ParCells() {
		if c.Price == price {
			return c, true
		}
	}
	return Cell{}, false
}

// ParPrices returns the distinct par prices in ascending order.
func (m *Market) ParPrices() []int {
	var out []int
	for _, c := range m.ParCells() {
		if !slices.Contains(out, c.Price) {
			out = append(out, c.Price)
		}
	}
	return out
}

// Position returns the company's token position.
func (m *Market) Position(company entity.CompanyID) (Position, bool) {
	tok, ok := m.Tokens[company]
	return tok.Position, ok
}

// Price returns the company's current share price, or zero when unplaced.
func (m *Market) Price(company entity.CompanyID) int {
	pos, ok := m.Position(company)
	if !ok {
		return 0
	}
	c, _ := m.Cell(pos)
	return c.Price
}

// Start places a company's token on its par cell.
func (m *Market) Start(company entity.CompanyID, pos Position) error {
	if _, placed := m.Tokens[company]; placed {
		return apperrors.IllegalState("company %s already has a market token", company)
	}
	c, ok := m.Cell(pos)
	if !ok {
		return apperrors.IllegalState("no stock market cell at %v", pos)
	}
	if !c.HasFlag(FlagPar) {
		return apperrors.IllegalState("cell %v is not a par cell", pos)
	}
	m.place(company, pos)
	m.History = append(m.History, Move{Company: company, From: pos, To: pos, Reason: ReasonStart})
	return nil
}

func (m *Market) place(company entity.CompanyID, pos Position) {
	m.NextArrival++
	m.Tokens[company] = Token{Position: pos, Arrival: m.NextArrival}
}

// ProcessMove moves a token from one cell to another and records the move.
func (m *Market) ProcessMove(company entity.CompanyID, from, to Position, reason Reason) (Move, error) {
	tok, ok := m.Tokens[company]
	if !ok {
		return Move{}, apperrors.IllegalState("company %s has no market token", company)
	}
	if tok.Position != from {
		return Move{}, apperrors.IllegalState("company %s token is at %v, not %v", company, tok.Position, from)
	}
	if !m.exists(to) {
		return Move{}, apperrors.IllegalState("no stock market cell at %v", to)
	}
	move := Move{Company: company, From: from, To: to, Reason: reason}
	if !move.Moved() {
		return move, nil
	}
	m.place(company, to)
	m.History = append(m.History, move)
	return move, nil
}

func (m *Market) moveTo(company entity.CompanyID, to Position, reason Reason) Move {
	from := m.Tokens[company].Position
	move, _ := m.ProcessMove(company, from, to, reason)
	return move
}

// down walks up to steps rows down from pos, stopping at the column floor.
func (m *Market) down(pos Position, steps int) Position {
	for ; steps > 0; steps-- {
		next := Position{Row: pos.Row - 1, Col: pos.Col}
		if !m.exists(next) {
			break
		}
		pos = next
	}
	return pos
}

// up walks up to steps rows up from pos, stopping at the column ceiling.
func (m *Market) up(pos Position, steps int) Position {
	for ; steps > 0; steps-- {
		next := Position{Row: pos.Row + 1, Col: pos.Col}
		if !m.exists(next) {
			break
		}
		pos = next
	}
	return pos
}

// Sell drops the company's price for a sale of shares.
func (m *Market) Sell(company entity.CompanyID, shares int) Move {
	pos, ok := m.Position(company)
	if !ok {
		return Move{Company: company}
	}
	steps := (shares - m.Rules.FreeSellShares) * m.Rules.SellStep
	if steps <= 0 {
		return Move{Company: company, From: pos, To: pos, Reason: ReasonSell}
	}
	return m.moveTo(company, m.down(pos, steps), ReasonSell)
}

// PayOut moves the token right, or up at the right edge.
func (m *Market) PayOut(company entity.CompanyID) Move {
	pos, ok := m.Position(company)
	if !ok {
		return Move{Company: company}
	}
	cell, _ := m.Cell(pos)
	to := pos
	switch {
	case cell.HasFlag(FlagNoPayoutMove):
	case m.exists(Position{Row: pos.Row, Col: pos.Col + 1}):
		to = Position{Row: pos.Row, Col: pos.Col + 1}
	default:
		to = m.up(pos, 1)
	}
	return m.moveTo(company, to, ReasonPayOut)
}

// Withhold moves the token left, or down at the left edge.
func (m *Market) Withhold(company entity.CompanyID) Move {
	pos, ok := m.Position(company)
	if !ok {
		return Move{Company: company}
	}
	cell, _ := m.Cell(pos)
	to := pos
	switch {
	case cell.HasFlag(FlagWithholdDrops):
		to = m.down(pos, 1)
	case pos.Col > 0 && m.exists(Position{Row: pos.Row, Col: pos.Col - 1}):
		to = Position{Row: pos.Row, Col: pos.Col - 1}
	default:
		to = m.down(pos, 1)
	}
	return m.moveTo(company, to, ReasonWithhold)
}

// SoldOut raises the price of a company whose shares are all held by players.
func (m *Market) SoldOut(company entity.CompanyID) Move {
	pos, ok := m.Position(company)
	if !ok {
		return Move{Company: company}
	}
	cell, _ := m.Cell(pos)
	if cell.HasFlag(FlagNoSoldOutBonus) {
		return Move{Company: company, From: pos, To: pos, Reason: ReasonSoldOut}
	}
	return m.moveTo(company, m.up(pos, m.Rules.SoldOutStep), ReasonSoldOut)
}

// MoveUp raises a token one row.
func (m *Market) MoveUp(company entity.CompanyID) Move {
	pos, ok := m.Position(company)
	if !ok {
		return Move{Company: company}
	}
	return m.moveTo(company, m.up(pos, 1), ReasonMoveUp)
}

// IsGameOver reports whether any token sits on a game-over cell.
func (m *Market) IsGameOver() bool {
	for _, tok := range m.Tokens {
		if c, ok := m.Cell(tok.Position); ok && c.HasFlag(FlagGameOver) {
			return true
		}
	}
	return false
}

// OperatingOrder sorts companies by price descending, then column descending,
// then row descending, then earlier arrival first. Unplaced companies sort last.
func (m *Market) OperatingOrder(companies []entity.CompanyID) []entity.CompanyID {
	out := slices.Clone(companies)
	slices.SortStableFunc(out, func(a, b entity.CompanyID) int {
		ta, oka := m.Tokens[a]
		tb, okb := m.Tokens[b]
		if oka != okb {
			if oka {
				return -1
			}
			return 1
		}
		if !oka {
			return 0
		}
		if c := cmp.Compare(m.Price(b), m.Price(a)); c != 0 {
			return c
		}
		if c := cmp.Compare(tb.Position.Col, ta.Position.Col); c != 0 {
			return c
		}
		if c := cmp.Compare(tb.Position.Row, ta.Position.Row); c != 0 {
			return c
		}
		return cmp.Compare(ta.Arrival, tb.Arrival)
	})
	return out
}

// Clone returns a deep copy. Cells are immutable and shared.
func (m *Market) Clone() *Market {
	if m == nil {
		return nil
	}
	out := *m
	out.Tokens = make(map[entity.CompanyID]Token, len(m.Tokens))
	for k, v := range m.Tokens {
		out.Tokens[k] = v
	}
	out.History = slices.Clone(m.History)
	return &out
}
