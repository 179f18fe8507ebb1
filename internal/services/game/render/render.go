// Package render writes text views of a game for terminals.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/message"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/i18n"
	gametable "github.com/louisbranch/stockrail/internal/services/game/table"
)

// Localizer is the message-printer contract the renderer needs.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Renderer writes tables with localized headers and amounts.
type Renderer struct {
	loc   Localizer
	color bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor highlights the acting player and price changes.
func WithColor(on bool) Option {
	return func(r *Renderer) { r.color = on }
}

// New returns a renderer for locale.
func New(locale string, opts ...Option) *Renderer {
	return NewWithLocalizer(i18n.Printer(locale), opts...)
}

// NewWithLocalizer returns a renderer over loc.
func NewWithLocalizer(loc Localizer, opts ...Option) *Renderer {
	r := &Renderer{loc: loc}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Money formats an amount.
func (r *Renderer) Money(amount int) string {
	return r.loc.Sprintf(i18n.MoneyKey, amount)
}

func (r *Renderer) writer(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if r.color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Format.Header = text.FormatDefault
	return tw
}

func (r *Renderer) header(keys ...string) table.Row {
	row := make(table.Row, len(keys))
	for i, key := range keys {
		row[i] = r.loc.Sprintf(key)
	}
	return row
}

func rightAligned(columns ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, len(columns))
	for i, n := range columns {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight}
	}
	return cfgs
}

// Round describes the active round.
func (r *Renderer) Round(s *aggregate.State) string {
	switch s.Round.Kind {
	case aggregate.RoundStart:
		return r.loc.Sprintf(i18n.RoundStartKey)
	case aggregate.RoundStock:
		return r.loc.Sprintf(i18n.RoundStockKey, s.Round.StockRound)
	case aggregate.RoundOperating:
		return r.loc.Sprintf(i18n.RoundOperatingKey, s.Round.StockRound, s.Round.OperatingRound, s.Round.OperatingRounds)
	default:
		return r.loc.Sprintf(i18n.GameOverKey)
	}
}

// View writes a full turn screen: status line, players, companies and the
// numbered legal actions.
func (r *Renderer) View(w io.Writer, v gametable.View) {
	s := v.State
	if s == nil {
		return
	}
	status := []string{
		r.Round(s),
		r.loc.Sprintf(i18n.PhaseKey, s.Phases.CurrentPhase().Name),
		r.loc.Sprintf(i18n.BankKey, r.Money(s.Ledger.Cash(portfolio.Bank))),
	}
	fmt.Fprintln(w, text.Bold.Sprint(strings.Join(status, " | ")))
	fmt.Fprintln(w)
	r.Players(w, s)
	fmt.Fprintln(w)
	r.Companies(w, s)
	fmt.Fprintln(w)
	if v.Over {
		if s.Ended != nil {
			fmt.Fprintln(w, r.loc.Sprintf(i18n.GameEndedKey, s.Ended.Kind))
		}
		r.Standings(w, v.Standings)
		return
	}
	fmt.Fprintln(w, r.loc.Sprintf(i18n.TurnKey, v.CurrentPlayer))
	if v.Help != "" {
		fmt.Fprintln(w, v.Help)
	}
	r.Actions(w, v.Possible)
}

// Players writes one row per seated player.
func (r *Renderer) Players(w io.Writer, s *aggregate.State) {
	tw := r.writer(w)
	tw.AppendHeader(r.header(i18n.HeaderPlayerKey, i18n.HeaderCashKey, i18n.HeaderCertsKey,
		i18n.HeaderSharesKey, i18n.HeaderPrivatesKey, i18n.HeaderWorthKey))
	tw.SetColumnConfigs(rightAligned(2, 3, 6))
	for _, p := range s.Players {
		name := p.Name
		if s.Priority == p.ID {
			name += " (" + r.loc.Sprintf(i18n.PriorityKey) + ")"
		}
		holder := portfolio.PlayerHolder(p.ID)
		tw.AppendRow(table.Row{
			name,
			r.Money(s.Cash(p.ID)),
			s.CertificateCount(p.ID),
			shares(s, holder),
			privates(s, holder),
			r.Money(s.Worth(p.ID)),
		})
	}
	tw.Render()
}

// Companies writes one row per public company in definition order.
func (r *Renderer) Companies(w io.Writer, s *aggregate.State) {
	tw := r.writer(w)
	tw.AppendHeader(r.header(i18n.HeaderCompanyKey, i18n.HeaderPresidentKey, i18n.HeaderParKey,
		i18n.HeaderPriceKey, i18n.HeaderTreasuryKey, i18n.HeaderTrainsKey, i18n.HeaderTokensKey,
		i18n.HeaderIPOKey, i18n.HeaderPoolKey))
	tw.SetColumnConfigs(rightAligned(3, 4, 5, 7, 8, 9))
	for _, id := range s.PublicOrder {
		c := s.Publics[id]
		holder := portfolio.CompanyHolder(id)
		par, price, treasury := "", "", ""
		if c.Started() {
			par = r.Money(c.ParPrice)
			price = r.Money(s.Market.Price(id))
			treasury = r.Money(s.Ledger.Cash(holder))
		}
		tw.AppendRow(table.Row{
			string(id),
			string(c.President),
			par,
			price,
			treasury,
			trains(s, holder),
			fmt.Sprintf("%d/%d", c.TokensLeft(), c.TokensTotal),
			fmt.Sprintf("%d%%", s.Ledger.ShareCount(portfolio.IPO, id)),
			fmt.Sprintf("%d%%", s.Ledger.ShareCount(portfolio.Pool, id)),
		})
	}
	tw.Render()
}

// Market writes the stock market grid, top row first. Company tokens are
// listed in their cell in arrival order.
func (r *Renderer) Market(w io.Writer, m *market.Market) {
	tokens := make(map[market.Position][]entity.CompanyID)
	ids := make([]entity.CompanyID, 0, len(m.Tokens))
	for id := range m.Tokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return m.Tokens[ids[i]].Arrival < m.Tokens[ids[j]].Arrival })
	for _, id := range ids {
		pos := m.Tokens[id].Position
		tokens[pos] = append(tokens[pos], id)
	}

	tw := r.writer(w)
	tw.Style().Options.SeparateColumns = true
	for row := m.Rows - 1; row >= 0; row-- {
		out := make(table.Row, m.Cols)
		for col := 0; col < m.Cols; col++ {
			cell, ok := m.Cell(market.Position{Row: row, Col: col})
			if !ok {
				out[col] = ""
				continue
			}
			label := fmt.Sprint(cell.Price)
			if cell.HasFlag(market.FlagPar) {
				label += "p"
			}
			if cell.HasFlag(market.FlagGameOver) {
				label += "!"
			}
			if held := tokens[cell.Position]; len(held) > 0 {
				names := make([]string, len(held))
				for i, id := range held {
					names[i] = string(id)
				}
				label += " " + strings.Join(names, ",")
				if r.color {
					label = text.Colors{text.FgHiYellow}.Sprint(label)
				}
			}
			out[col] = label
		}
		tw.AppendRow(out)
	}
	tw.Render()
}

// Actions writes the legal actions numbered from 1.
func (r *Renderer) Actions(w io.Writer, possible []action.Action) {
	if len(possible) == 0 {
		fmt.Fprintln(w, r.loc.Sprintf(i18n.NoActionsKey))
		return
	}
	tw := r.writer(w)
	tw.AppendHeader(table.Row{"", r.loc.Sprintf(i18n.HeaderActionKey)})
	tw.SetColumnConfigs(rightAligned(1))
	for i, a := range possible {
		tw.AppendRow(table.Row{i + 1, describe(a)})
	}
	tw.Render()
}

// Events writes report events, one per line.
func (r *Renderer) Events(w io.Writer, events event.Log) {
	for _, e := range events {
		fmt.Fprintln(w, "- "+e.Message)
	}
}

// Standings writes players ranked by worth.
func (r *Renderer) Standings(w io.Writer, standings []aggregate.Standing) {
	tw := r.writer(w)
	tw.AppendHeader(r.header(i18n.HeaderRankKey, i18n.HeaderPlayerKey, i18n.HeaderCashKey, i18n.HeaderWorthKey))
	tw.SetColumnConfigs(rightAligned(1, 3, 4))
	for i, st := range standings {
		tw.AppendRow(table.Row{i + 1, string(st.Player), r.Money(st.Cash), r.Money(st.Worth)})
	}
	tw.Render()
}

// Journal writes recorded actions with their sequence numbers.
func (r *Renderer) Journal(w io.Writer, entries []JournalLine) {
	tw := r.writer(w)
	tw.AppendHeader(r.header(i18n.HeaderSeqKey, i18n.HeaderRoundKey, i18n.HeaderActionKey))
	tw.SetColumnConfigs(rightAligned(1))
	for _, e := range entries {
		tw.AppendRow(table.Row{e.Seq, string(e.Round), e.Action.String()})
	}
	tw.Render()
}

// JournalLine is one recorded action.
type JournalLine struct {
	Seq    int
	Round  aggregate.RoundKind
	Action action.Action
}

func describe(a action.Action) string {
	s := a.String()
	if a.Player != "" {
		s = strings.Replace(s, " player="+string(a.Player), "", 1)
	}
	return s
}

func shares(s *aggregate.State, holder portfolio.Holder) string {
	var parts []string
	for _, id := range s.PublicOrder {
		if pct := s.Ledger.ShareCount(holder, id); pct > 0 {
			parts = append(parts, fmt.Sprintf("%s %d%%", id, pct))
		}
	}
	return strings.Join(parts, ", ")
}

func privates(s *aggregate.State, holder portfolio.Holder) string {
	var parts []string
	for _, p := range s.PrivatesOf(holder) {
		parts = append(parts, string(p.ID))
	}
	return strings.Join(parts, ", ")
}

func trains(s *aggregate.State, holder portfolio.Holder) string {
	var parts []string
	for _, t := range s.Ledger.TrainsOf(holder) {
		parts = append(parts, t.Type)
	}
	return strings.Join(parts, " ")
}
