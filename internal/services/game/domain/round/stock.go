package round

import (
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

// Stock is a stock round. Each turn a player may sell any number of times,
// buy one certificate and exchange privates, then ends the turn with done;
// a player who does nothing passes. The round ends after every player passes
// in a row.
type Stock struct{}

// Kind returns the stock round kind.
func (Stock) Kind() aggregate.RoundKind { return aggregate.RoundStock }

// Begin starts the round with the priority holder.
func (Stock) Begin(s *aggregate.State) error {
	s.Round.StockRound++
	s.Round.Stock = &aggregate.StockRoundState{
		Current:       s.Priority,
		SoldThisRound: make(map[entity.PlayerID][]entity.CompanyID),
		SoldOut:       make(map[entity.CompanyID]bool),
	}
	s.Emit(event.New(event.TypeRoundStarted, "stock round %d begins", s.Round.StockRound).
		With("round", string(aggregate.RoundStock)).With("number", fmt.Sprint(s.Round.StockRound)))
	return nil
}

// CurrentPlayer returns the player whose turn it is.
func (Stock) CurrentPlayer(s *aggregate.State) entity.PlayerID {
	if s.Round.Stock == nil {
		return ""
	}
	return s.Round.Stock.Current
}

// PossibleActions lists the sells, buys, exchanges and turn control for the current player.
func (r Stock) PossibleActions(s *aggregate.State) []action.Action {
	st := s.Round.Stock
	if st == nil || r.Finished(s) {
		return nil
	}
	p := st.Current
	var out []action.Action
	if salesOpen(s) {
		for _, id := range s.PublicOrder {
			if err := checkSellable(s, s.Publics[id]); err != nil {
				continue
			}
			out = append(out, sellActions(p, id, s.SellableCounts(p, id))...)
		}
	}
	if !st.Bought && underCertLimit(s, p) {
		out = append(out, buyActions(s, p)...)
	}
	out = append(out, exchangeActions(s, p)...)
	if st.Acted {
		out = append(out, action.Action{Type: action.TypeDone, Player: p})
	} else {
		out = append(out, action.Action{Type: action.TypePass, Player: p})
	}
	return out
}

// sellActions publishes a count range when every count up to the largest is
// sellable and one fixed-count template per sellable count otherwise.
func sellActions(p entity.PlayerID, company entity.CompanyID, counts []int) []action.Action {
	if len(counts) == 0 {
		return nil
	}
	if last := counts[len(counts)-1]; last == len(counts) {
		return []action.Action{{Type: action.TypeSellShares, Player: p, Company: company, MaxCount: last}}
	}
	out := make([]action.Action, 0, len(counts))
	for _, n := range counts {
		out = append(out, action.Action{Type: action.TypeSellShares, Player: p, Company: company, Count: n})
	}
	return out
}

func buyActions(s *aggregate.State, p entity.PlayerID) []action.Action {
	holder := portfolio.PlayerHolder(p)
	cash := s.Cash(p)
	var out []action.Action
	for _, id := range s.PublicOrder {
		c := s.Publics[id]
		if c.Status == entity.StatusClosed || sellBlocksBuy(s, p, id) {
			continue
		}
		held := s.Ledger.ShareCount(holder, id)
		if !c.Started() {
			presCert, ok := s.PresidentCertificate(id)
			if !ok || !withinPercent(s, held+presCert.Percent) {
				continue
			}
			if h, _ := s.Ledger.HolderOf(presCert.ID); h != portfolio.IPO {
				continue
			}
			var pars []int
			for _, par := range s.Market.ParPrices() {
				if s.CertificatePrice(presCert, par) <= cash {
					pars = append(pars, par)
				}
			}
			if len(pars) > 0 {
				out = append(out, action.Action{Type: action.TypeStartCompany, Player: p, Company: id, ParPrices: pars})
			}
			continue
		}
		for _, from := range []portfolio.Holder{portfolio.IPO, portfolio.Pool} {
			cert, ok := s.NextCertificate(from, id)
			if !ok || !withinPercent(s, held+cert.Percent) {
				continue
			}
			price := s.CertificatePrice(cert, sharePrice(s, c, from))
			if price <= cash {
				out = append(out, action.Action{Type: action.TypeBuyCertificate, Player: p, Company: id, From: from, Price: price})
			}
		}
	}
	return out
}

func exchangeActions(s *aggregate.State, p entity.PlayerID) []action.Action {
	holder := portfolio.PlayerHolder(p)
	var out []action.Action
	for _, private := range s.PrivatesOf(holder) {
		for _, sp := range private.Specials {
			if sp.Exercised || !sp.UsableInStockRound() {
				continue
			}
			target, ok := s.Publics[sp.Company]
			if !ok || !target.Started() {
				continue
			}
			if _, _, ok := exchangeSource(s, sp.Company); !ok {
				continue
			}
			out = append(out, action.Action{Type: action.TypeUseSpecial, Player: p, Private: private.ID, Special: sp.ID, Company: sp.Company})
		}
	}
	return out
}

// Process applies a stock round action.
func (r Stock) Process(s *aggregate.State, a action.Action) (bool, error) {
	st := s.Round.Stock
	if st == nil {
		return false, apperrors.IllegalState("stock round not initialised")
	}
	if a.Player != st.Current {
		return false, apperrors.IllegalAction("it is %s's turn, not %s's", st.Current, a.Player)
	}
	var err error
	switch a.Type {
	case action.TypeStartCompany:
		err = r.startCompany(s, a)
	case action.TypeBuyCertificate:
		err = r.buyCertificate(s, a)
	case action.TypeSellShares:
		err = r.sellShares(s, a)
	case action.TypeUseSpecial:
		err = r.exchange(s, a)
	case action.TypePass:
		if st.Acted {
			return false, apperrors.IllegalAction("%s already acted this turn; use done", a.Player)
		}
		s.Emit(event.New(event.TypePlayerPassed, "%s passes", a.Player).With("player", string(a.Player)))
		st.ConsecutivePasses++
		nextStockTurn(s)
		return true, nil
	case action.TypeDone:
		if !st.Acted {
			return false, apperrors.IllegalAction("%s has not acted this turn; use pass", a.Player)
		}
		nextStockTurn(s)
		return true, nil
	default:
		return false, unsupported(r.Kind(), a)
	}
	if err != nil {
		return false, err
	}
	st.Acted = true
	st.LastActor = a.Player
	st.ConsecutivePasses = 0
	return true, nil
}

func (r Stock) startCompany(s *aggregate.State, a action.Action) error {
	st := s.Round.Stock
	if st.Bought {
		return apperrors.IllegalAction("%s already bought this turn", a.Player)
	}
	c, err := s.Public(a.Company)
	if err != nil {
		return err
	}
	if c.Started() {
		return apperrors.IllegalAction("%s is already started", a.Company)
	}
	if sellBlocksBuy(s, a.Player, a.Company) {
		return apperrors.IllegalAction("%s sold %s and cannot buy it back", a.Player, a.Company)
	}
	if !underCertLimit(s, a.Player) {
		return apperrors.IllegalAction("%s is at the certificate limit", a.Player)
	}
	presCert, ok := s.PresidentCertificate(a.Company)
	if !ok {
		return apperrors.IllegalState("%s has no president certificate", a.Company)
	}
	holder := portfolio.PlayerHolder(a.Player)
	if !withinPercent(s, s.Ledger.ShareCount(holder, a.Company)+presCert.Percent) {
		return apperrors.IllegalAction("%s would exceed %d%% of %s", a.Player, s.Rules.MaxPercent, a.Company)
	}
	price := s.CertificatePrice(presCert, a.Price)
	if cash := s.Cash(a.Player); cash < price {
		return apperrors.InsufficientFunds("%s has %d, needs %d", a.Player, cash, price)
	}
	if err := s.StartCompany(a.Company, a.Price); err != nil {
		return err
	}
	if err := s.TransferShare(presCert.ID, portfolio.IPO, holder, price); err != nil {
		return err
	}
	if err := s.CheckPresidency(a.Company); err != nil {
		return err
	}
	s.Emit(event.New(event.TypeCertificateBought, "%s buys the president certificate of %s for %d", a.Player, a.Company, price).
		With("player", string(a.Player)).With("company", string(a.Company)).With("from", string(portfolio.IPO)))
	st.Bought = true
	return s.CheckFloat(a.Company)
}

func (r Stock) buyCertificate(s *aggregate.State, a action.Action) error {
	st := s.Round.Stock
	if st.Bought {
		return apperrors.IllegalAction("%s already bought this turn", a.Player)
	}
	c, err := s.Public(a.Company)
	if err != nil {
		return err
	}
	if !c.Started() {
		return apperrors.IllegalAction("%s has not been started", a.Company)
	}
	if a.From != portfolio.IPO && a.From != portfolio.Pool {
		return apperrors.IllegalAction("certificates are bought from the IPO or the pool, not %s", a.From)
	}
	if sellBlocksBuy(s, a.Player, a.Company) {
		return apperrors.IllegalAction("%s sold %s and cannot buy it back", a.Player, a.Company)
	}
	cert, ok := s.NextCertificate(a.From, a.Company)
	if !ok {
		return apperrors.NotHeld("no certificate of %s in %s", a.Company, a.From)
	}
	if !underCertLimit(s, a.Player) {
		return apperrors.IllegalAction("%s is at the certificate limit", a.Player)
	}
	holder := portfolio.PlayerHolder(a.Player)
	if !withinPercent(s, s.Ledger.ShareCount(holder, a.Company)+cert.Percent) {
		return apperrors.IllegalAction("%s would exceed %d%% of %s", a.Player, s.Rules.MaxPercent, a.Company)
	}
	price := s.CertificatePrice(cert, sharePrice(s, c, a.From))
	if a.Price != price {
		return apperrors.IllegalAction("certificate costs %d, not %d", price, a.Price)
	}
	if err := s.TransferShare(cert.ID, a.From, holder, price); err != nil {
		return err
	}
	if err := s.CheckPresidency(a.Company); err != nil {
		return err
	}
	s.Emit(event.New(event.TypeCertificateBought, "%s buys %d%% of %s from %s for %d", a.Player, cert.Percent, a.Company, a.From, price).
		With("player", string(a.Player)).With("company", string(a.Company)).With("from", string(a.From)))
	st.Bought = true
	return s.CheckFloat(a.Company)
}

func (r Stock) sellShares(s *aggregate.State, a action.Action) error {
	st := s.Round.Stock
	n := max(a.Count, 1)
	pct := n * s.Rules.ShareUnit
	if held := s.Ledger.ShareCount(portfolio.PlayerHolder(a.Player), a.Company); held < pct {
		return apperrors.NotHeld("%s holds %d%% of %s, cannot sell %d%%", a.Player, held, a.Company, pct)
	}
	if !salesOpen(s) {
		return apperrors.IllegalAction("shares cannot be sold in the first stock round")
	}
	c, err := s.Public(a.Company)
	if err != nil {
		return err
	}
	if err := checkSellable(s, c); err != nil {
		return err
	}
	if s.Rules.PoolLimit > 0 && s.Ledger.ShareCount(portfolio.Pool, a.Company)+pct > s.Rules.PoolLimit {
		return apperrors.IllegalAction("the pool cannot hold more than %d%% of %s", s.Rules.PoolLimit, a.Company)
	}
	if _, err := s.SellShares(a.Player, a.Company, n); err != nil {
		return err
	}
	if !slices.Contains(st.SoldThisTurn, a.Company) {
		st.SoldThisTurn = append(st.SoldThisTurn, a.Company)
	}
	if !slices.Contains(st.SoldThisRound[a.Player], a.Company) {
		st.SoldThisRound[a.Player] = append(st.SoldThisRound[a.Player], a.Company)
	}
	return nil
}

func (r Stock) exchange(s *aggregate.State, a action.Action) error {
	private, err := s.Private(a.Private)
	if err != nil {
		return err
	}
	holder := portfolio.PlayerHolder(a.Player)
	if h, ok := s.PrivateHolder(a.Private); !ok || h != holder {
		return apperrors.NotHeld("%s does not hold %s", a.Player, a.Private)
	}
	sp, ok := private.Special(a.Special)
	if !ok || sp.Exercised || !sp.UsableInStockRound() {
		return apperrors.IllegalAction("%s has no usable special %s", a.Private, a.Special)
	}
	target, err := s.Public(sp.Company)
	if err != nil {
		return err
	}
	if !target.Started() {
		return apperrors.IllegalAction("%s has not been started", sp.Company)
	}
	cert, from, ok := exchangeSource(s, sp.Company)
	if !ok {
		return apperrors.NotHeld("no certificate of %s available for exchange", sp.Company)
	}
	if !withinPercent(s, s.Ledger.ShareCount(holder, sp.Company)+cert.Percent) {
		return apperrors.IllegalAction("%s would exceed %d%% of %s", a.Player, s.Rules.MaxPercent, sp.Company)
	}
	if err := s.Ledger.MoveCertificate(cert.ID, from, holder); err != nil {
		return err
	}
	sp.Exercised = true
	s.Emit(event.New(event.TypeSpecialUsed, "%s exchanges %s for %d%% of %s", a.Player, a.Private, cert.Percent, sp.Company).
		With("player", string(a.Player)).With("private", string(a.Private)).With("special", sp.ID))
	if err := s.ClosePrivate(a.Private, "exchanged"); err != nil {
		return err
	}
	if err := s.CheckPresidency(sp.Company); err != nil {
		return err
	}
	return s.CheckFloat(sp.Company)
}

// Finished reports whether every player passed in a row.
func (Stock) Finished(s *aggregate.State) bool {
	st := s.Round.Stock
	return st == nil || st.ConsecutivePasses >= len(s.Players)
}

// End raises sold-out companies once and hands priority to the player after
// the last one who acted.
func (Stock) End(s *aggregate.State) error {
	st := s.Round.Stock
	if st == nil {
		return nil
	}
	for _, id := range s.PublicOrder {
		if st.SoldOut[id] || !s.SoldOut(id) {
			continue
		}
		st.SoldOut[id] = true
		s.EmitMove(s.Market.SoldOut(id))
	}
	if st.LastActor != "" {
		s.Priority = s.NextPlayer(st.LastActor)
		s.Emit(event.New(event.TypePriorityChanged, "%s has priority", s.Priority).With("player", string(s.Priority)))
	}
	s.Emit(event.New(event.TypeRoundEnded, "stock round %d ends", s.Round.StockRound).With("round", string(aggregate.RoundStock)))
	s.Round.Stock = nil
	return nil
}

// Help summarises the legal actions.
func (r Stock) Help(s *aggregate.State) string {
	return help(fmt.Sprintf("Stock round %d", s.Round.StockRound), s, r)
}

func nextStockTurn(s *aggregate.State) {
	st := s.Round.Stock
	st.Current = s.NextPlayer(st.Current)
	st.Acted = false
	st.Bought = false
	st.SoldThisTurn = nil
}

func salesOpen(s *aggregate.State) bool {
	return !(s.Rules.NoSaleInFirstSR && s.Round.StockRound <= 1)
}

func checkSellable(s *aggregate.State, c *entity.PublicCompany) error {
	if !c.Started() {
		return apperrors.IllegalAction("%s has not been started", c.ID)
	}
	if s.Rules.SellRequiresOperated && !c.Operated {
		return apperrors.IllegalAction("%s has not operated yet", c.ID)
	}
	return nil
}

func sellBlocksBuy(s *aggregate.State, p entity.PlayerID, company entity.CompanyID) bool {
	st := s.Round.Stock
	if s.Rules.SellBuyRestriction == aggregate.SellBuyRound {
		return slices.Contains(st.SoldThisRound[p], company)
	}
	return slices.Contains(st.SoldThisTurn, company)
}

func underCertLimit(s *aggregate.State, p entity.PlayerID) bool {
	return s.Rules.CertLimit <= 0 || s.CertificateCount(p) < s.Rules.CertLimit
}

func withinPercent(s *aggregate.State, pct int) bool {
	return s.Rules.MaxPercent <= 0 || pct <= s.Rules.MaxPercent
}

func sharePrice(s *aggregate.State, c *entity.PublicCompany, from portfolio.Holder) int {
	if from == portfolio.IPO {
		return c.ParPrice
	}
	return s.Market.Price(c.ID)
}

func exchangeSource(s *aggregate.State, company entity.CompanyID) (certificate.Certificate, portfolio.Holder, bool) {
	for _, from := range []portfolio.Holder{portfolio.IPO, portfolio.Pool} {
		if cert, ok := s.NextCertificate(from, company); ok {
			return cert, from, true
		}
	}
	return certificate.Certificate{}, "", false
}
