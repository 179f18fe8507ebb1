package aggregate

import (
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

// PresidentCertificate returns the president certificate of company.
func (s *State) PresidentCertificate(company entity.CompanyID) (certificate.Certificate, bool) {
	for _, cert := range s.Ledger.Certificates {
		if cert.Company == company && cert.President {
			return cert, true
		}
	}
	return certificate.Certificate{}, false
}

// CertificatePrice returns the cost of cert at share price.
func (s *State) CertificatePrice(cert certificate.Certificate, price int) int {
	return price * cert.Percent / s.Rules.ShareUnit
}

// NextCertificate returns the first ordinary certificate of company held by holder.
func (s *State) NextCertificate(holder portfolio.Holder, company entity.CompanyID) (certificate.Certificate, bool) {
	for _, cert := range s.Ledger.CertificatesOf(holder, company) {
		if !cert.President {
			return cert, true
		}
	}
	return certificate.Certificate{}, false
}

// SoldOut reports whether no share of a started company remains in the IPO or pool.
func (s *State) SoldOut(company entity.CompanyID) bool {
	c, ok := s.Publics[company]
	if !ok || !c.Started() {
		return false
	}
	return s.Ledger.ShareCount(portfolio.IPO, company)+s.Ledger.ShareCount(portfolio.Pool, company) == 0
}

// CheckPresidency re-designates the president of company after a transfer.
// A player whose holding strictly exceeds the president's and is at least the
// president certificate's percent takes over; players seated closer after the
// incumbent win ties among challengers and the incumbent keeps a tie.
func (s *State) CheckPresidency(company entity.CompanyID) error {
	c, err := s.Public(company)
	if err != nil {
		return err
	}
	presCert, ok := s.PresidentCertificate(company)
	if !ok {
		return apperrors.IllegalState("%s has no president certificate", company)
	}
	holder, ok := s.Ledger.HolderOf(presCert.ID)
	if !ok {
		return apperrors.IllegalState("president certificate of %s has no holder", company)
	}
	incumbent, isPlayer := holder.Player()
	if !isPlayer {
		c.President = ""
		return nil
	}
	c.President = incumbent
	best := entity.PlayerID("")
	bestPct := s.Ledger.ShareCount(holder, company)
	for _, p := range s.PlayersAfter(incumbent) {
		pct := s.Ledger.ShareCount(portfolio.PlayerHolder(p), company)
		if pct > bestPct && pct >= presCert.Percent {
			best, bestPct = p, pct
		}
	}
	if best == "" {
		return nil
	}
	return s.swapPresident(company, presCert, incumbent, best)
}

// swapPresident hands the president certificate from one player to another in
// exchange for ordinary certificates of equal percent.
func (s *State) swapPresident(company entity.CompanyID, presCert certificate.Certificate, from, to entity.PlayerID) error {
	fromHolder, toHolder := portfolio.PlayerHolder(from), portfolio.PlayerHolder(to)
	give, ok := pickCertificates(ordinaryCertificates(s.Ledger.CertificatesOf(toHolder, company)), presCert.Percent)
	if !ok {
		return apperrors.IllegalState("%s cannot exchange %d%% of %s for the president certificate", to, presCert.Percent, company)
	}
	for _, cert := range give {
		if err := s.Ledger.MoveCertificate(cert.ID, toHolder, fromHolder); err != nil {
			return err
		}
	}
	if err := s.Ledger.MoveCertificate(presCert.ID, fromHolder, toHolder); err != nil {
		return err
	}
	s.Publics[company].President = to
	s.Emit(event.New(event.TypePresidentChanged, "%s becomes president of %s", to, company).
		With("company", string(company)).With("from", string(from)).With("to", string(to)))
	return nil
}

// StartCompany sets the par price of company and places its market token.
func (s *State) StartCompany(company entity.CompanyID, par int) error {
	c, err := s.Public(company)
	if err != nil {
		return err
	}
	if c.Started() {
		return apperrors.IllegalAction("%s is already started", company)
	}
	cell, ok := s.Market.ParCell(par)
	if !ok {
		return apperrors.IllegalAction("%d is not a par price", par)
	}
	if err := s.Market.Start(company, cell.Position); err != nil {
		return err
	}
	c.Status = entity.StatusStarted
	c.ParPrice = par
	s.Emit(event.New(event.TypeCompanyStarted, "%s starts at par %d", company, par).
		With("company", string(company)).With("par", fmt.Sprint(par)))
	return nil
}

// TransferShare moves a share certificate and pays for it. Purchases from the
// IPO of an incrementally capitalised company pay the company; all other
// purchases pay the seller, where the bank receives for the IPO and the pool.
func (s *State) TransferShare(id certificate.ID, from, to portfolio.Holder, price int) error {
	cert, ok := s.Ledger.Certificate(id)
	if !ok || !cert.IsShare() {
		return apperrors.NotHeld("unknown share certificate %s", id)
	}
	payee := from
	if from.IsBank() {
		payee = portfolio.Bank
		if c := s.Publics[cert.Company]; from == portfolio.IPO && c.Capitalisation == entity.CapitalisationIncremental {
			payee = portfolio.CompanyHolder(cert.Company)
		}
	}
	if to.IsBank() {
		// Sales to the bank are paid by the bank.
		if err := s.Ledger.MoveCertificate(id, from, to); err != nil {
			return err
		}
		return s.Ledger.TransferCash(portfolio.Bank, from, price)
	}
	if s.Ledger.Cash(to) < price {
		return apperrors.InsufficientFunds("%s has %d, needs %d", to, s.Ledger.Cash(to), price)
	}
	if err := s.Ledger.MoveCertificate(id, from, to); err != nil {
		return err
	}
	return s.Ledger.TransferCash(to, payee, price)
}

// CheckFloat floats a started company once the IPO has sold its float percent.
func (s *State) CheckFloat(company entity.CompanyID) error {
	c, err := s.Public(company)
	if err != nil {
		return err
	}
	if c.Floated || !c.Started() {
		return nil
	}
	sold := 100 - s.Ledger.ShareCount(portfolio.IPO, company)
	if sold < c.FloatPercent {
		return nil
	}
	c.Floated = true
	if c.Capitalisation == entity.CapitalisationFull {
		capital := c.ParPrice * 100 / s.Rules.ShareUnit
		if err := s.Ledger.TransferCash(portfolio.Bank, portfolio.CompanyHolder(company), capital); err != nil {
			return err
		}
	}
	s.Emit(event.New(event.TypeCompanyFloated, "%s floats with %d in treasury", company, s.Ledger.Cash(portfolio.CompanyHolder(company))).
		With("company", string(company)))
	return nil
}

// SellableCounts lists, ascending, the share-unit counts player may sell of
// company in one action. A count must fit the pool and be made up exactly
// from certificates the player holds or receives for the president
// certificate.
func (s *State) SellableCounts(player entity.PlayerID, company entity.CompanyID) []int {
	held := s.Ledger.ShareCount(portfolio.PlayerHolder(player), company)
	unit := s.Rules.ShareUnit
	if held == 0 || unit <= 0 {
		return nil
	}
	limit := held / unit
	if s.Rules.PoolLimit > 0 {
		limit = min(limit, (s.Rules.PoolLimit-s.Ledger.ShareCount(portfolio.Pool, company))/unit)
	}
	var out []int
	for n := 1; n <= limit; n++ {
		if _, err := s.planSale(player, company, n); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// salePlan is what a sale moves: the certificates going to the pool and the
// player who first takes the president certificate, if any.
type salePlan struct {
	successor entity.PlayerID
	sell      []certificate.Certificate
}

func (s *State) planSale(player entity.PlayerID, company entity.CompanyID, n int) (salePlan, error) {
	holder := portfolio.PlayerHolder(player)
	held := s.Ledger.ShareCount(holder, company)
	pct := n * s.Rules.ShareUnit
	if held < pct {
		return salePlan{}, apperrors.NotHeld("%s holds %d%% of %s, cannot sell %d%%", player, held, company, pct)
	}
	ordinary := ordinaryCertificates(s.Ledger.CertificatesOf(holder, company))
	if sell, ok := pickCertificates(ordinary, pct); ok {
		return salePlan{sell: sell}, nil
	}
	presCert, ok := s.PresidentCertificate(company)
	if at, _ := s.Ledger.HolderOf(presCert.ID); !ok || at != holder {
		return salePlan{}, apperrors.IllegalAction("%s cannot make up %d%% of %s from the certificates held", player, pct, company)
	}
	remaining := held - pct
	for _, p := range s.PlayersAfter(player) {
		theirs := s.Ledger.CertificatesOf(portfolio.PlayerHolder(p), company)
		if s.Ledger.ShareCount(portfolio.PlayerHolder(p), company) <= remaining {
			continue
		}
		give, ok := pickCertificates(ordinaryCertificates(theirs), presCert.Percent)
		if !ok {
			continue
		}
		if sell, ok := pickCertificates(append(slices.Clone(ordinary), give...), pct); ok {
			return salePlan{successor: p, sell: sell}, nil
		}
	}
	return salePlan{}, apperrors.IllegalAction("%s cannot sell %d%% of %s without dumping the president certificate to the pool", player, pct, company)
}

// SellShares moves n share units of company from player to the pool, pays the
// player at the current price and drops the price once for the whole sale.
// A count the player's certificates cannot make up is rejected before any
// change.
func (s *State) SellShares(player entity.PlayerID, company entity.CompanyID, n int) (market.Move, error) {
	if n <= 0 {
		return market.Move{}, apperrors.IllegalAction("share count must be positive")
	}
	plan, err := s.planSale(player, company, n)
	if err != nil {
		return market.Move{}, err
	}
	holder := portfolio.PlayerHolder(player)
	if plan.successor != "" {
		presCert, _ := s.PresidentCertificate(company)
		if err := s.swapPresident(company, presCert, player, plan.successor); err != nil {
			return market.Move{}, err
		}
	}
	price := s.Market.Price(company)
	pct := n * s.Rules.ShareUnit
	for _, cert := range plan.sell {
		if err := s.TransferShare(cert.ID, holder, portfolio.Pool, s.CertificatePrice(cert, price)); err != nil {
			return market.Move{}, err
		}
	}
	if err := s.CheckPresidency(company); err != nil {
		return market.Move{}, err
	}
	move := s.Market.Sell(company, n)
	s.Emit(event.New(event.TypeSharesSold, "%s sells %d%% of %s at %d", player, pct, company, price).
		With("player", string(player)).With("company", string(company)).With("percent", fmt.Sprint(pct)))
	s.emitMove(move)
	return move, nil
}

func ordinaryCertificates(certs []certificate.Certificate) []certificate.Certificate {
	var out []certificate.Certificate
	for _, cert := range certs {
		if !cert.President {
			out = append(out, cert)
		}
	}
	return out
}

// pickCertificates returns certificates from certs whose percentages add up
// to exactly pct, preferring the earliest ones.
func pickCertificates(certs []certificate.Certificate, pct int) ([]certificate.Certificate, bool) {
	if pct == 0 {
		return nil, true
	}
	for i, cert := range certs {
		if cert.Percent <= 0 || cert.Percent > pct {
			continue
		}
		if rest, ok := pickCertificates(certs[i+1:], pct-cert.Percent); ok {
			return append([]certificate.Certificate{cert}, rest...), true
		}
	}
	return nil, false
}

func (s *State) emitMove(move market.Move) {
	if !move.Moved() {
		return
	}
	from, _ := s.Market.Cell(move.From)
	to, _ := s.Market.Cell(move.To)
	s.Emit(event.New(event.TypePriceMoved, "%s price %d -> %d (%s)", move.Company, from.Price, to.Price, move.Reason).
		With("company", string(move.Company)).With("reason", string(move.Reason)))
}

// EmitMove reports a market move made outside a sale.
func (s *State) EmitMove(move market.Move) {
	s.emitMove(move)
}
