package round

import (
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/board"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/domain/revenue"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// Operating is an operating round. Floated companies operate in market order;
// each turn walks the track, token, revenue and trains steps.
type Operating struct {
	Map     board.Map
	Revenue revenue.Calculator
}

// Kind returns the operating round kind.
func (Operating) Kind() aggregate.RoundKind { return aggregate.RoundOperating }

// Begin pays private revenues and fixes the operating order.
func (r Operating) Begin(s *aggregate.State) error {
	s.Round.OperatingRound++
	s.Emit(event.New(event.TypeRoundStarted, "operating round %d.%d begins", s.Round.StockRound, s.Round.OperatingRound).
		With("round", string(aggregate.RoundOperating)).With("number", fmt.Sprint(s.Round.OperatingRound)))
	if err := s.PayPrivateRevenues(); err != nil {
		return err
	}
	s.Round.Operating = &aggregate.OperatingRoundState{Order: s.OperatingCompanies()}
	return enterCompany(s)
}

// CurrentPlayer returns the president of the operating company.
func (Operating) CurrentPlayer(s *aggregate.State) entity.PlayerID {
	id := s.Round.Operating.Company()
	if id == "" {
		return ""
	}
	return s.Publics[id].President
}

// PossibleActions lists what the operating company may do in its current step.
func (r Operating) PossibleActions(s *aggregate.State) []action.Action {
	st := s.Round.Operating
	id := st.Company()
	if id == "" {
		return nil
	}
	c := s.Publics[id]
	p := c.President
	cash := s.Ledger.Cash(portfolio.CompanyHolder(id))
	var out []action.Action
	switch st.Step {
	case aggregate.StepTrack:
		if st.TileLays < s.Rules.TileLaysPerTurn {
			out = append(out, action.Action{Type: action.TypeLayTile, Player: p, Company: id})
		}
		out = append(out, specialActions(s, id, entity.SpecialFreeTileLay, entity.SpecialExtraTileLay, entity.SpecialFreeToken)...)
		if c.TokensLeft() > 0 && cash >= c.NextTokenCost() {
			out = append(out, action.Action{Type: action.TypeLayToken, Player: p, Company: id})
		}
		out = append(out, action.Action{Type: action.TypeSkip, Player: p, Company: id})
	case aggregate.StepToken:
		if c.TokensLeft() > 0 && cash >= c.NextTokenCost() {
			out = append(out, action.Action{Type: action.TypeLayToken, Player: p, Company: id})
		}
		out = append(out, specialActions(s, id, entity.SpecialFreeToken)...)
		out = append(out, action.Action{Type: action.TypeSkip, Player: p, Company: id})
	case aggregate.StepRevenue:
		out = append(out, action.Action{
			Type: action.TypeSetDividend, Player: p, Company: id,
			Allocations: []action.Allocation{action.Payout, action.Withhold},
		})
	case aggregate.StepTrains:
		out = append(out, trainActions(s, id, p, cash)...)
		out = append(out, privateSaleActions(s, id, p, cash)...)
		if !mustBuyTrain(s, id) {
			out = append(out, action.Action{Type: action.TypeDone, Player: p, Company: id})
		}
	}
	return out
}

func specialActions(s *aggregate.State, company entity.CompanyID, kinds ...entity.SpecialKind) []action.Action {
	p := s.Publics[company].President
	var out []action.Action
	for _, private := range usablePrivates(s, company) {
		for _, sp := range private.Specials {
			if sp.Exercised || !sp.UsableInOperatingRound() || !slices.Contains(kinds, sp.Kind) {
				continue
			}
			if sp.Company != "" && sp.Company != company {
				continue
			}
			out = append(out, action.Action{Type: action.TypeUseSpecial, Player: p, Company: company, Private: private.ID, Special: sp.ID, Hex: sp.Hex})
		}
	}
	return out
}

func trainActions(s *aggregate.State, company entity.CompanyID, p entity.PlayerID, cash int) []action.Action {
	holder := portfolio.CompanyHolder(company)
	if limit := s.TrainLimit(); limit > 0 && len(s.Ledger.TrainsOf(holder)) >= limit {
		return nil
	}
	var out []action.Action
	cheapest, cheapestFrom, found := train.Train{}, portfolio.Holder(""), false
	consider := func(t train.Train, from portfolio.Holder, price int) {
		if price <= cash {
			out = append(out, action.Action{Type: action.TypeBuyTrain, Player: p, Company: company, Train: t.ID, TrainType: t.Type, From: from, Price: price})
		}
		if !found || price < trainCost(s, cheapest) {
			cheapest, cheapestFrom, found = t, from, true
		}
	}
	if t, typ, ok := s.NextIPOTrain(); ok {
		consider(t, portfolio.IPO, typ.Cost)
	}
	seen := map[string]bool{}
	for _, t := range s.Ledger.TrainsOf(portfolio.Pool) {
		if seen[t.Type] {
			continue
		}
		seen[t.Type] = true
		consider(t, portfolio.Pool, trainCost(s, t))
	}
	if cash > 0 {
		for _, other := range s.OperatingCompanies() {
			if other == company {
				continue
			}
			for _, t := range s.Ledger.TrainsOf(portfolio.CompanyHolder(other)) {
				out = append(out, action.Action{
					Type: action.TypeBuyTrain, Player: p, Company: company, Train: t.ID, TrainType: t.Type,
					From: portfolio.CompanyHolder(other), MinPrice: 1, MaxPrice: cash,
				})
			}
		}
	}
	if found && mustBuyTrain(s, company) && trainCost(s, cheapest) > cash {
		out = append(out, action.Action{
			Type: action.TypeBuyTrain, Player: p, Company: company, Train: cheapest.ID, TrainType: cheapest.Type,
			From: cheapestFrom, Price: trainCost(s, cheapest), Emergency: true,
		})
	}
	return out
}

func privateSaleActions(s *aggregate.State, company entity.CompanyID, p entity.PlayerID, cash int) []action.Action {
	if !s.Phases.CurrentPhase().PrivateSales {
		return nil
	}
	var out []action.Action
	for _, id := range s.PrivateOrder {
		private := s.Privates[id]
		holder, ok := s.PrivateHolder(id)
		if _, isPlayer := holder.Player(); private.Closed || !ok || !isPlayer {
			continue
		}
		lo, hi := privatePriceRange(private, cash)
		if lo > hi {
			continue
		}
		out = append(out, action.Action{Type: action.TypeBuyPrivate, Player: p, Company: company, Private: id, From: holder, MinPrice: lo, MaxPrice: hi})
	}
	return out
}

func privatePriceRange(private *entity.PrivateCompany, cash int) (int, int) {
	lo := (private.FacePrice + 1) / 2
	return max(lo, 1), min(private.FacePrice*2, cash)
}

// Process applies an operating round action for the operating company.
func (r Operating) Process(s *aggregate.State, a action.Action) (bool, error) {
	st := s.Round.Operating
	id := st.Company()
	if id == "" {
		return false, apperrors.IllegalState("no company is operating")
	}
	if a.Company != "" && a.Company != id {
		return false, apperrors.IllegalAction("%s is operating, not %s", id, a.Company)
	}
	a.Company = id
	if p := s.Publics[id].President; a.Player != p {
		return false, apperrors.IllegalAction("%s is not the president of %s", a.Player, id)
	}
	var err error
	switch a.Type {
	case action.TypeLayTile:
		err = r.layTile(s, a)
	case action.TypeLayToken:
		err = r.layToken(s, a)
	case action.TypeUseSpecial:
		err = r.useSpecial(s, a)
	case action.TypeSkip:
		err = skipStep(s)
	case action.TypeSetDividend:
		err = r.setDividend(s, a)
	case action.TypeBuyTrain:
		err = r.buyTrain(s, a)
	case action.TypeBuyPrivate:
		err = r.buyPrivate(s, a)
	case action.TypeDone:
		err = r.done(s)
	default:
		return false, unsupported(r.Kind(), a)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r Operating) layTile(s *aggregate.State, a action.Action) error {
	st := s.Round.Operating
	if st.Step != aggregate.StepTrack {
		return apperrors.IllegalAction("tiles are laid in the track step, not %s", st.Step)
	}
	if st.TileLays >= s.Rules.TileLaysPerTurn {
		return apperrors.IllegalAction("%s already laid %d tiles", a.Company, st.TileLays)
	}
	if err := r.placeTile(s, a, false); err != nil {
		return err
	}
	st.TileLays++
	if st.TileLays >= s.Rules.TileLaysPerTurn {
		st.Step = aggregate.StepToken
	}
	return nil
}

func (r Operating) placeTile(s *aggregate.State, a action.Action, free bool) error {
	existing, _ := s.Board.TileAt(a.Hex)
	lay := board.TileLay{
		Company:     a.Company,
		Hex:         a.Hex,
		Tile:        a.Tile,
		Color:       a.TileColor,
		Orientation: a.Orientation,
		Existing:    existing,
		BlockedBy:   s.BlockingPrivate(a.Hex, a.Company),
		Free:        free,
	}
	cost, err := r.Map.CheckTileLay(lay)
	if err != nil {
		return err
	}
	if cost > 0 {
		if err := s.Ledger.TransferCash(portfolio.CompanyHolder(a.Company), portfolio.Bank, cost); err != nil {
			return err
		}
	}
	s.Board.LayTile(a.Hex, board.Placement{Tile: a.Tile, Color: a.TileColor, Orientation: a.Orientation})
	s.Emit(event.New(event.TypeTileLaid, "%s lays tile %s on %s for %d", a.Company, a.Tile, a.Hex, cost).
		With("company", string(a.Company)).With("hex", a.Hex).With("tile", a.Tile).With("cost", fmt.Sprint(cost)))
	return nil
}

func (r Operating) layToken(s *aggregate.State, a action.Action) error {
	st := s.Round.Operating
	if st.Step != aggregate.StepTrack && st.Step != aggregate.StepToken {
		return apperrors.IllegalAction("tokens are placed before revenue, not in the %s step", st.Step)
	}
	c := s.Publics[a.Company]
	price := c.NextTokenCost()
	if err := r.placeToken(s, a, false, price); err != nil {
		return err
	}
	st.Step = aggregate.StepRevenue
	return nil
}

func (r Operating) placeToken(s *aggregate.State, a action.Action, free bool, price int) error {
	c := s.Publics[a.Company]
	if c.TokensLeft() == 0 {
		return apperrors.IllegalAction("%s has no station tokens left", a.Company)
	}
	if s.Board.HasToken(a.Hex, a.Company) {
		return apperrors.IllegalAction("%s already has a token on %s", a.Company, a.Hex)
	}
	cost, err := r.Map.CheckTokenLay(board.TokenLay{Company: a.Company, Hex: a.Hex, Tokens: s.Board.TokensAt(a.Hex), Free: free})
	if err != nil {
		return err
	}
	if !free {
		cost += price
	}
	if cost > 0 {
		if err := s.Ledger.TransferCash(portfolio.CompanyHolder(a.Company), portfolio.Bank, cost); err != nil {
			return err
		}
	}
	s.Board.PlaceToken(a.Hex, a.Company)
	c.TokensPlaced++
	s.Emit(event.New(event.TypeTokenLaid, "%s places a token on %s for %d", a.Company, a.Hex, cost).
		With("company", string(a.Company)).With("hex", a.Hex).With("cost", fmt.Sprint(cost)))
	return nil
}

func (r Operating) useSpecial(s *aggregate.State, a action.Action) error {
	st := s.Round.Operating
	private, err := s.Private(a.Private)
	if err != nil {
		return err
	}
	if !slices.Contains(usablePrivates(s, a.Company), private) {
		return apperrors.NotHeld("%s cannot use %s", a.Company, a.Private)
	}
	sp, ok := private.Special(a.Special)
	if !ok || sp.Exercised || !sp.UsableInOperatingRound() {
		return apperrors.IllegalAction("%s has no usable special %s", a.Private, a.Special)
	}
	if sp.Company != "" && sp.Company != a.Company {
		return apperrors.IllegalAction("%s can only be used by %s", a.Special, sp.Company)
	}
	if sp.Hex != "" {
		if a.Hex != "" && a.Hex != sp.Hex {
			return apperrors.IllegalAction("%s applies to hex %s, not %s", a.Special, sp.Hex, a.Hex)
		}
		a.Hex = sp.Hex
	}
	switch sp.Kind {
	case entity.SpecialFreeTileLay, entity.SpecialExtraTileLay:
		if st.Step != aggregate.StepTrack {
			return apperrors.IllegalAction("%s is used in the track step", a.Special)
		}
		if err := r.placeTile(s, a, sp.Kind == entity.SpecialFreeTileLay); err != nil {
			return err
		}
	case entity.SpecialFreeToken:
		if st.Step != aggregate.StepTrack && st.Step != aggregate.StepToken {
			return apperrors.IllegalAction("%s is used before revenue", a.Special)
		}
		if err := r.placeToken(s, a, true, 0); err != nil {
			return err
		}
	default:
		return apperrors.IllegalAction("%s cannot be used in an operating round", a.Special)
	}
	sp.Exercised = true
	s.Emit(event.New(event.TypeSpecialUsed, "%s uses %s of %s", a.Company, sp.ID, a.Private).
		With("company", string(a.Company)).With("private", string(a.Private)).With("special", sp.ID))
	_, err = s.CheckClosingIfExercised(a.Private, false)
	return err
}

func skipStep(s *aggregate.State) error {
	st := s.Round.Operating
	switch st.Step {
	case aggregate.StepTrack:
		st.Step = aggregate.StepToken
	case aggregate.StepToken:
		st.Step = aggregate.StepRevenue
	default:
		return apperrors.IllegalAction("the %s step cannot be skipped", st.Step)
	}
	return nil
}

func (r Operating) setDividend(s *aggregate.State, a action.Action) error {
	st := s.Round.Operating
	if st.Step != aggregate.StepRevenue {
		return apperrors.IllegalAction("revenue is set in the revenue step, not %s", st.Step)
	}
	holder := portfolio.CompanyHolder(a.Company)
	trains := s.Ledger.TrainsOf(holder)
	if len(a.Trains) > 0 {
		owned := make(map[train.ID]train.Train, len(trains))
		for _, t := range trains {
			owned[t.ID] = t
		}
		run := make([]train.Train, 0, len(a.Trains))
		for _, id := range a.Trains {
			t, ok := owned[id]
			if !ok {
				return apperrors.NotHeld("%s does not own train %s", a.Company, id)
			}
			run = append(run, t)
		}
		trains = run
	}
	amount, err := r.Revenue.Revenue(revenue.Run{Company: a.Company, Trains: trains, Declared: a.Revenue})
	if err != nil {
		return err
	}
	alloc := a.Allocation
	if amount == 0 {
		alloc = action.Withhold
	}
	switch alloc {
	case action.Payout:
		if err := payDividends(s, a.Company, amount); err != nil {
			return err
		}
		s.Emit(event.New(event.TypeRevenuePaid, "%s pays out %d", a.Company, amount).
			With("company", string(a.Company)).With("amount", fmt.Sprint(amount)))
		s.EmitMove(s.Market.PayOut(a.Company))
	case action.Withhold:
		if amount > 0 {
			if err := s.Ledger.TransferCash(portfolio.Bank, holder, amount); err != nil {
				return err
			}
		}
		s.Emit(event.New(event.TypeRevenueWithheld, "%s withholds %d", a.Company, amount).
			With("company", string(a.Company)).With("amount", fmt.Sprint(amount)))
		s.EmitMove(s.Market.Withhold(a.Company))
	default:
		return apperrors.IllegalAction("unknown allocation %q", a.Allocation)
	}
	st.Revenue = amount
	st.Allocated = true
	st.Step = aggregate.StepTrains
	return nil
}

// payDividends pays amount per 100% to every shareholder. Shares left in the
// bank earn for the bank unless the rules send them to the company.
func payDividends(s *aggregate.State, company entity.CompanyID, amount int) error {
	unit := s.Rules.ShareUnit
	perShare := amount * unit / 100
	treasury := portfolio.CompanyHolder(company)
	for _, h := range s.Ledger.Holders() {
		pct := s.Ledger.ShareCount(h, company)
		if pct == 0 {
			continue
		}
		pay := perShare * pct / unit
		to := h
		switch h {
		case portfolio.IPO:
			if !s.Rules.IPODividendsToCompany {
				continue
			}
			to = treasury
		case portfolio.Pool:
			if !s.Rules.PoolDividendsToCompany {
				continue
			}
			to = treasury
		}
		if pay == 0 {
			continue
		}
		if err := s.Ledger.TransferCash(portfolio.Bank, to, pay); err != nil {
			return err
		}
	}
	return nil
}

func (r Operating) buyTrain(s *aggregate.State, a action.Action) error {
	st := s.Round.Operating
	if st.Step != aggregate.StepTrains {
		return apperrors.IllegalAction("trains are bought in the trains step, not %s", st.Step)
	}
	buyer := portfolio.CompanyHolder(a.Company)
	if limit := s.TrainLimit(); limit > 0 && len(s.Ledger.TrainsOf(buyer)) >= limit {
		return apperrors.IllegalAction("%s is at the train limit of %d", a.Company, limit)
	}
	t, ok := s.Ledger.Trains[a.Train]
	if !ok {
		return apperrors.NotHeld("unknown train %s", a.Train)
	}
	if holder, held := s.Ledger.TrainHolderOf(a.Train); !held || holder != a.From {
		return apperrors.NotHeld("train %s is not held by %s", a.Train, a.From)
	}
	switch {
	case a.From == portfolio.IPO:
		next, _, ok := s.NextIPOTrain()
		if !ok || next.Type != t.Type {
			return apperrors.IllegalAction("%s-trains are not on sale yet", t.Type)
		}
		if err := fixedTrainPrice(s, t, a.Price); err != nil {
			return err
		}
	case a.From == portfolio.Pool:
		if err := fixedTrainPrice(s, t, a.Price); err != nil {
			return err
		}
	case isCompanyHolder(a.From):
		if a.From == buyer {
			return apperrors.IllegalAction("%s cannot buy its own train", a.Company)
		}
		if a.Emergency {
			return apperrors.IllegalAction("emergency purchases come from the bank")
		}
		if a.Price < 1 {
			return apperrors.IllegalAction("train price must be at least 1")
		}
	default:
		return apperrors.IllegalAction("trains cannot be bought from %s", a.From)
	}

	cash := s.Ledger.Cash(buyer)
	if a.Emergency {
		if !mustBuyTrain(s, a.Company) {
			return apperrors.IllegalAction("%s is not required to buy a train", a.Company)
		}
		if cash >= a.Price {
			return apperrors.IllegalAction("%s can afford the train without help", a.Company)
		}
		president := s.Publics[a.Company].President
		shortfall := a.Price - cash
		if s.Cash(president) < shortfall {
			return declareBankrupt(s, president, a.Company)
		}
		if err := s.Ledger.TransferCash(portfolio.PlayerHolder(president), buyer, shortfall); err != nil {
			return err
		}
	}
	return s.BuyTrain(a.Company, a.Train, a.From, a.Price)
}

func fixedTrainPrice(s *aggregate.State, t train.Train, price int) error {
	if cost := trainCost(s, t); price != cost {
		return apperrors.IllegalAction("a %s-train costs %d, not %d", t.Type, cost, price)
	}
	return nil
}

func declareBankrupt(s *aggregate.State, p entity.PlayerID, company entity.CompanyID) error {
	if !slices.Contains(s.Bankrupt, p) {
		s.Bankrupt = append(s.Bankrupt, p)
	}
	s.Emit(event.New(event.TypeBankrupt, "%s cannot fund a train for %s and goes bankrupt", p, company).
		With("player", string(p)).With("company", string(company)))
	return nil
}

func (r Operating) buyPrivate(s *aggregate.State, a action.Action) error {
	st := s.Round.Operating
	if st.Step != aggregate.StepTrains {
		return apperrors.IllegalAction("privates are bought in the trains step, not %s", st.Step)
	}
	if !s.Phases.CurrentPhase().PrivateSales {
		return apperrors.IllegalAction("privates cannot be sold to companies in phase %s", s.Phases.Current)
	}
	private, err := s.Private(a.Private)
	if err != nil {
		return err
	}
	holder, ok := s.PrivateHolder(a.Private)
	seller, isPlayer := holder.Player()
	if private.Closed || !ok || !isPlayer {
		return apperrors.NotHeld("%s is not held by a player", a.Private)
	}
	buyer := portfolio.CompanyHolder(a.Company)
	lo, hi := privatePriceRange(private, s.Ledger.Cash(buyer))
	if a.Price < lo || a.Price > private.FacePrice*2 {
		return apperrors.IllegalAction("%s sells for %d to %d, not %d", a.Private, lo, private.FacePrice*2, a.Price)
	}
	if a.Price > hi {
		return apperrors.InsufficientFunds("%s has %d, needs %d", a.Company, s.Ledger.Cash(buyer), a.Price)
	}
	if err := s.Ledger.MoveCertificate(aggregate.PrivateCertificateID(a.Private), holder, buyer); err != nil {
		return err
	}
	if err := s.Ledger.TransferCash(buyer, holder, a.Price); err != nil {
		return err
	}
	s.Emit(event.New(event.TypePrivateBought, "%s buys %s from %s for %d", a.Company, a.Private, seller, a.Price).
		With("company", string(a.Company)).With("private", string(a.Private)).With("price", fmt.Sprint(a.Price)))
	return nil
}

func (r Operating) done(s *aggregate.State) error {
	st := s.Round.Operating
	if st.Step != aggregate.StepTrains {
		return apperrors.IllegalAction("the turn ends after the trains step, not in %s", st.Step)
	}
	id := st.Company()
	if mustBuyTrain(s, id) {
		return apperrors.IllegalAction("%s must buy a train", id)
	}
	for _, private := range usablePrivates(s, id) {
		if _, err := s.CheckClosingIfExercised(private.ID, true); err != nil {
			return err
		}
	}
	s.Publics[id].Operated = true
	st.Index++
	return enterCompany(s)
}

// Finished reports whether every company has operated, or a player went bankrupt.
func (Operating) Finished(s *aggregate.State) bool {
	return s.Round.Operating.Company() == "" || len(s.Bankrupt) > 0
}

// End closes the round.
func (Operating) End(s *aggregate.State) error {
	s.Emit(event.New(event.TypeRoundEnded, "operating round %d.%d ends", s.Round.StockRound, s.Round.OperatingRound).
		With("round", string(aggregate.RoundOperating)))
	s.Round.Operating = nil
	return nil
}

// Help summarises the legal actions.
func (r Operating) Help(s *aggregate.State) string {
	st := s.Round.Operating
	return help(fmt.Sprintf("Operating round %d.%d, %s (%s step)", s.Round.StockRound, s.Round.OperatingRound, st.Company(), st.Step), s, r)
}

// enterCompany prepares the turn of the company at the cursor, placing its
// home token on its first turn.
func enterCompany(s *aggregate.State) error {
	st := s.Round.Operating
	st.Step = aggregate.StepTrack
	st.TileLays = 0
	st.Revenue = 0
	st.Allocated = false
	id := st.Company()
	if id == "" {
		return nil
	}
	c := s.Publics[id]
	if c.TokensPlaced == 0 && c.HomeHex != "" && c.TokensTotal > 0 {
		s.Board.PlaceToken(c.HomeHex, id)
		c.TokensPlaced = 1
		s.Emit(event.New(event.TypeTokenLaid, "%s places its home token on %s", id, c.HomeHex).
			With("company", string(id)).With("hex", c.HomeHex).With("cost", "0"))
	}
	return nil
}

// usablePrivates returns the open privates whose specials company may use:
// those it owns and those owned by its president.
func usablePrivates(s *aggregate.State, company entity.CompanyID) []*entity.PrivateCompany {
	out := s.PrivatesOf(portfolio.CompanyHolder(company))
	if p := s.Publics[company].President; p != "" {
		out = append(out, s.PrivatesOf(portfolio.PlayerHolder(p))...)
	}
	return out
}

// mustBuyTrain reports whether company owns no train while one is for sale
// from the bank.
func mustBuyTrain(s *aggregate.State, company entity.CompanyID) bool {
	if !s.Rules.MustBuyTrain || len(s.Ledger.TrainsOf(portfolio.CompanyHolder(company))) > 0 {
		return false
	}
	if _, _, ok := s.NextIPOTrain(); ok {
		return true
	}
	return len(s.Ledger.TrainsOf(portfolio.Pool)) > 0
}

func trainCost(s *aggregate.State, t train.Train) int {
	typ, _ := s.Trains.Type(t.Type)
	return typ.Cost
}

func isCompanyHolder(h portfolio.Holder) bool {
	_, ok := h.Company()
	return ok
}
