package round

import (
	"testing"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/domain/revenue"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

var prr = portfolio.CompanyHolder("PRR")

func skipToRevenue(t *testing.T, s *aggregate.State, r Operating) {
	t.Helper()
	process(t, s, r, action.Action{Type: action.TypeSkip, Player: "alice"})
	process(t, s, r, action.Action{Type: action.TypeSkip, Player: "alice"})
}

func withhold(t *testing.T, s *aggregate.State, r Operating) {
	t.Helper()
	process(t, s, r, action.Action{Type: action.TypeSetDividend, Player: "alice", Allocation: action.Withhold})
}

func moveTrain(t *testing.T, s *aggregate.State, id train.ID, to portfolio.Holder) {
	t.Helper()
	from, _ := s.Ledger.TrainHolderOf(id)
	if err := s.Ledger.MoveTrain(id, from, to); err != nil {
		t.Fatalf("MoveTrain: %v", err)
	}
}

func TestOperatingBeginPlacesHomeTokenAndPaysPrivates(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	givePrivate(t, s, "SV", portfolio.PlayerHolder("bob"))
	r := beginOperating(t, s, revenue.Declared{})

	if got := r.CurrentPlayer(s); got != "alice" {
		t.Fatalf("current player = %s, want alice", got)
	}
	if !s.Board.HasToken("H12", "PRR") {
		t.Fatal("PRR home token missing")
	}
	if got := s.Publics["PRR"].TokensPlaced; got != 1 {
		t.Fatalf("tokens placed = %d, want 1", got)
	}
	if got := s.Cash("bob"); got != 605 {
		t.Fatalf("bob cash = %d, want 605", got)
	}
	if got := s.Round.Operating.Step; got != aggregate.StepTrack {
		t.Fatalf("step = %s, want track", got)
	}
}

func TestOperatingOrderFollowsSharePrice(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	if err := s.StartCompany("BO", 110); err != nil {
		t.Fatalf("StartCompany: %v", err)
	}
	give(t, s, "bob", "BO", true, 2)
	if err := s.CheckFloat("BO"); err != nil {
		t.Fatalf("CheckFloat: %v", err)
	}
	r := beginOperating(t, s, revenue.Declared{})

	if got := s.Round.Operating.Order; len(got) != 2 || got[0] != "BO" || got[1] != "PRR" {
		t.Fatalf("order = %v, want [BO PRR]", got)
	}
	if got := r.CurrentPlayer(s); got != "bob" {
		t.Fatalf("current player = %s, want bob", got)
	}
}

func TestOperatingTurnWalksSteps(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	r := beginOperating(t, s, revenue.Declared{})

	process(t, s, r, action.Action{Type: action.TypeLayTile, Player: "alice", Hex: "E5", Tile: "7", TileColor: "yellow"})
	if got := s.Ledger.Cash(prr); got != 960 {
		t.Fatalf("treasury = %d, want 960 after terrain", got)
	}
	if got := s.Round.Operating.Step; got != aggregate.StepToken {
		t.Fatalf("step = %s, want token", got)
	}
	process(t, s, r, action.Action{Type: action.TypeLayToken, Player: "alice", Hex: "F6"})
	if got := s.Ledger.Cash(prr); got != 920 {
		t.Fatalf("treasury = %d, want 920 after token", got)
	}

	if _, err := r.Process(s, action.Action{Type: action.TypeSkip, Player: "alice"}); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("skip revenue: error = %v, want illegal action", err)
	}
	process(t, s, r, action.Action{Type: action.TypeSetDividend, Player: "alice", Allocation: action.Payout})
	if pos, _ := s.Market.Position("PRR"); pos != (market.Position{Row: 1, Col: 3}) {
		t.Fatalf("PRR position = %v, want a withhold move to (1,3)", pos)
	}

	if hasAction(r.PossibleActions(s), action.Action{Type: action.TypeDone, Player: "alice"}) {
		t.Fatal("done offered while PRR must buy a train")
	}
	if _, err := r.Process(s, action.Action{Type: action.TypeDone, Player: "alice"}); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("done without a train: error = %v, want illegal action", err)
	}
	buy := action.Action{Type: action.TypeBuyTrain, Player: "alice", From: portfolio.IPO, Price: 80}
	normalized, ok := action.Match(r.PossibleActions(s), buy)
	if !ok {
		t.Fatalf("train purchase not offered: %v", r.PossibleActions(s))
	}
	process(t, s, r, normalized)
	process(t, s, r, action.Action{Type: action.TypeDone, Player: "alice"})

	if !r.Finished(s) {
		t.Fatal("round should finish after the only company operates")
	}
	if !s.Publics["PRR"].Operated {
		t.Fatal("PRR should be marked as operated")
	}
	if got := s.Ledger.Cash(prr); got != 840 {
		t.Fatalf("treasury = %d, want 840", got)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestOperatingTileLayRules(t *testing.T) {
	tests := []struct {
		name string
		lay  action.Action
		code apperrors.Code
	}{
		{name: "blocked by private", lay: action.Action{Hex: "G15", Tile: "7", TileColor: "yellow"}, code: apperrors.CodeIllegalAction},
		{name: "wrong color", lay: action.Action{Hex: "E5", Tile: "14", TileColor: "green"}, code: apperrors.CodeIllegalAction},
		{name: "unknown hex", lay: action.Action{Hex: "Z9", Tile: "7", TileColor: "yellow"}, code: apperrors.CodeIllegalAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			floatPRR(t, s)
			givePrivate(t, s, "SV", portfolio.PlayerHolder("bob"))
			r := beginOperating(t, s, revenue.Declared{})
			a := tt.lay
			a.Type, a.Player = action.TypeLayTile, "alice"
			if _, err := r.Process(s, a); !apperrors.HasCode(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOperatingTileLayNeedsTreasury(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	r := beginOperating(t, s, revenue.Declared{})
	if err := s.Ledger.TransferCash(prr, portfolio.Bank, 990); err != nil {
		t.Fatalf("TransferCash: %v", err)
	}
	_, err := r.Process(s, action.Action{Type: action.TypeLayTile, Player: "alice", Hex: "E5", Tile: "7", TileColor: "yellow"})
	if !apperrors.HasCode(err, apperrors.CodeInsufficientFunds) {
		t.Fatalf("error = %v, want INSUFFICIENT_FUNDS", err)
	}
}

func TestOperatingSpecialsCloseWhenAllExercised(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	givePrivate(t, s, "SV", portfolio.PlayerHolder("alice"))
	r := beginOperating(t, s, revenue.Declared{})

	tile := action.Action{Type: action.TypeUseSpecial, Player: "alice", Private: "SV", Special: "SV-tile", Tile: "57", TileColor: "yellow"}
	if !hasAction(r.PossibleActions(s), tile) {
		t.Fatalf("free tile lay not offered: %v", r.PossibleActions(s))
	}
	process(t, s, r, tile)
	if got := s.Ledger.Cash(prr); got != 1000 {
		t.Fatalf("treasury = %d, want 1000 after a free lay", got)
	}
	if p, ok := s.Board.TileAt("G15"); !ok || p.Tile != "57" {
		t.Fatalf("G15 tile = %v, want 57", p)
	}
	if s.Privates["SV"].Closed {
		t.Fatal("SV closed with a special left")
	}

	process(t, s, r, action.Action{Type: action.TypeUseSpecial, Player: "alice", Private: "SV", Special: "SV-token"})
	if !s.Board.HasToken("G15", "PRR") {
		t.Fatal("free token not placed")
	}
	if !s.Privates["SV"].Closed {
		t.Fatal("SV should close once both specials are used")
	}
	if _, err := r.Process(s, action.Action{Type: action.TypeUseSpecial, Player: "alice", Private: "SV", Special: "SV-token"}); err == nil {
		t.Fatal("expected error reusing a closed private")
	}
}

func TestOperatingDividends(t *testing.T) {
	tests := []struct {
		name         string
		allocation   action.Allocation
		ipoToCompany bool
		wantAlice    int
		wantBob      int
		wantTreasury int
		wantCol      int
	}{
		{name: "payout", allocation: action.Payout, wantAlice: 660, wantBob: 620, wantTreasury: 1000, wantCol: 5},
		{name: "payout with ipo dividends", allocation: action.Payout, ipoToCompany: true, wantAlice: 660, wantBob: 620, wantTreasury: 1020, wantCol: 5},
		{name: "withhold", allocation: action.Withhold, wantAlice: 600, wantBob: 600, wantTreasury: 1100, wantCol: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, func(r *aggregate.Rules) { r.IPODividendsToCompany = tt.ipoToCompany })
			floatPRR(t, s)
			give(t, s, "bob", "PRR", false, 2)
			moveTrain(t, s, aggregate.TrainID("2", 0), prr)
			r := beginOperating(t, s, revenue.Declared{})
			skipToRevenue(t, s, r)

			process(t, s, r, action.Action{Type: action.TypeSetDividend, Player: "alice", Revenue: 100, Allocation: tt.allocation})

			if got := s.Cash("alice"); got != tt.wantAlice {
				t.Fatalf("alice cash = %d, want %d", got, tt.wantAlice)
			}
			if got := s.Cash("bob"); got != tt.wantBob {
				t.Fatalf("bob cash = %d, want %d", got, tt.wantBob)
			}
			if got := s.Ledger.Cash(prr); got != tt.wantTreasury {
				t.Fatalf("treasury = %d, want %d", got, tt.wantTreasury)
			}
			if pos, _ := s.Market.Position("PRR"); pos.Col != tt.wantCol {
				t.Fatalf("PRR column = %d, want %d", pos.Col, tt.wantCol)
			}
			if got := s.Ledger.TotalCash(); got != s.CashTotal {
				t.Fatalf("total cash = %d, want %d", got, s.CashTotal)
			}
		})
	}
}

func TestOperatingRevenueChecksCalculator(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	moveTrain(t, s, aggregate.TrainID("2", 0), prr)
	r := beginOperating(t, s, revenue.Declared{MaxPerTrain: 50})
	skipToRevenue(t, s, r)
	_, err := r.Process(s, action.Action{Type: action.TypeSetDividend, Player: "alice", Revenue: 100, Allocation: action.Payout})
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action", err)
	}
	_, err = r.Process(s, action.Action{Type: action.TypeSetDividend, Player: "alice", Revenue: 40, Allocation: action.Payout, Trains: []train.ID{"3-0"}})
	if !apperrors.HasCode(err, apperrors.CodeNotHeld) {
		t.Fatalf("error = %v, want NOT_HELD for a train PRR does not own", err)
	}
}

func TestOperatingTrainPurchaseAdvancesPhase(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	givePrivate(t, s, "SV", portfolio.PlayerHolder("bob"))
	r := beginOperating(t, s, revenue.Declared{})
	skipToRevenue(t, s, r)
	withhold(t, s, r)

	process(t, s, r, action.Action{Type: action.TypeBuyTrain, Player: "alice", Train: "2-0", From: portfolio.IPO, Price: 80})
	for i := 1; i < 4; i++ {
		moveTrain(t, s, aggregate.TrainID("2", i), portfolio.Scrapyard)
	}
	if _, err := r.Process(s, action.Action{Type: action.TypeBuyTrain, Player: "alice", Train: "3-1", From: portfolio.IPO, Price: 180}); err != nil {
		t.Fatalf("buy 3-train: %v", err)
	}
	if got := s.Phases.Current; got != "3" {
		t.Fatalf("phase = %s, want 3", got)
	}
	if got := len(s.Ledger.TrainsOf(prr)); got != 2 {
		t.Fatalf("PRR trains = %d, want 2", got)
	}
	if got := s.Ledger.Cash(prr); got != 740 {
		t.Fatalf("treasury = %d, want 740", got)
	}
	_, err := r.Process(s, action.Action{Type: action.TypeBuyTrain, Player: "alice", Train: "3-0", From: portfolio.IPO, Price: 180})
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action at the train limit", err)
	}
}

func TestOperatingRejectsWrongTrainPrice(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	r := beginOperating(t, s, revenue.Declared{})
	skipToRevenue(t, s, r)
	withhold(t, s, r)
	_, err := r.Process(s, action.Action{Type: action.TypeBuyTrain, Player: "alice", Train: "2-0", From: portfolio.IPO, Price: 50})
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action", err)
	}
	_, err = r.Process(s, action.Action{Type: action.TypeBuyTrain, Player: "alice", Train: "3-0", From: portfolio.IPO, Price: 180})
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action for a train not on sale", err)
	}
}

func TestOperatingEmergencyTrainPurchase(t *testing.T) {
	tests := []struct {
		name          string
		presidentCash int
		wantBankrupt  bool
		wantAlice     int
	}{
		{name: "president covers shortfall", presidentCash: 600, wantAlice: 560},
		{name: "president bankrupt", presidentCash: 10, wantBankrupt: true, wantAlice: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			floatPRR(t, s)
			if err := s.Ledger.TransferCash(prr, portfolio.Bank, 960); err != nil {
				t.Fatalf("TransferCash: %v", err)
			}
			if drain := 600 - tt.presidentCash; drain > 0 {
				if err := s.Ledger.TransferCash(portfolio.PlayerHolder("alice"), portfolio.Bank, drain); err != nil {
					t.Fatalf("TransferCash: %v", err)
				}
			}
			r := beginOperating(t, s, revenue.Declared{})
			skipToRevenue(t, s, r)
			withhold(t, s, r)

			buy := action.Action{Type: action.TypeBuyTrain, Player: "alice", Train: "2-0", From: portfolio.IPO, Price: 80, Emergency: true}
			if !hasAction(r.PossibleActions(s), buy) {
				t.Fatalf("emergency purchase not offered: %v", r.PossibleActions(s))
			}
			process(t, s, r, buy)

			if got := len(s.Bankrupt) > 0; got != tt.wantBankrupt {
				t.Fatalf("bankrupt = %v, want %v", got, tt.wantBankrupt)
			}
			if got := s.Cash("alice"); got != tt.wantAlice {
				t.Fatalf("alice cash = %d, want %d", got, tt.wantAlice)
			}
			if tt.wantBankrupt {
				if !r.Finished(s) {
					t.Fatal("round should stop on bankruptcy")
				}
				return
			}
			if got := len(s.Ledger.TrainsOf(prr)); got != 1 {
				t.Fatalf("PRR trains = %d, want 1", got)
			}
			if got := s.Ledger.Cash(prr); got != 0 {
				t.Fatalf("treasury = %d, want 0", got)
			}
		})
	}
}

func TestOperatingBuyPrivate(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	givePrivate(t, s, "MH", portfolio.PlayerHolder("bob"))
	r := beginOperating(t, s, revenue.Declared{})
	skipToRevenue(t, s, r)
	withhold(t, s, r)

	buy := action.Action{Type: action.TypeBuyPrivate, Player: "alice", Private: "MH", From: portfolio.PlayerHolder("bob"), Price: 220}
	if _, err := r.Process(s, buy); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("phase 2: error = %v, want illegal action", err)
	}
	if _, err := s.Phases.SetPhase("3"); err != nil {
		t.Fatalf("SetPhase: %v", err)
	}
	if !hasAction(r.PossibleActions(s), buy) {
		t.Fatalf("private purchase not offered: %v", r.PossibleActions(s))
	}
	tooMuch := buy
	tooMuch.Price = 221
	if _, err := r.Process(s, tooMuch); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("price above range: error = %v, want illegal action", err)
	}
	process(t, s, r, buy)
	if h, _ := s.PrivateHolder("MH"); h != prr {
		t.Fatalf("MH holder = %s, want PRR", h)
	}
	// 600 start, 20 MH revenue at the start of the round, 220 for the sale.
	if got := s.Cash("bob"); got != 840 {
		t.Fatalf("bob cash = %d, want 840", got)
	}
	if got := s.Ledger.Cash(prr); got != 780 {
		t.Fatalf("treasury = %d, want 780", got)
	}
}

func TestOperatingRejectsNonPresident(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	r := beginOperating(t, s, revenue.Declared{})
	_, err := r.Process(s, action.Action{Type: action.TypeSkip, Player: "bob"})
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action", err)
	}
}
