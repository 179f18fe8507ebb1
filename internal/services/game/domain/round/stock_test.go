package round

import (
	"testing"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

func passAll(t *testing.T, s *aggregate.State, r Round, players ...entity.PlayerID) {
	t.Helper()
	for _, p := range players {
		process(t, s, r, action.Action{Type: action.TypePass, Player: p})
	}
}

func TestStockPresidentBuysSecondCertificateAtPar(t *testing.T) {
	s := newState(t)
	r := beginStock(t, s, 1)

	start := action.Action{Type: action.TypeStartCompany, Player: "alice", Company: "BO", Price: 100}
	if !hasAction(r.PossibleActions(s), start) {
		t.Fatal("expected alice to be able to start BO at 100")
	}
	process(t, s, r, start)
	parPos, _ := s.Market.Position("BO")
	process(t, s, r, action.Action{Type: action.TypeDone, Player: "alice"})
	passAll(t, s, r, "bob", "carol")

	buy := action.Action{Type: action.TypeBuyCertificate, Player: "alice", Company: "BO", From: portfolio.IPO, Price: 200}
	if !hasAction(r.PossibleActions(s), buy) {
		t.Fatalf("expected %s to be legal, got %v", buy, r.PossibleActions(s))
	}
	process(t, s, r, buy)

	if got := s.Ledger.ShareCount(portfolio.PlayerHolder("alice"), "BO"); got != 40 {
		t.Fatalf("alice BO = %d%%, want 40%%", got)
	}
	if got := s.Cash("alice"); got != 200 {
		t.Fatalf("alice cash = %d, want 200", got)
	}
	if pos, _ := s.Market.Position("BO"); pos != parPos {
		t.Fatalf("BO position = %v, want unchanged %v", pos, parPos)
	}
	if s.Publics["BO"].Floated {
		t.Fatal("BO floated with 40% sold")
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestStockSoldOutRisesOncePerRound(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	give(t, s, "bob", "PRR", false, 4)

	for i, wantRow := range []int{2, 3} {
		r := beginStock(t, s, 2+i)
		passAll(t, s, r, "alice", "bob", "carol")
		if !r.Finished(s) {
			t.Fatal("round should finish after everyone passes")
		}
		if err := r.End(s); err != nil {
			t.Fatalf("End: %v", err)
		}
		pos, _ := s.Market.Position("PRR")
		if pos.Row != wantRow {
			t.Fatalf("round %d: PRR row = %d, want %d", i, pos.Row, wantRow)
		}
		if got := countEvents(s, event.TypePriceMoved, "reason", string(market.ReasonSoldOut)); got != i+1 {
			t.Fatalf("round %d: sold-out moves = %d, want %d", i, got, i+1)
		}
	}
}

func TestStockSellingUnheldSharesIsNotHeld(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	s.Priority = "bob"
	r := beginStock(t, s, 2)

	if hasAction(r.PossibleActions(s), action.Action{Type: action.TypeSellShares, Player: "bob", Company: "PRR", Count: 1}) {
		t.Fatal("bob should have nothing to sell")
	}
	_, err := r.Process(s, action.Action{Type: action.TypeSellShares, Player: "bob", Company: "PRR", Count: 1})
	if !apperrors.HasCode(err, apperrors.CodeNotHeld) {
		t.Fatalf("error = %v, want NOT_HELD", err)
	}
}

func TestStockSaleBlocksBuyingBack(t *testing.T) {
	tests := []struct {
		name          string
		scope         aggregate.SellBuyScope
		nextTurnLegal bool
	}{
		{name: "turn scope", scope: aggregate.SellBuyTurn, nextTurnLegal: true},
		{name: "round scope", scope: aggregate.SellBuyRound, nextTurnLegal: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, func(r *aggregate.Rules) { r.SellBuyRestriction = tt.scope })
			floatPRR(t, s)
			r := beginStock(t, s, 2)

			process(t, s, r, action.Action{Type: action.TypeSellShares, Player: "alice", Company: "PRR", Count: 1})
			if got := s.Cash("alice"); got != 700 {
				t.Fatalf("alice cash = %d, want 700", got)
			}
			if got := s.Market.Price("PRR"); got != 80 {
				t.Fatalf("PRR price = %d, want 80", got)
			}
			buy := action.Action{Type: action.TypeBuyCertificate, Player: "alice", Company: "PRR", From: portfolio.Pool, Price: 80}
			if _, err := r.Process(s, buy); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
				t.Fatalf("error = %v, want illegal action in the selling turn", err)
			}
			process(t, s, r, action.Action{Type: action.TypeDone, Player: "alice"})
			passAll(t, s, r, "bob", "carol")

			_, err := r.Process(s, buy)
			if tt.nextTurnLegal && err != nil {
				t.Fatalf("buy back next turn: %v", err)
			}
			if !tt.nextTurnLegal && !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
				t.Fatalf("error = %v, want illegal action for the rest of the round", err)
			}
		})
	}
}

func TestStockSaleRules(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*aggregate.Rules)
		round int
		count int
	}{
		{name: "first stock round", edit: func(r *aggregate.Rules) { r.NoSaleInFirstSR = true }, round: 1, count: 1},
		{name: "pool limit", edit: func(r *aggregate.Rules) { r.PoolLimit = 10 }, round: 2, count: 2},
		{name: "not operated", edit: func(r *aggregate.Rules) { r.SellRequiresOperated = true }, round: 2, count: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, tt.edit)
			floatPRR(t, s)
			r := beginStock(t, s, tt.round)
			_, err := r.Process(s, action.Action{Type: action.TypeSellShares, Player: "alice", Company: "PRR", Count: tt.count})
			if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
				t.Fatalf("error = %v, want illegal action", err)
			}
		})
	}
}

func TestStockPresidentCannotDumpWithoutSuccessor(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	r := beginStock(t, s, 2)
	_, err := r.Process(s, action.Action{Type: action.TypeSellShares, Player: "alice", Company: "PRR", Count: 5})
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action", err)
	}
	if got := s.Ledger.ShareCount(portfolio.PlayerHolder("alice"), "PRR"); got != 60 {
		t.Fatalf("alice PRR = %d%%, want 60%%", got)
	}
}

func TestStockSellCountsFollowCertificateSizes(t *testing.T) {
	s := newState(t)
	if err := s.StartCompany("BO", 100); err != nil {
		t.Fatalf("StartCompany: %v", err)
	}
	give(t, s, "alice", "BO", true, 0)
	give(t, s, "bob", "BO", false, 1)
	s.Priority = "bob"
	r := beginStock(t, s, 2)

	possible := r.PossibleActions(s)
	half := action.Action{Type: action.TypeSellShares, Player: "bob", Company: "BO", Count: 1}
	if hasAction(possible, half) {
		t.Fatalf("10%% of BO offered to bob, who holds one 20%% certificate: %v", possible)
	}
	whole := action.Action{Type: action.TypeSellShares, Player: "bob", Company: "BO", Count: 2}
	if !hasAction(possible, whole) {
		t.Fatalf("20%% of BO not offered to bob: %v", possible)
	}

	_, err := r.Process(s, half)
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action", err)
	}
	if got := s.Ledger.ShareCount(portfolio.Pool, "BO"); got != 0 {
		t.Fatalf("pool BO = %d%%, want 0%% after rejected sale", got)
	}
	if got := s.Cash("bob"); got != 600 {
		t.Fatalf("bob cash = %d, want 600 after rejected sale", got)
	}

	process(t, s, r, whole)
	if got := s.Ledger.ShareCount(portfolio.Pool, "BO"); got != 20 {
		t.Fatalf("pool BO = %d%%, want 20%%", got)
	}
	if got := s.Cash("bob"); got != 800 {
		t.Fatalf("bob cash = %d, want 800", got)
	}
}

func TestStockBuyLimits(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(*aggregate.Rules)
		player entity.PlayerID
		setup  func(*testing.T, *aggregate.State)
	}{
		{
			name:   "percent limit",
			player: "alice",
		},
		{
			name:   "certificate limit",
			edit:   func(r *aggregate.Rules) { r.CertLimit = 2 },
			player: "bob",
			setup:  func(t *testing.T, s *aggregate.State) { give(t, s, "bob", "PRR", false, 2) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var edits []func(*aggregate.Rules)
			if tt.edit != nil {
				edits = append(edits, tt.edit)
			}
			s := newState(t, edits...)
			floatPRR(t, s)
			if tt.setup != nil {
				tt.setup(t, s)
			}
			s.Priority = tt.player
			r := beginStock(t, s, 2)
			buy := action.Action{Type: action.TypeBuyCertificate, Player: tt.player, Company: "PRR", From: portfolio.IPO, Price: 100}
			if hasAction(r.PossibleActions(s), buy) {
				t.Fatal("buy should not be offered")
			}
			if _, err := r.Process(s, buy); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
				t.Fatalf("error = %v, want illegal action", err)
			}
		})
	}
}

func TestStockInsufficientFunds(t *testing.T) {
	s := newState(t)
	r := beginStock(t, s, 1)
	_, err := r.Process(s, action.Action{Type: action.TypeStartCompany, Player: "alice", Company: "BO", Price: 110})
	if err != nil {
		t.Fatalf("start BO: %v", err)
	}
	process(t, s, r, action.Action{Type: action.TypeDone, Player: "alice"})
	passAll(t, s, r, "bob", "carol")
	if err := s.Ledger.TransferCash(portfolio.PlayerHolder("alice"), portfolio.Bank, 300); err != nil {
		t.Fatalf("TransferCash: %v", err)
	}
	_, err = r.Process(s, action.Action{Type: action.TypeBuyCertificate, Player: "alice", Company: "BO", From: portfolio.IPO, Price: 220})
	if !apperrors.HasCode(err, apperrors.CodeInsufficientFunds) {
		t.Fatalf("error = %v, want INSUFFICIENT_FUNDS", err)
	}
}

func TestStockTurnDisciplineAndPriority(t *testing.T) {
	s := newState(t)
	r := beginStock(t, s, 1)

	process(t, s, r, action.Action{Type: action.TypeStartCompany, Player: "alice", Company: "PRR", Price: 100})
	if _, err := r.Process(s, action.Action{Type: action.TypePass, Player: "alice"}); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("pass after acting: error = %v, want illegal action", err)
	}
	if _, err := r.Process(s, action.Action{Type: action.TypeBuyCertificate, Player: "alice", Company: "PRR", From: portfolio.IPO, Price: 100}); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("second buy: error = %v, want illegal action", err)
	}
	process(t, s, r, action.Action{Type: action.TypeDone, Player: "alice"})
	if _, err := r.Process(s, action.Action{Type: action.TypeDone, Player: "bob"}); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("done without acting: error = %v, want illegal action", err)
	}
	if _, err := r.Process(s, action.Action{Type: action.TypePass, Player: "carol"}); !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("out of turn: error = %v, want illegal action", err)
	}
	passAll(t, s, r, "bob", "carol")
	if r.Finished(s) {
		t.Fatal("round finished before alice passed")
	}
	passAll(t, s, r, "alice")
	if !r.Finished(s) {
		t.Fatal("round should finish after three passes")
	}
	if err := r.End(s); err != nil {
		t.Fatalf("End: %v", err)
	}
	if s.Priority != "bob" {
		t.Fatalf("priority = %s, want bob", s.Priority)
	}
	if s.Round.Stock != nil {
		t.Fatal("stock cursor should be cleared")
	}
}

func TestStockExchangePrivateForShare(t *testing.T) {
	s := newState(t)
	floatPRR(t, s)
	givePrivate(t, s, "MH", portfolio.PlayerHolder("bob"))
	s.Priority = "bob"
	r := beginStock(t, s, 2)

	exchange := action.Action{Type: action.TypeUseSpecial, Player: "bob", Private: "MH", Special: "MH-exchange"}
	normalized, ok := action.Match(r.PossibleActions(s), exchange)
	if !ok {
		t.Fatalf("exchange not offered: %v", r.PossibleActions(s))
	}
	process(t, s, r, normalized)

	if got := s.Ledger.ShareCount(portfolio.PlayerHolder("bob"), "PRR"); got != 10 {
		t.Fatalf("bob PRR = %d%%, want 10%%", got)
	}
	if !s.Privates["MH"].Closed {
		t.Fatal("MH should close after the exchange")
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}
