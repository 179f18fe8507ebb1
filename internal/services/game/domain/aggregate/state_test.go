package aggregate

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/event"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/phase"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

func testCells() []market.Cell {
	var cells []market.Cell
	for row := 0; row < 4; row++ {
		for col := 0; col < 7; col++ {
			c := market.Cell{Position: market.Position{Row: row, Col: col}, Price: 40 + 10*col + 20*row}
			if row == 1 && col >= 2 && col <= 5 {
				c.Flags = []market.Flag{market.FlagPar}
			}
			cells = append(cells, c)
		}
	}
	return cells
}

func shareCerts(company entity.CompanyID) []certificate.Certificate {
	certs := []certificate.Certificate{certificate.NewShare(certificate.ID(company+"-0"), company, 20, true)}
	for i := 1; i <= 8; i++ {
		certs = append(certs, certificate.NewShare(certificate.ID(fmt.Sprintf("%s-%d", company, i)), company, 10, false))
	}
	return certs
}

func newTestState(t *testing.T) *State {
	t.Helper()
	mkt, err := market.New(testCells(), market.Rules{})
	if err != nil {
		t.Fatalf("market: %v", err)
	}
	phases, err := phase.New([]phase.Phase{
		{Name: "2", TrainLimit: 4, OperatingRounds: 1},
		{Name: "3", Trigger: phase.Trigger{TrainType: "3"}, TrainLimit: 2, OperatingRounds: 2},
		{Name: "4", Trigger: phase.Trigger{TrainType: "4"}, TrainLimit: 2, OperatingRounds: 2, ClosePrivates: true},
	})
	if err != nil {
		t.Fatalf("phases: %v", err)
	}
	trains, err := train.NewManager([]train.Type{
		{Name: "2", Cost: 80, Quantity: 4, RustedBy: "4"},
		{Name: "3", Cost: 180, Quantity: 3},
		{Name: "4", Cost: 300, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("trains: %v", err)
	}
	players := []entity.Player{{ID: "alice"}, {ID: "bob"}, {ID: "carol"}}
	rules := Rules{ShareUnit: 10, CertLimit: 12, MaxPercent: 60, PoolLimit: 50}
	s, err := NewState(players, rules, mkt, phases, trains)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := s.AddPublic(entity.PublicCompany{ID: "PRR", FloatPercent: 60, TokensTotal: 3}, shareCerts("PRR")); err != nil {
		t.Fatalf("AddPublic: %v", err)
	}
	if err := s.AddPrivate(entity.PrivateCompany{
		ID: "SV", FacePrice: 20, Revenue: 5, BlockedHexes: []string{"G15"},
		Specials: []entity.SpecialProperty{
			{ID: "SV-tile", Kind: entity.SpecialFreeTileLay, Hex: "G15"},
			{ID: "SV-token", Kind: entity.SpecialFreeToken, Hex: "G15"},
		},
		Closing: entity.Closing{IfAllExercised: true},
	}); err != nil {
		t.Fatalf("AddPrivate: %v", err)
	}
	if err := s.AddTrains(); err != nil {
		t.Fatalf("AddTrains: %v", err)
	}
	if err := s.Fund(12000, 600); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	return s
}

// give moves certificates of company from the IPO to a player without payment.
func give(t *testing.T, s *State, player entity.PlayerID, company entity.CompanyID, president bool, ordinary int) {
	t.Helper()
	to := portfolio.PlayerHolder(player)
	if president {
		cert, _ := s.PresidentCertificate(company)
		if err := s.TransferShare(cert.ID, portfolio.IPO, to, 0); err != nil {
			t.Fatalf("give president: %v", err)
		}
	}
	for i := 0; i < ordinary; i++ {
		cert, ok := s.NextCertificate(portfolio.IPO, company)
		if !ok {
			t.Fatalf("no certificate of %s left in IPO", company)
		}
		if err := s.TransferShare(cert.ID, portfolio.IPO, to, 0); err != nil {
			t.Fatalf("give: %v", err)
		}
	}
	if err := s.CheckPresidency(company); err != nil {
		t.Fatalf("CheckPresidency: %v", err)
	}
}

func startPRR(t *testing.T, s *State, president entity.PlayerID) {
	t.Helper()
	if err := s.StartCompany("PRR", 100); err != nil {
		t.Fatalf("StartCompany: %v", err)
	}
	give(t, s, president, "PRR", true, 0)
}

func TestAddPublicValidatesCertificates(t *testing.T) {
	s := newTestState(t)
	certs := shareCerts("NYC")[:8]
	err := s.AddPublic(entity.PublicCompany{ID: "NYC"}, certs)
	if !apperrors.HasCode(err, apperrors.CodeConfiguration) {
		t.Fatalf("error = %v, want configuration", err)
	}
	if err := s.AddPublic(entity.PublicCompany{ID: "PRR"}, shareCerts("PRR")); err == nil {
		t.Fatal("expected duplicate company error")
	}
}

func TestAddPrivateValidatesExchangeTarget(t *testing.T) {
	s := newTestState(t)
	err := s.AddPrivate(entity.PrivateCompany{
		ID:       "MH",
		Specials: []entity.SpecialProperty{{ID: "x", Kind: entity.SpecialExchange, Company: "NYC"}},
	})
	if !apperrors.HasCode(err, apperrors.CodeConfiguration) {
		t.Fatalf("error = %v, want configuration", err)
	}
}

func TestNewStateFundsPlayers(t *testing.T) {
	s := newTestState(t)
	if got := s.Cash("bob"); got != 600 {
		t.Fatalf("bob cash = %d, want 600", got)
	}
	if got := s.Ledger.Cash(portfolio.Bank); got != 12000-1800 {
		t.Fatalf("bank cash = %d, want %d", got, 12000-1800)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestCheckPresidencySwapsOnStrictlyLargerHolding(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	give(t, s, "alice", "PRR", false, 1)
	give(t, s, "bob", "PRR", false, 4)
	if got := s.Publics["PRR"].President; got != "bob" {
		t.Fatalf("president = %s, want bob", got)
	}
	presCert, _ := s.PresidentCertificate("PRR")
	if h, _ := s.Ledger.HolderOf(presCert.ID); h != portfolio.PlayerHolder("bob") {
		t.Fatalf("president certificate holder = %s, want bob", h)
	}
	if got := s.Ledger.ShareCount(portfolio.PlayerHolder("alice"), "PRR"); got != 30 {
		t.Fatalf("alice share = %d, want 30", got)
	}
	if got := s.Ledger.ShareCount(portfolio.PlayerHolder("bob"), "PRR"); got != 40 {
		t.Fatalf("bob share = %d, want 40", got)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestCheckPresidencyTieKeepsIncumbent(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	give(t, s, "alice", "PRR", false, 1)
	give(t, s, "bob", "PRR", false, 3)
	if got := s.Publics["PRR"].President; got != "alice" {
		t.Fatalf("president = %s, want alice", got)
	}
}

func TestCheckPresidencyChallengerTieUsesSeatOrder(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "bob")
	give(t, s, "alice", "PRR", false, 3)
	give(t, s, "carol", "PRR", false, 3)
	// alice took over from bob first; now check seat order from a fresh tie.
	if got := s.Publics["PRR"].President; got != "alice" {
		t.Fatalf("president = %s, want alice", got)
	}

	s = newTestState(t)
	startPRR(t, s, "alice")
	for _, p := range []entity.PlayerID{"carol", "bob"} {
		to := portfolio.PlayerHolder(p)
		for i := 0; i < 3; i++ {
			cert, _ := s.NextCertificate(portfolio.IPO, "PRR")
			if err := s.TransferShare(cert.ID, portfolio.IPO, to, 0); err != nil {
				t.Fatalf("TransferShare: %v", err)
			}
		}
	}
	if err := s.CheckPresidency("PRR"); err != nil {
		t.Fatalf("CheckPresidency: %v", err)
	}
	if got := s.Publics["PRR"].President; got != "bob" {
		t.Fatalf("president = %s, want bob (first after alice)", got)
	}
}

func TestSellSharesPresidentCannotDump(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	give(t, s, "bob", "PRR", false, 1)
	s.Publics["PRR"].Operated = true
	_, err := s.SellShares("alice", "PRR", 1)
	if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
		t.Fatalf("error = %v, want illegal action", err)
	}
	if got := s.SellableCounts("alice", "PRR"); len(got) != 0 {
		t.Fatalf("sellable = %v, want none", got)
	}
}

func TestSellSharesPassesPresidency(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	give(t, s, "bob", "PRR", false, 2)
	if got, want := s.SellableCounts("alice", "PRR"), []int{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("sellable = %v, want %v", got, want)
	}
	move, err := s.SellShares("alice", "PRR", 2)
	if err != nil {
		t.Fatalf("SellShares: %v", err)
	}
	if got := s.Publics["PRR"].President; got != "bob" {
		t.Fatalf("president = %s, want bob", got)
	}
	if got := s.Ledger.ShareCount(portfolio.Pool, "PRR"); got != 20 {
		t.Fatalf("pool = %d, want 20", got)
	}
	if got := s.Cash("alice"); got != 800 {
		t.Fatalf("alice cash = %d, want 800", got)
	}
	if move.To.Row != 0 {
		t.Fatalf("move = %+v, want two rows down clamped at row 0", move)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestSellSharesNotHeld(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	before := s.Market.Price("PRR")
	_, err := s.SellShares("bob", "PRR", 1)
	if !apperrors.HasCode(err, apperrors.CodeNotHeld) {
		t.Fatalf("error = %v, want not held", err)
	}
	if got := s.Market.Price("PRR"); got != before {
		t.Fatalf("price = %d, want %d", got, before)
	}
}

func TestSellableCountsRespectsPoolLimit(t *testing.T) {
	s := newTestState(t)
	s.Rules.PoolLimit = 20
	startPRR(t, s, "alice")
	give(t, s, "bob", "PRR", false, 4)
	if got, want := s.SellableCounts("bob", "PRR"), []int{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("sellable = %v, want %v", got, want)
	}
}

func TestPickCertificatesNeedsExactSum(t *testing.T) {
	certs := []certificate.Certificate{
		certificate.NewShare("X-1", "X", 20, false),
		certificate.NewShare("X-2", "X", 15, false),
		certificate.NewShare("X-3", "X", 15, false),
	}
	tests := []struct {
		pct  int
		want []certificate.ID
	}{
		{pct: 20, want: []certificate.ID{"X-1"}},
		{pct: 30, want: []certificate.ID{"X-2", "X-3"}},
		{pct: 35, want: []certificate.ID{"X-1", "X-2"}},
		{pct: 10},
		{pct: 60},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.pct), func(t *testing.T) {
			picked, ok := pickCertificates(certs, tt.pct)
			if ok != (tt.want != nil) {
				t.Fatalf("pickCertificates(%d) ok = %v, want %v", tt.pct, ok, tt.want != nil)
			}
			var ids []certificate.ID
			for _, cert := range picked {
				ids = append(ids, cert.ID)
			}
			if !slices.Equal(ids, tt.want) {
				t.Fatalf("pickCertificates(%d) = %v, want %v", tt.pct, ids, tt.want)
			}
		})
	}
}

func TestCheckFloatFullCapitalisation(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	give(t, s, "alice", "PRR", false, 3)
	if err := s.CheckFloat("PRR"); err != nil {
		t.Fatalf("CheckFloat: %v", err)
	}
	if s.Publics["PRR"].Floated {
		t.Fatal("floated at 50%")
	}
	give(t, s, "bob", "PRR", false, 1)
	if err := s.CheckFloat("PRR"); err != nil {
		t.Fatalf("CheckFloat: %v", err)
	}
	if !s.Publics["PRR"].Floated {
		t.Fatal("expected float at 60%")
	}
	if got := s.Ledger.Cash(portfolio.CompanyHolder("PRR")); got != 1000 {
		t.Fatalf("treasury = %d, want 1000", got)
	}
}

func TestTransferShareIncrementalPaysCompany(t *testing.T) {
	s := newTestState(t)
	s.Publics["PRR"].Capitalisation = entity.CapitalisationIncremental
	startPRR(t, s, "alice")
	cert, _ := s.NextCertificate(portfolio.IPO, "PRR")
	if err := s.TransferShare(cert.ID, portfolio.IPO, portfolio.PlayerHolder("bob"), 100); err != nil {
		t.Fatalf("TransferShare: %v", err)
	}
	if got := s.Ledger.Cash(portfolio.CompanyHolder("PRR")); got != 100 {
		t.Fatalf("treasury = %d, want 100", got)
	}
	err := s.TransferShare("PRR-2", portfolio.IPO, portfolio.PlayerHolder("bob"), 10000)
	if !apperrors.HasCode(err, apperrors.CodeInsufficientFunds) {
		t.Fatalf("error = %v, want insufficient funds", err)
	}
}

func TestCheckClosingIfExercised(t *testing.T) {
	s := newTestState(t)
	if err := s.Ledger.MoveCertificate("SV", portfolio.Bank, portfolio.PlayerHolder("alice")); err != nil {
		t.Fatalf("MoveCertificate: %v", err)
	}
	sv := s.Privates["SV"]
	sv.Specials[0].Exercised = true
	closed, err := s.CheckClosingIfExercised("SV", false)
	if err != nil || closed {
		t.Fatalf("first check = %v %v, want open", closed, err)
	}
	if _, held := s.PrivateHolder("SV"); !held {
		t.Fatal("expected certificate still held")
	}
	sv.Specials[1].Exercised = true
	closed, err = s.CheckClosingIfExercised("SV", false)
	if err != nil || !closed {
		t.Fatalf("second check = %v %v, want closed", closed, err)
	}
	if _, held := s.PrivateHolder("SV"); held {
		t.Fatal("expected certificate discarded")
	}
	alice, _ := s.Ledger.Portfolio(portfolio.PlayerHolder("alice"))
	if len(alice.Certificates) != 0 {
		t.Fatalf("alice certificates = %v", alice.Certificates)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestPayPrivateRevenuesSkipsBank(t *testing.T) {
	s := newTestState(t)
	if err := s.PayPrivateRevenues(); err != nil {
		t.Fatalf("PayPrivateRevenues: %v", err)
	}
	if len(s.Log) != 0 {
		t.Fatalf("bank-held private paid revenue: %v", s.Log)
	}
	_ = s.Ledger.MoveCertificate("SV", portfolio.Bank, portfolio.PlayerHolder("carol"))
	if err := s.PayPrivateRevenues(); err != nil {
		t.Fatalf("PayPrivateRevenues: %v", err)
	}
	if got := s.Cash("carol"); got != 605 {
		t.Fatalf("carol cash = %d, want 605", got)
	}
}

func TestBlockingPrivate(t *testing.T) {
	s := newTestState(t)
	if got := s.BlockingPrivate("G15", "PRR"); got != "SV" {
		t.Fatalf("blocking = %q, want SV", got)
	}
	_ = s.Ledger.MoveCertificate("SV", portfolio.Bank, portfolio.CompanyHolder("PRR"))
	if got := s.BlockingPrivate("G15", "PRR"); got != "" {
		t.Fatalf("owner blocked by its own private: %q", got)
	}
}

func TestBuyTrainTriggersPhaseRustAndLimits(t *testing.T) {
	s := newTestState(t)
	company := portfolio.CompanyHolder("PRR")
	_ = s.Ledger.TransferCash(portfolio.Bank, company, 2000)
	s.CashTotal = s.Ledger.TotalCash()
	for i := 0; i < 4; i++ {
		tr, typ, _ := s.NextIPOTrain()
		if err := s.BuyTrain("PRR", tr.ID, portfolio.IPO, typ.Cost); err != nil {
			t.Fatalf("BuyTrain 2: %v", err)
		}
	}
	tr, typ, _ := s.NextIPOTrain()
	if typ.Name != "3" {
		t.Fatalf("next type = %s, want 3", typ.Name)
	}
	if err := s.BuyTrain("PRR", tr.ID, portfolio.IPO, typ.Cost); err != nil {
		t.Fatalf("BuyTrain 3: %v", err)
	}
	if s.Phases.Current != "3" {
		t.Fatalf("phase = %s, want 3", s.Phases.Current)
	}
	if got := len(s.Ledger.TrainsOf(company)); got != 2 {
		t.Fatalf("company trains = %d, want limit 2", got)
	}
	if got := len(s.Ledger.TrainsOf(portfolio.Pool)); got != 3 {
		t.Fatalf("pool trains = %d, want 3", got)
	}
	_ = s.Ledger.MoveCertificate("SV", portfolio.Bank, portfolio.PlayerHolder("alice"))
	tr, typ, _ = s.NextIPOTrain()
	for typ.Name != "4" {
		if err := s.BuyTrain("PRR", tr.ID, portfolio.IPO, typ.Cost); err != nil {
			t.Fatalf("BuyTrain: %v", err)
		}
		tr, typ, _ = s.NextIPOTrain()
	}
	if err := s.BuyTrain("PRR", tr.ID, portfolio.IPO, typ.Cost); err != nil {
		t.Fatalf("BuyTrain 4: %v", err)
	}
	if !s.Trains.IsRusted("2") {
		t.Fatal("expected 2-trains rusted")
	}
	for _, held := range s.Ledger.TrainsOf(portfolio.Pool) {
		if held.Type == "2" {
			t.Fatalf("rusted train %s still in pool", held.ID)
		}
	}
	if !s.Privates["SV"].Closed {
		t.Fatal("expected privates closed in phase 4")
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestCheckInvariantsDetectsLostShare(t *testing.T) {
	s := newTestState(t)
	if err := s.Ledger.Discard("PRR-3"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := s.CheckInvariants(); !apperrors.HasCode(err, apperrors.CodeIllegalState) {
		t.Fatalf("error = %v, want illegal state", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	before, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	clone := s.Clone()
	give(t, clone, "bob", "PRR", false, 2)
	clone.Publics["PRR"].Floated = true
	clone.Privates["SV"].Specials[0].Exercised = true
	clone.Market.PayOut("PRR")
	clone.Board.PlaceToken("H12", "PRR")
	clone.Emit(eventForTest())
	after, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("mutating the clone changed the original state")
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	s := newTestState(t)
	startPRR(t, s, "alice")
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored State
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := restored.CheckInvariants(); err != nil {
		t.Fatalf("restored invariants: %v", err)
	}
	if got := restored.Market.Price("PRR"); got != 100 {
		t.Fatalf("restored price = %d, want 100", got)
	}
}

func eventForTest() event.Event {
	return event.New(event.TypePlayerPassed, "test")
}
