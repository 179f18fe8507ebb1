package definition

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
)

func TestDefaultBuildsPlayableState(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	s, err := d.Build(Players(4))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Rules.CertLimit != 16 {
		t.Fatalf("cert limit = %d, want 16", s.Rules.CertLimit)
	}
	if got := s.Cash("player1"); got != 600 {
		t.Fatalf("player cash = %d, want 600", got)
	}
	if got := s.Ledger.Cash(portfolio.Bank); got != 12000-4*600 {
		t.Fatalf("bank cash = %d, want %d", got, 12000-4*600)
	}
	if s.CashTotal != 12000 {
		t.Fatalf("cash total = %d, want 12000", s.CashTotal)
	}
	if len(s.StartPacket) != 6 {
		t.Fatalf("start packet = %d items, want 6", len(s.StartPacket))
	}
	if got := len(s.Ledger.CertificatesOf(portfolio.IPO, "PRR")); got != 9 {
		t.Fatalf("PRR IPO certificates = %d, want 9", got)
	}
	if want := []int{67, 71, 76, 82, 90, 100}; !slices.Equal(s.Market.ParPrices(), want) {
		t.Fatalf("par prices = %v, want %v", s.Market.ParPrices(), want)
	}
	if s.Round.Kind != "" {
		t.Fatalf("round = %s, want no cursor before the engine starts", s.Round.Kind)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
}

func TestBuildRejectsPlayerCount(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, n := range []int{1, 7} {
		if _, err := d.Build(Players(n)); !apperrors.HasCode(err, apperrors.CodeConfiguration) {
			t.Fatalf("Build(%d players) error = %v, want CONFIGURATION", n, err)
		}
	}
}

func TestValidateRejectsInconsistentDefinitions(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Definition)
	}{
		{name: "missing name", edit: func(d *Definition) { d.Name = "" }},
		{name: "missing starting cash", edit: func(d *Definition) { delete(d.Cash, 3) }},
		{name: "shares not summing to 100", edit: func(d *Definition) { d.Companies[0].Shares = d.Companies[0].Shares[1:] }},
		{name: "unknown home hex", edit: func(d *Definition) { d.Companies[0].HomeHex = "Z99" }},
		{name: "duplicate company", edit: func(d *Definition) { d.Companies[1].ID = d.Companies[0].ID }},
		{name: "phase triggered by unknown train", edit: func(d *Definition) { d.Phases[1].Trigger.TrainType = "9" }},
		{name: "rusted by unknown train", edit: func(d *Definition) { d.Trains[0].RustedBy = "9" }},
		{name: "phase tile color unknown", edit: func(d *Definition) { d.Phases[0].TileColors = []string{"gray"} }},
		{name: "exchange for unknown company", edit: func(d *Definition) { d.Privates[3].Special[0].Company = "XXX" }},
		{name: "start item unknown certificate", edit: func(d *Definition) { d.Packet[4].Certificates = []string{"PRR-12"} }},
		{name: "start item unknown private", edit: func(d *Definition) { d.Packet[0].Private = "ZZ" }},
		{name: "market without par", edit: func(d *Definition) { d.Market.Rows = []string{"50 60 70"} }},
		{name: "market unknown flag", edit: func(d *Definition) { d.Market.Rows[0] = "60x 67" }},
		{name: "unknown end condition", edit: func(d *Definition) {
			d.Rules.EndConditions = append(d.Rules.EndConditions, aggregate.EndCondition{Kind: "meteor", Timing: aggregate.EndImmediate})
		}},
		{name: "unknown sell buy scope", edit: func(d *Definition) { d.Rules.SellBuyRestriction = "forever" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Default()
			if err != nil {
				t.Fatalf("Default: %v", err)
			}
			tt.edit(&d)
			if err := d.Validate(); !apperrors.HasCode(err, apperrors.CodeConfiguration) {
				t.Fatalf("Validate error = %v, want CONFIGURATION", err)
			}
		})
	}
}

func TestMarketCells(t *testing.T) {
	m := Market{Rows: []string{"100p 110", "- 50e"}}
	cells, err := m.Cells()
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	want := []market.Cell{
		{Position: market.Position{Row: 1, Col: 0}, Price: 100, Flags: []market.Flag{market.FlagPar}},
		{Position: market.Position{Row: 1, Col: 1}, Price: 110},
		{Position: market.Position{Row: 0, Col: 1}, Price: 50, Flags: []market.Flag{market.FlagGameOver}},
	}
	if len(cells) != len(want) {
		t.Fatalf("cells = %v, want %v", cells, want)
	}
	for i := range want {
		if cells[i].Position != want[i].Position || cells[i].Price != want[i].Price || !slices.Equal(cells[i].Flags, want[i].Flags) {
			t.Fatalf("cell %d = %+v, want %+v", i, cells[i], want[i])
		}
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("name: [unterminated"))
	if !apperrors.HasCode(err, apperrors.CodeConfiguration) {
		t.Fatalf("Parse error = %v, want CONFIGURATION", err)
	}
}

const tinyGame = `
name: tiny
min_players: 2
max_players: 2
bank: 1000
starting_cash: {2: 300}
rules: {cert_limit: 6}
market:
  rows: ["60 70p 80", "50 60p 70"]
phases:
  - {name: "2", train_limit: 2, operating_rounds: 1}
trains:
  - {name: "2", cost: 80, quantity: 2}
companies:
  - {id: AA, shares: [40, 20, 20, 20]}
`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(tinyGame), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := games.ReadFile("games/1830.yaml")
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "a.yml"), data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	defs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
	}
	if want := []string{"tiny", "1830"}; !slices.Equal(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}

	s, err := defs[0].Build([]entity.Player{{ID: "ann"}, {ID: "ben"}})
	if err != nil {
		t.Fatalf("Build tiny: %v", err)
	}
	if len(s.StartPacket) != 0 || s.Rules.CertLimit != 6 {
		t.Fatalf("tiny state packet=%d cert limit=%d, want 0 and 6", len(s.StartPacket), s.Rules.CertLimit)
	}
}

func TestLookup(t *testing.T) {
	if !slices.Contains(Names(), DefaultName) {
		t.Fatalf("names = %v, want %s", Names(), DefaultName)
	}
	if _, err := Lookup("9999"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("Lookup error = %v, want NOT_FOUND", err)
	}
}
