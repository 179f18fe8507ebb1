package board

import (
	"testing"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

func testMap() *Open {
	return NewOpen([]Hex{
		{ID: "D14", Cost: 80},
		{ID: "H12", Slots: 1, Home: "PRR"},
		{ID: "E5", Slots: 2},
	}, []string{"yellow", "green", "brown"})
}

func TestCheckTileLay(t *testing.T) {
	m := testMap()
	tests := []struct {
		name     string
		lay      TileLay
		wantCost int
		wantErr  bool
	}{
		{name: "first tile pays terrain", lay: TileLay{Hex: "D14", Tile: "57", Color: "yellow"}, wantCost: 80},
		{name: "free lay", lay: TileLay{Hex: "D14", Tile: "57", Color: "yellow", Free: true}},
		{name: "upgrade", lay: TileLay{Hex: "D14", Tile: "15", Color: "green", Existing: &Placement{Tile: "57", Color: "yellow"}}},
		{name: "skip color", lay: TileLay{Hex: "D14", Tile: "63", Color: "brown"}, wantErr: true},
		{name: "unknown hex", lay: TileLay{Hex: "Z0", Tile: "57", Color: "yellow"}, wantErr: true},
		{name: "blocked", lay: TileLay{Hex: "D14", Tile: "57", Color: "yellow", BlockedBy: "DH"}, wantErr: true},
		{name: "bad orientation", lay: TileLay{Hex: "D14", Tile: "57", Color: "yellow", Orientation: 6}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := m.CheckTileLay(tt.lay)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeIllegalAction) {
					t.Fatalf("error = %v, want illegal action", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckTileLay: %v", err)
			}
			if cost != tt.wantCost {
				t.Fatalf("cost = %d, want %d", cost, tt.wantCost)
			}
		})
	}
}

func TestCheckTokenLayReservesHome(t *testing.T) {
	m := testMap()
	if _, err := m.CheckTokenLay(TokenLay{Company: "NYC", Hex: "H12"}); err == nil {
		t.Fatal("expected home slot to be reserved")
	}
	if _, err := m.CheckTokenLay(TokenLay{Company: "PRR", Hex: "H12"}); err != nil {
		t.Fatalf("home token: %v", err)
	}
	if _, err := m.CheckTokenLay(TokenLay{Company: "NYC", Hex: "E5", Tokens: []entity.CompanyID{"NYC"}}); err == nil {
		t.Fatal("expected duplicate token to fail")
	}
	if _, err := m.CheckTokenLay(TokenLay{Company: "B&O", Hex: "E5", Tokens: []entity.CompanyID{"NYC", "PRR"}}); err == nil {
		t.Fatal("expected full city to fail")
	}
}

func TestRecordClone(t *testing.T) {
	r := NewRecord()
	r.LayTile("D14", Placement{Tile: "57", Color: "yellow"})
	r.PlaceToken("E5", "NYC")
	clone := r.Clone()
	clone.PlaceToken("E5", "PRR")
	clone.RemoveTokens("NYC")
	if got := r.TokensAt("E5"); len(got) != 1 || got[0] != "NYC" {
		t.Fatalf("original tokens = %v", got)
	}
	if !clone.HasToken("E5", "PRR") || clone.HasToken("E5", "NYC") {
		t.Fatalf("clone tokens = %v", clone.TokensAt("E5"))
	}
	if p, ok := clone.TileAt("D14"); !ok || p.Tile != "57" {
		t.Fatalf("clone tile = %v %v", p, ok)
	}
}
