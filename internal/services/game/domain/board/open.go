package board

import (
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

// Hex is a map location known to the Open map.
type Hex struct {
	ID    string           `json:"id" yaml:"id"`
	Cost  int              `json:"cost,omitempty" yaml:"cost"`
	Slots int              `json:"slots,omitempty" yaml:"slots"`
	Home  entity.CompanyID `json:"home,omitempty" yaml:"home"`
}

// Open is a map without track geometry. Any known hex accepts tiles in color
// order and tokens up to its slot count.
type Open struct {
	hexes  map[string]Hex
	colors []string
}

// NewOpen returns an Open map over hexes. colors lists tile colors in upgrade order.
func NewOpen(hexes []Hex, colors []string) *Open {
	m := &Open{hexes: make(map[string]Hex, len(hexes)), colors: slices.Clone(colors)}
	for _, h := range hexes {
		m.hexes[h.ID] = h
	}
	return m
}

// CheckTileLay validates a tile lay and returns its terrain cost.
func (m *Open) CheckTileLay(lay TileLay) (int, error) {
	hex, ok := m.hexes[lay.Hex]
	if !ok {
		return 0, apperrors.IllegalAction("unknown hex %s", lay.Hex)
	}
	if lay.BlockedBy != "" && !lay.Free {
		return 0, apperrors.IllegalAction("hex %s is reserved by %s", lay.Hex, lay.BlockedBy)
	}
	if lay.Tile == "" {
		return 0, apperrors.IllegalAction("tile is required")
	}
	if lay.Orientation < 0 || lay.Orientation > 5 {
		return 0, apperrors.IllegalAction("orientation %d out of range", lay.Orientation)
	}
	if len(m.colors) > 0 {
		want := 0
		if lay.Existing != nil {
			want = slices.Index(m.colors, lay.Existing.Color) + 1
		}
		if want >= len(m.colors) || m.colors[want] != lay.Color {
			return 0, apperrors.IllegalAction("tile color %s cannot be laid on hex %s", lay.Color, lay.Hex)
		}
	}
	if lay.Free || lay.Existing != nil {
		return 0, nil
	}
	return hex.Cost, nil
}

// CheckTokenLay validates a token placement.
func (m *Open) CheckTokenLay(lay TokenLay) (int, error) {
	hex, ok := m.hexes[lay.Hex]
	if !ok {
		return 0, apperrors.IllegalAction("unknown hex %s", lay.Hex)
	}
	if hex.Slots == 0 {
		return 0, apperrors.IllegalAction("hex %s has no station", lay.Hex)
	}
	if slices.Contains(lay.Tokens, lay.Company) {
		return 0, apperrors.IllegalAction("%s already has a token on %s", lay.Company, lay.Hex)
	}
	free := hex.Slots - len(lay.Tokens)
	// The last slot of a home hex stays reserved until its owner arrives.
	if hex.Home != "" && hex.Home != lay.Company && !slices.Contains(lay.Tokens, hex.Home) {
		free--
	}
	if free <= 0 {
		return 0, apperrors.IllegalAction("hex %s has no free station slot", lay.Hex)
	}
	return 0, nil
}

// Hexes returns the known hex ids in order.
func (m *Open) Hexes() []string {
	out := make([]string, 0, len(m.hexes))
	for id := range m.hexes {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
