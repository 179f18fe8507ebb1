package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/board"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/market"
	"github.com/louisbranch/stockrail/internal/services/game/domain/phase"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// Definition is one game title.
type Definition struct {
	Name       string          `yaml:"name"`
	Title      string          `yaml:"title"`
	MinPlayers int             `yaml:"min_players"`
	MaxPlayers int             `yaml:"max_players"`
	Bank       int             `yaml:"bank"`
	Cash       map[int]int     `yaml:"starting_cash"`
	CertLimits map[int]int     `yaml:"cert_limits"`
	Rules      aggregate.Rules `yaml:"rules"`
	Market     Market          `yaml:"market"`
	Phases     []phase.Phase   `yaml:"phases"`
	Trains     []train.Type    `yaml:"trains"`
	Companies  []Company       `yaml:"companies"`
	Privates   []Private       `yaml:"privates"`
	Packet     []StartItem     `yaml:"start_packet"`
	Hexes      []board.Hex     `yaml:"hexes"`
	TileColors []string        `yaml:"tile_colors"`
}

// Market is the stock chart. Rows are listed top row first; each row is a
// space separated list of cells such as "100p". A "-" leaves a gap.
type Market struct {
	Rules market.Rules `yaml:",inline"`
	Rows  []string     `yaml:"rows"`
}

// Company is a public company with its share split. The first share is the
// president's certificate.
type Company struct {
	ID             entity.CompanyID      `yaml:"id"`
	Name           string                `yaml:"name"`
	FloatPercent   int                   `yaml:"float_percent"`
	Capitalisation entity.Capitalisation `yaml:"capitalisation"`
	HomeHex        string                `yaml:"home"`
	Tokens         int                   `yaml:"tokens"`
	TokenCosts     []int                 `yaml:"token_costs"`
	Shares         []int                 `yaml:"shares"`
}

// Private is a private company.
type Private struct {
	ID      entity.CompanyID `yaml:"id"`
	Name    string           `yaml:"name"`
	Face    int              `yaml:"face"`
	Revenue int              `yaml:"revenue"`
	Blocks  []string         `yaml:"blocks"`
	Special []Special        `yaml:"specials"`
	Closing Closing          `yaml:"closing"`
}

// Special is a special property of a private.
type Special struct {
	ID      string             `yaml:"id"`
	Kind    entity.SpecialKind `yaml:"kind"`
	Hex     string             `yaml:"hex"`
	Company entity.CompanyID   `yaml:"company"`
}

// Closing mirrors entity.Closing.
type Closing struct {
	IfAllExercised bool   `yaml:"if_all_exercised"`
	IfAnyExercised bool   `yaml:"if_any_exercised"`
	AtEndOfORTurn  bool   `yaml:"at_end_of_or_turn"`
	AtPhase        string `yaml:"at_phase"`
}

// StartItem is a start packet lot. Certificates are named "<company>-<n>",
// n being the index in the company's share list.
type StartItem struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Price        int              `yaml:"price"`
	Private      entity.CompanyID `yaml:"private"`
	Certificates []string         `yaml:"certificates"`
}

// Parse decodes and validates a definition.
func Parse(data []byte) (Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Definition{}, apperrors.Wrap(apperrors.CodeConfiguration, "decode definition", err)
	}
	if err := d.Validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// Load reads a definition from a YAML file.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read definition: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadDir reads every YAML definition under dir, sorted by path.
func LoadDir(dir string) ([]Definition, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk definitions: %w", err)
	}
	sort.Strings(files)

	defs := make([]Definition, 0, len(files))
	for _, f := range files {
		d, err := Load(f)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}
