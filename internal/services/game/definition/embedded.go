package definition

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
)

//go:embed games/*.yaml
var games embed.FS

// DefaultName is the title returned by Default.
const DefaultName = "1830"

// Default returns the embedded default title.
func Default() (Definition, error) {
	return Lookup(DefaultName)
}

// Lookup returns an embedded title by name.
func Lookup(name string) (Definition, error) {
	data, err := games.ReadFile(path.Join("games", name+".yaml"))
	if err != nil {
		return Definition{}, apperrors.Newf(apperrors.CodeNotFound, "unknown game %q", name)
	}
	d, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("embedded game %s: %w", name, err)
	}
	return d, nil
}

// Names lists the embedded titles.
func Names() []string {
	entries, err := fs.ReadDir(games, "games")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
