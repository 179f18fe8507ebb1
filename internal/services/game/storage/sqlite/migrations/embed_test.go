package migrations

import (
	"io/fs"
	"sort"
	"testing"
)

func TestGamesMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(GamesFS, "games")
	if err != nil {
		t.Fatalf("read games migrations: %v", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	want := []string{"001_games.sql", "002_snapshots.sql"}
	if len(files) != len(want) {
		t.Fatalf("migrations = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("migration %d = %s, want %s", i, files[i], want[i])
		}
	}
}
