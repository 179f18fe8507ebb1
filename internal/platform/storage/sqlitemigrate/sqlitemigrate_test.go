package sqlitemigrate

import (
	"context"
	"database/sql"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyRecordsEachMigrationOnce(t *testing.T) {
	db := openInMemoryDB(t)
	ctx := context.Background()
	migrations := fstest.MapFS{
		"002_more.sql":   &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE more(id TEXT PRIMARY KEY);")},
		"001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
		"README.md":      &fstest.MapFile{Data: []byte("not a migration")},
	}

	applied, err := Apply(ctx, db, migrations, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := []string{"001_create.sql", "002_more.sql"}; !slices.Equal(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	if !tableExists(t, db, "items") || !tableExists(t, db, "more") {
		t.Fatal("expected migrated tables to exist")
	}

	again, err := Apply(ctx, db, migrations, "")
	if err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("re-applied = %v, want none", again)
	}
	recorded, err := Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if len(recorded) != 2 {
		t.Fatalf("recorded = %v, want 2 migrations", recorded)
	}
}

func TestApplyDoesNotRecordFailedMigration(t *testing.T) {
	db := openInMemoryDB(t)
	ctx := context.Background()

	bad := fstest.MapFS{"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREAT table things(id INT);")}}
	if _, err := Apply(ctx, db, bad, ""); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if recorded, _ := Applied(ctx, db); len(recorded) != 0 {
		t.Fatalf("recorded = %v, want none after failure", recorded)
	}

	good := fstest.MapFS{"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);")}}
	if _, err := Apply(ctx, db, good, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if recorded, _ := Applied(ctx, db); len(recorded) != 1 {
		t.Fatalf("recorded = %v, want the fixed migration", recorded)
	}
}

func TestApplyUsesRootInKeys(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"games/001_games.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE game_rows(id TEXT PRIMARY KEY);")},
	}
	applied, err := Apply(context.Background(), db, migrations, "games")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(applied) != 1 || applied[0] != "games/001_games.sql" {
		t.Fatalf("applied = %v, want root-relative key", applied)
	}
	if !tableExists(t, db, "game_rows") {
		t.Fatal("expected migrated table")
	}
}

func TestApplyRequiresDB(t *testing.T) {
	if _, err := Apply(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestExtractUpMigrationStopsAtDown(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a(id INT);\n-- +migrate Down\nDROP TABLE a;"
	if got := ExtractUpMigration(content); got != "\nCREATE TABLE a(id INT);\n" {
		t.Fatalf("up = %q", got)
	}
	if plain := ExtractUpMigration("SELECT 1;"); plain != "SELECT 1;" {
		t.Fatalf("plain = %q", plain)
	}
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// Every pooled connection would otherwise see its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("check table exists: %v", err)
	}
	return found == name
}
