package migrations

import "embed"

// GamesFS holds the games, actions and snapshots schema.
//
//go:embed games/*.sql
var GamesFS embed.FS
