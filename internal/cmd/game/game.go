// Package game parses game server flags and starts the table server.
package game

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/stockrail/internal/platform/cmd"
	"github.com/louisbranch/stockrail/internal/platform/discovery"
	server "github.com/louisbranch/stockrail/internal/services/game/app"
	"github.com/louisbranch/stockrail/internal/services/game/storage/integrity"
)

// Config holds game command configuration.
type Config struct {
	Port          int    `env:"STOCKRAIL_GAME_PORT" envDefault:"8082"`
	Addr          string `env:"STOCKRAIL_GAME_ADDR"`
	DBPath        string `env:"STOCKRAIL_GAME_DB_PATH" envDefault:"data/game.db"`
	SnapshotEvery int    `env:"STOCKRAIL_GAME_SNAPSHOT_EVERY" envDefault:"25"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The game server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The game server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database path")
	fs.IntVar(&cfg.SnapshotEvery, "snapshot-every", cfg.SnapshotEvery, "Actions between state snapshots (0 snapshots only at game over)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 {
		cfg.Port = discovery.GRPCPort(discovery.ServiceGame)
	}
	if cfg.SnapshotEvery < 0 {
		return Config{}, fmt.Errorf("snapshot-every cannot be negative")
	}
	return cfg, nil
}

// ListenAddr returns the address the server listens on.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the table server.
func Run(ctx context.Context, cfg Config) error {
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			Addr:          cfg.ListenAddr(),
			DBPath:        cfg.DBPath,
			SnapshotEvery: cfg.SnapshotEvery,
			Keyring:       keyring,
		})
	})
}
