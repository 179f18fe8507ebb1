// Package play builds the hot-seat command line client.
package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/louisbranch/stockrail/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/stockrail/internal/platform/grpc"
	"github.com/louisbranch/stockrail/internal/platform/timeouts"
	tablegrpc "github.com/louisbranch/stockrail/internal/services/game/api/grpc/table"
	"github.com/louisbranch/stockrail/internal/services/game/definition"
	"github.com/louisbranch/stockrail/internal/services/game/render"
	"github.com/louisbranch/stockrail/internal/services/game/storage/integrity"
	storagesqlite "github.com/louisbranch/stockrail/internal/services/game/storage/sqlite"
	gametable "github.com/louisbranch/stockrail/internal/services/game/table"
)

const envPrefix = "STOCKRAIL"

// NewRootCommand returns the play command tree reading moves from in.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("server", discovery.LocalGRPCAddr(discovery.ServiceGame))
	v.SetDefault("locale", "en")
	v.SetDefault("color", false)
	v.SetDefault("db", filepath.Join("data", "play.db"))

	root := &cobra.Command{
		Use:           "play",
		Short:         "Play an 18xx game at the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().String("locale", v.GetString("locale"), "Output locale (en, pt-BR)")
	root.PersistentFlags().Bool("color", v.GetBool("color"), "Colored tables")
	_ = v.BindPFlag("locale", root.PersistentFlags().Lookup("locale"))
	_ = v.BindPFlag("color", root.PersistentFlags().Lookup("color"))

	root.AddCommand(
		newLocalCommand(v),
		newRemoteCommand(v),
		newListCommand(v),
		newGamesCommand(),
		newValidateCommand(),
	)
	return root
}

func renderer(v *viper.Viper) *render.Renderer {
	return render.New(v.GetString("locale"), render.WithColor(v.GetBool("color")))
}

func newLocalCommand(v *viper.Viper) *cobra.Command {
	var (
		players        []string
		title, defPath string
		gameID         string
	)
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Play a hot-seat game stored on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, closeStore, err := openLocal(setting(cmd, v, "db"))
			if err != nil {
				return err
			}
			defer closeStore()
			defer registry.Close()

			ctx := cmd.Context()
			if gameID == "" {
				req := gametable.CreateRequest{Title: title, Players: players}
				if defPath != "" {
					data, err := os.ReadFile(defPath)
					if err != nil {
						return fmt.Errorf("read definition: %w", err)
					}
					req.Definition = data
				}
				view, err := registry.Create(ctx, req)
				if err != nil {
					return err
				}
				gameID = view.GameID
			}
			s := localSession{registry: registry, gameID: gameID}
			return prompt(ctx, s, renderer(v), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&players, "players", nil, "Comma separated player names")
	cmd.Flags().StringVar(&title, "title", "", "Bundled game title")
	cmd.Flags().StringVar(&defPath, "definition", "", "Game definition YAML file")
	cmd.Flags().StringVar(&gameID, "game", "", "Resume a stored game")
	cmd.Flags().String("db", v.GetString("db"), "The SQLite database path")
	return cmd
}

func openLocal(path string) (*gametable.Registry, func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	var opts []storagesqlite.Option
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return nil, nil, err
	}
	if keyring != nil {
		opts = append(opts, storagesqlite.WithKeyring(keyring))
	}
	store, err := storagesqlite.Open(path, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite store: %w", err)
	}
	registry, err := gametable.NewRegistry(store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return registry, func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}, nil
}

// setting prefers an explicit flag on cmd over the environment and defaults.
func setting(cmd *cobra.Command, v *viper.Viper, key string) string {
	if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
		return f.Value.String()
	}
	return v.GetString(key)
}

func dial(cmd *cobra.Command, v *viper.Viper) (*tablegrpc.Client, func(), error) {
	conn, err := platformgrpc.DialServiceWithHealth(cmd.Context(), setting(cmd, v, "server"), tablegrpc.ServiceName, timeouts.GRPCDial, log.Printf)
	if err != nil {
		return nil, nil, err
	}
	return tablegrpc.NewClient(conn), func() { _ = conn.Close() }, nil
}

func newRemoteCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Play a game hosted by a table server",
	}
	cmd.PersistentFlags().String("server", v.GetString("server"), "Table server address")

	var (
		players        []string
		title, defPath string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a game on the server and play it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, closeConn, err := dial(cmd, v)
			if err != nil {
				return err
			}
			defer closeConn()

			req := &tablegrpc.CreateGameRequest{Title: title, Players: players}
			if defPath != "" {
				data, err := os.ReadFile(defPath)
				if err != nil {
					return fmt.Errorf("read definition: %w", err)
				}
				req.Definition = string(data)
			}
			reqCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
			resp, err := client.CreateGame(reqCtx, req)
			cancel()
			if err != nil {
				return err
			}
			s := remoteSession{client: client, gameID: resp.Game.ID}
			return prompt(ctx, s, renderer(v), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	create.Flags().StringSliceVar(&players, "players", nil, "Comma separated player names")
	create.Flags().StringVar(&title, "title", "", "Bundled game title")
	create.Flags().StringVar(&defPath, "definition", "", "Game definition YAML file")

	join := &cobra.Command{
		Use:   "join <game-id>",
		Short: "Play an existing game on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, closeConn, err := dial(cmd, v)
			if err != nil {
				return err
			}
			defer closeConn()
			s := remoteSession{client: client, gameID: args[0]}
			return prompt(ctx, s, renderer(v), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.AddCommand(create, join)
	return cmd
}

func newListCommand(v *viper.Viper) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games hosted by a table server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, closeConn, err := dial(cmd, v)
			if err != nil {
				return err
			}
			defer closeConn()

			reqCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
			defer cancel()
			resp, err := client.ListGames(reqCtx, &tablegrpc.ListGamesRequest{Limit: limit})
			if err != nil {
				return err
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"ID", "Title", "Players", "Status", "Updated"})
			for _, g := range resp.Games {
				tw.AppendRow(table.Row{g.ID, g.Title, strings.Join(g.Players, ", "), g.Status, g.UpdatedAt.Format("2006-01-02 15:04")})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum games to list")
	cmd.Flags().String("server", v.GetString("server"), "Table server address")
	return cmd
}

func newGamesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List bundled game titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range definition.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|dir>",
		Short: "Check game definition files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			var defs []definition.Definition
			if info.IsDir() {
				defs, err = definition.LoadDir(path)
			} else {
				var def definition.Definition
				def, err = definition.Load(path)
				defs = append(defs, def)
			}
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				return errors.New("no definitions found")
			}
			for _, d := range defs {
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", d.Name)
			}
			return nil
		},
	}
}
