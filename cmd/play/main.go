// Command play runs stockrail games at the terminal, hot-seat or against a table server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	playcmd "github.com/louisbranch/stockrail/internal/cmd/play"
	entrypoint "github.com/louisbranch/stockrail/internal/platform/cmd"
	"github.com/louisbranch/stockrail/internal/platform/config"
)

func main() {
	if err := entrypoint.LoadDotEnv(); err != nil {
		config.Exit("play", err)
	}
	log.SetPrefix("[PLAY] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := playcmd.NewRootCommand(os.Stdin, os.Stdout)
	err := entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePlay, root.ExecuteContext)
	stop()
	config.Exit("play", err)
}
