// Command game serves the stockrail table service over gRPC.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	gamecmd "github.com/louisbranch/stockrail/internal/cmd/game"
	"github.com/louisbranch/stockrail/internal/platform/config"
)

func main() {
	log.SetPrefix("[GAME] ")
	cfg, err := gamecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exit("game", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = gamecmd.Run(ctx, cfg)
	stop()
	if errors.Is(err, context.Canceled) {
		log.Printf("shutdown complete")
		return
	}
	config.Exit("game", err)
}
