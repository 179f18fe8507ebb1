package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/render"
)

const promptHelp = `Enter the number of an action, optionally followed by key=value arguments
(price, count, revenue, allocation, hex, tile, color, orientation, train, ...),
or a JSON action. Other commands: market, log, journal, standings, help, quit.`

// prompt runs the hot-seat loop until the game ends, input ends or the user
// quits.
func prompt(ctx context.Context, s session, r *render.Renderer, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	refresh := true
	seenEvents := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		view, err := s.View(ctx)
		if err != nil {
			return err
		}
		if refresh {
			fmt.Fprintf(out, "\n== %s ==\n", s.ID())
			r.View(out, view)
			refresh = false
		}
		if view.Over {
			return nil
		}
		if view.State != nil {
			seenEvents = len(view.State.Log)
		}

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help", "?":
			fmt.Fprintln(out, promptHelp)
			continue
		case "market":
			r.Market(out, view.State.Market)
			continue
		case "standings":
			r.Standings(out, view.Standings)
			continue
		case "log":
			r.Events(out, view.State.Log)
			continue
		case "journal":
			lines, err := s.Journal(ctx)
			if err != nil {
				return err
			}
			r.Journal(out, lines)
			continue
		}

		a, err := parseAction(line, view.Possible)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		result, err := s.Process(ctx, a)
		if err != nil {
			if apperrors.CodeOf(err).Recoverable() {
				fmt.Fprintf(out, "rejected: %v\n", err)
				continue
			}
			return err
		}
		events := result.Events
		if len(events) == 0 && result.View.State != nil {
			events = result.View.State.Log.Since(seenEvents)
		}
		r.Events(out, events)
		refresh = true
	}
}
