package config_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/louisbranch/stockrail/internal/platform/config"
	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", want: config.ExitOK},
		{name: "plain", err: errors.New("boom"), want: config.ExitFailure},
		{name: "interrupted", err: fmt.Errorf("serve: %w", context.Canceled), want: config.ExitInterrupted},
		{name: "bad definition", err: apperrors.Configuration("no companies"), want: config.ExitMisconfig},
		{name: "illegal state", err: apperrors.IllegalState("bank negative"), want: config.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := config.ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestReportWritesOnlyFailures(t *testing.T) {
	var buf bytes.Buffer
	if code := config.Report(&buf, "play", nil); code != config.ExitOK || buf.Len() != 0 {
		t.Fatalf("Report(nil) = %d %q, want 0 and no output", code, buf.String())
	}
	code := config.Report(&buf, "play", errors.New("table closed"))
	if code != config.ExitFailure {
		t.Fatalf("Report code = %d, want %d", code, config.ExitFailure)
	}
	if got := buf.String(); got != "play: table closed\n" {
		t.Fatalf("Report output = %q", got)
	}
}

// os.Exit cannot be intercepted in-process, so the exit path runs in a child.
func TestExitTerminatesWithMappedCode(t *testing.T) {
	if os.Getenv("STOCKRAIL_EXIT_SUBPROCESS") == "1" {
		config.Exit("game", apperrors.Configuration("market has no par cells"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitTerminatesWithMappedCode$")
	cmd.Env = append(os.Environ(), "STOCKRAIL_EXIT_SUBPROCESS=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %T %v, want *exec.ExitError", err, err)
	}
	if exitErr.ExitCode() != config.ExitMisconfig {
		t.Fatalf("exit code = %d, want %d", exitErr.ExitCode(), config.ExitMisconfig)
	}
	if !strings.Contains(string(out), "game: ") || !strings.Contains(string(out), "market has no par cells") {
		t.Fatalf("stderr = %q", out)
	}
}
