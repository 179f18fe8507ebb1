package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
)

// Process exit codes shared by the stockrail binaries.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitMisconfig   = 2
	ExitInterrupted = 130
)

// ExitCode maps a terminal error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case apperrors.HasCode(err, apperrors.CodeConfiguration):
		return ExitMisconfig
	default:
		return ExitFailure
	}
}

// Report writes a terminal error for service to w and returns its exit code.
func Report(w io.Writer, service string, err error) int {
	code := ExitCode(err)
	if code != ExitOK {
		fmt.Fprintf(w, "%s: %v\n", service, err)
	}
	return code
}

// Exit reports err on stderr and terminates the process. A nil error is a no-op.
func Exit(service string, err error) {
	if code := Report(os.Stderr, service, err); code != ExitOK {
		os.Exit(code)
	}
}
