package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/louisbranch/stockrail/internal/platform/config"
	"github.com/louisbranch/stockrail/internal/platform/otel"
)

const defaultTraceFlushTimeout = 5 * time.Second

// Service names passed to RunWithTelemetry. Each becomes the
// "stockrail-<name>" trace service.
const (
	ServiceGame = "game"
	ServicePlay = "play"
)

// DotEnvFileEnv names the variable that points at an alternative .env file.
const DotEnvFileEnv = "STOCKRAIL_DOTENV"

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set win over the file. A missing file is not an error.
func LoadDotEnv() error {
	path := strings.TrimSpace(os.Getenv(DotEnvFileEnv))
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// ParseConfig fills cfg from the .env file and the environment.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if err := LoadDotEnv(); err != nil {
		return err
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags over values ParseConfig already set.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	return fs.Parse(append([]string{}, args...))
}

type runConfig struct {
	flushTimeout time.Duration
	tracing      *otel.Config
}

// RunOption adjusts RunWithTelemetry.
type RunOption func(*runConfig)

// WithFlushTimeout bounds how long pending spans may take to flush on exit.
func WithFlushTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.flushTimeout = d
		}
	}
}

// WithTracing uses cfg instead of reading tracing settings from the environment.
func WithTracing(cfg otel.Config) RunOption {
	return func(c *runConfig) { c.tracing = &cfg }
}

// RunWithTelemetry installs tracing for service, runs run and flushes spans
// once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error, opts ...RunOption) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rc := runConfig{flushTimeout: defaultTraceFlushTimeout}
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.tracing == nil {
		cfg, err := otel.LoadConfig()
		if err != nil {
			return err
		}
		rc.tracing = &cfg
	}

	shutdown, err := otel.Setup(ctx, "stockrail-"+service, *rc.tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), rc.flushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s: flush traces: %v", service, err)
		}
	}()
	return run(ctx)
}
