package cmd

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/platform/otel"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")
	t.Setenv(DotEnvFileEnv, filepath.Join(t.TempDir(), "missing.env"))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Address, "address", cfgRef.Address, "address")
	fs.StringVar(&cfgRef.Mode, "mode", cfgRef.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfgRef.Address)
	}
	if cfgRef.Mode != "env-mode" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseConfigReadsDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CMD_TEST_MODE=dotenv-mode\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv(DotEnvFileEnv, path)
	t.Setenv("CMD_TEST_MODE", "")
	os.Unsetenv("CMD_TEST_MODE")
	t.Cleanup(func() { os.Unsetenv("CMD_TEST_MODE") })

	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfgRef.Mode != "dotenv-mode" {
		t.Fatalf("mode = %q, want dotenv-mode", cfgRef.Mode)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceGame, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryRunsLoop(t *testing.T) {
	called := false
	err := RunWithTelemetry(context.Background(), ServicePlay, func(context.Context) error {
		called = true
		return nil
	}, WithTracing(otel.Config{SampleRatio: 1}), WithFlushTimeout(time.Second))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("expected run function to be called")
	}
}

func TestRunWithTelemetryReadsTracingEnv(t *testing.T) {
	t.Setenv(otel.SampleRatioEnv, "2")
	err := RunWithTelemetry(context.Background(), ServiceGame, func(context.Context) error {
		t.Fatal("run must not start with bad tracing config")
		return nil
	})
	if !apperrors.HasCode(err, apperrors.CodeConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	want := errors.New("table closed")
	err := RunWithTelemetry(context.Background(), ServiceGame, func(context.Context) error {
		return want
	}, WithTracing(otel.Config{}))
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
