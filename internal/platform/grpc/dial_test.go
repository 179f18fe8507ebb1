package grpc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestDialServiceWithHealth(t *testing.T) {
	target := startCheckedServer(t, grpc_health_v1.HealthCheckResponse_SERVING)

	conn, err := DialServiceWithHealth(context.Background(), target.addr, checkedService, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("DialServiceWithHealth: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close conn: %v", err)
	}
}

func TestDialServiceWithHealthStages(t *testing.T) {
	tests := []struct {
		name  string
		addr  func(t *testing.T) string
		opts  []gogrpc.DialOption
		stage DialStage
	}{
		{
			name:  "missing credentials",
			addr:  func(*testing.T) string { return "127.0.0.1:1" },
			opts:  []gogrpc.DialOption{gogrpc.WithUserAgent("stockrail-test")},
			stage: DialStageConnect,
		},
		{
			name: "not serving",
			addr: func(t *testing.T) string {
				return startCheckedServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING).addr
			},
			stage: DialStageHealth,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			conn, err := DialServiceWithHealth(context.Background(), tt.addr(t), checkedService, 150*time.Millisecond, nil, tt.opts...)
			if conn != nil {
				_ = conn.Close()
				t.Fatal("expected nil connection on error")
			}
			var dialErr *DialError
			if !errors.As(err, &dialErr) {
				t.Fatalf("err = %T %v, want *DialError", err, err)
			}
			if dialErr.Stage != tt.stage {
				t.Fatalf("stage = %q, want %q", dialErr.Stage, tt.stage)
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Fatalf("dial took %v, want it bounded by the timeout", elapsed)
			}
		})
	}
}

func TestDialErrorFormatting(t *testing.T) {
	wrapped := &DialError{Addr: "game:8082", Stage: DialStageHealth, Err: errors.New("boom")}
	if got := wrapped.Error(); !strings.Contains(got, "gRPC health game:8082") {
		t.Fatalf("Error() = %q", got)
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}

	var nilErr *DialError
	if nilErr.Error() == "" || nilErr.Unwrap() != nil {
		t.Fatal("expected nil DialError to be safe")
	}
}
