package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const checkedService = "stockrail.test.v1.Checked"

type checkedServer struct {
	addr   string
	health *health.Server
}

func (p checkedServer) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	p.health.SetServingStatus(checkedService, status)
}

func startCheckedServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) checkedServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, hs)
	hs.SetServingStatus(checkedService, status)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		server.Stop()
		<-done
	})
	return checkedServer{addr: listener.Addr().String(), health: hs}
}

func plainClient(t *testing.T, addr string) *gogrpc.ClientConn {
	t.Helper()
	conn, err := gogrpc.NewClient(addr, gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestCheckHealth(t *testing.T) {
	target := startCheckedServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	conn := plainClient(t, target.addr)
	ctx := context.Background()

	if err := CheckHealth(ctx, conn, checkedService); !errors.Is(err, ErrNotServing) {
		t.Fatalf("CheckHealth = %v, want ErrNotServing", err)
	}
	target.set(grpc_health_v1.HealthCheckResponse_SERVING)
	if err := CheckHealth(ctx, conn, checkedService); err != nil {
		t.Fatalf("CheckHealth = %v, want nil", err)
	}
	if err := CheckHealth(ctx, nil, checkedService); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func TestWaitForHealthTransitionsToServing(t *testing.T) {
	target := startCheckedServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	conn := plainClient(t, target.addr)

	time.AfterFunc(150*time.Millisecond, func() { target.set(grpc_health_v1.HealthCheckResponse_SERVING) })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var waits int
	logf := func(string, ...any) { waits++ }
	if err := WaitForHealth(ctx, conn, checkedService, HealthPoll{Initial: 20 * time.Millisecond}, logf); err != nil {
		t.Fatalf("WaitForHealth: %v", err)
	}
	if waits == 0 {
		t.Fatal("expected at least one logged wait before serving")
	}
}

func TestWaitForHealthReportsLastCheck(t *testing.T) {
	target := startCheckedServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	conn := plainClient(t, target.addr)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := WaitForHealth(ctx, conn, checkedService, HealthPoll{}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if !strings.Contains(err.Error(), "NOT_SERVING") {
		t.Fatalf("err = %v, want last status in message", err)
	}
}

func TestHealthPollDefaults(t *testing.T) {
	got := HealthPoll{Initial: 2 * time.Second}.withDefaults()
	if got.Initial != 2*time.Second || got.Max != 2*time.Second || got.CallTimeout != DefaultHealthPoll.CallTimeout {
		t.Fatalf("poll = %+v", got)
	}
	if zero := (HealthPoll{}).withDefaults(); zero != DefaultHealthPoll {
		t.Fatalf("zero poll = %+v, want %+v", zero, DefaultHealthPoll)
	}
}
