package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// ErrNotServing reports a health check that answered with a status other than
// SERVING.
var ErrNotServing = errors.New("service is not serving")

// HealthPoll bounds how often WaitForHealth asks the server.
type HealthPoll struct {
	// Initial is the first wait between checks; it doubles up to Max.
	Initial time.Duration
	Max     time.Duration
	// CallTimeout bounds a single Check call.
	CallTimeout time.Duration
}

// DefaultHealthPoll is used when WaitForHealth gets a zero HealthPoll.
var DefaultHealthPoll = HealthPoll{Initial: 100 * time.Millisecond, Max: time.Second, CallTimeout: time.Second}

func (p HealthPoll) withDefaults() HealthPoll {
	if p.Initial <= 0 {
		p.Initial = DefaultHealthPoll.Initial
	}
	if p.Max < p.Initial {
		p.Max = max(DefaultHealthPoll.Max, p.Initial)
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = DefaultHealthPoll.CallTimeout
	}
	return p
}

// CheckHealth asks the server once whether service is SERVING.
func CheckHealth(ctx context.Context, conn gogrpc.ClientConnInterface, service string) error {
	if conn == nil {
		return errors.New("gRPC connection is not configured")
	}
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return err
	}
	if status := resp.GetStatus(); status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, status)
	}
	return nil
}

// WaitForHealth polls the health service until service is SERVING or ctx ends.
// The last check error is reported alongside the context error.
func WaitForHealth(ctx context.Context, conn gogrpc.ClientConnInterface, service string, poll HealthPoll, logf func(string, ...any)) error {
	if conn == nil {
		return errors.New("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	poll = poll.withDefaults()
	wait := poll.Initial
	for {
		callCtx, cancel := context.WithTimeout(ctx, poll.CallTimeout)
		err := CheckHealth(callCtx, conn, service)
		cancel()
		if err == nil {
			return nil
		}
		if logf != nil {
			logf("waiting for %q health: %v", service, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %q health: %w (last check: %v)", service, ctx.Err(), err)
		case <-time.After(wait):
		}
		wait = min(wait*2, poll.Max)
	}
}
