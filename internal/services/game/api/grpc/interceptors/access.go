// Package interceptors holds unary server interceptors for the table service.
package interceptors

import (
	"context"
	"log"
	"time"

	grpcmeta "github.com/louisbranch/stockrail/internal/services/game/api/grpc/metadata"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// AccessLogInterceptor logs one line per unary call with its status code,
// request ID and trace ID. A nil logf uses log.Printf.
func AccessLogInterceptor(logf func(string, ...any), now func() time.Time) grpc.UnaryServerInterceptor {
	if logf == nil {
		logf = log.Printf
	}
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := now()
		resp, err := handler(ctx, req)

		traceID := "-"
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		player := grpcmeta.PlayerIDFromContext(ctx)
		if player == "" {
			player = "-"
		}
		logf("grpc %s code=%s request_id=%s player=%s trace_id=%s elapsed=%s",
			info.FullMethod, status.Code(err), grpcmeta.RequestIDFromContext(ctx), player, traceID, now().Sub(start))
		return resp, err
	}
}
