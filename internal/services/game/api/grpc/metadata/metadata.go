package metadata

import (
	"context"
	"strings"

	"github.com/louisbranch/stockrail/internal/platform/id"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader carries the correlation ID in both directions.
const RequestIDHeader = "x-stockrail-request-id"

// PlayerIDHeader is the gRPC metadata key for the seat a client plays.
const PlayerIDHeader = "x-stockrail-player-id"

type contextKey string

const requestIDContextKey contextKey = "stockrail-request-id"

// RequestIDFromContext returns the correlation ID of the current call, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDContextKey).(string)
	return value
}

// WithRequestID attaches a correlation ID to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// PlayerIDFromContext returns the player ID from incoming metadata.
func PlayerIDFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstMetadataValue(md, PlayerIDHeader)
}

// OutgoingPlayer attaches the player header to an outgoing call.
func OutgoingPlayer(ctx context.Context, playerID string) context.Context {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, PlayerIDHeader, playerID)
}

// IsPrintableASCII rejects control bytes and anything outside 0x20..0x7e.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue looks key up case-insensitively and returns its first
// non-empty printable value.
func FirstMetadataValue(md metadata.MD, key string) string {
	if len(md) == 0 {
		return ""
	}
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// UnaryServerInterceptor gives every unary call a request ID, echoes it in the
// response header and records it on the active span.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		updatedCtx, requestID, err := ensureRequestID(ctx, idGenerator)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "ensure request metadata: %v", err)
		}
		if err := grpc.SetHeader(updatedCtx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		trace.SpanFromContext(updatedCtx).SetAttributes(attribute.String("stockrail.request_id", requestID))
		return handler(updatedCtx, req)
	}
}

func ensureRequestID(ctx context.Context, idGenerator func() (string, error)) (context.Context, string, error) {
	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		requestID = FirstMetadataValue(md, RequestIDHeader)
	}
	if requestID == "" {
		generated, err := idGenerator()
		if err != nil {
			return nil, "", err
		}
		requestID = generated
	}
	return WithRequestID(ctx, requestID), requestID, nil
}
