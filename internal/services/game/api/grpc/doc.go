// Package grpc contains gRPC service implementations.
//
// Messages travel as JSON through the codec in internal/platform/grpc, so the
// service descriptors are written by hand instead of generated.
package grpc
