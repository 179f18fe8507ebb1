// Package api contains service API implementations.
//
// API handlers are organized by transport. The gRPC transport is the only
// surface today.
//
// Subpackages:
//   - grpc/table: the table service, its messages and client
//   - grpc/metadata: request metadata helpers and interceptors
//   - grpc/interceptors: cross-cutting gRPC middleware
package api
