// Package metadata provides utilities for handling gRPC request metadata.
//
// It defines the header keys the table service reads and writes and a unary
// interceptor that guarantees every call carries a request ID.
//
// # Header Constants
//
//   - RequestIDHeader: Correlates client calls with server logs and traces.
//   - PlayerIDHeader: The seat a client acts for, used only as a log hint.
package metadata
