// Package table exposes running games over gRPC.
//
// TableService has no generated stubs: its messages are plain Go structs
// that travel as google.protobuf.Struct through the struct codec in
// internal/platform/grpc, and its descriptor is written by hand. Clients must
// select the codec with grpc.CallContentSubtype("struct"); Client does so for
// every call.
package table
