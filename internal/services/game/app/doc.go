// Package server composes the game gRPC entrypoint.
//
// It opens the SQLite store, wraps it in a table registry and serves
// TableService with gRPC health and OpenTelemetry stats handling.
package server
