// Package timeouts defines shared timeout constants used by the server and CLI.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the game server.
const GRPCDial = 2 * time.Second

// GRPCRequest caps the time allowed for a single table request from the CLI.
const GRPCRequest = 5 * time.Second

// TableQueue caps how long a request waits for its turn in a table's command queue.
const TableQueue = 3 * time.Second

// Shutdown limits how long the server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
