// Package storage defines persistence contracts for games.
//
// A game is stored as its record (title, players, status), an append-only
// action journal and optional state snapshots. The journal is the source of
// truth: a game is restored by building the title's initial state and
// replaying its actions. Implementations live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing
//   - ErrSeqConflict: an append did not extend the journal by exactly one
package storage
