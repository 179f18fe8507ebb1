// Package event defines the report events emitted by accepted actions.
//
// Events are immutable facts describing what an action changed: money paid,
// certificates moved, prices adjusted, rounds and phases started. They are
// derived from state changes and are never used to rebuild state; replay
// re-processes the action journal instead.
package event
