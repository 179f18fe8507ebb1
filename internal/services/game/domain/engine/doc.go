// Package engine is the top-level game controller.
//
// A Game owns the committed aggregate.State and sequences rounds. Callers ask
// for the legal actions with SetPossibleActions and PossibleActions, then
// submit one with Process. Process runs the action against a clone of the
// state and commits the clone only when the action, the round transitions it
// triggers and the invariant checks all succeed, so a rejected action never
// leaves a partial change behind.
package engine
