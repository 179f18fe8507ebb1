// Package action defines the player intents a round accepts.
//
// Actions are plain values. A round publishes the set of legal actions for the
// current decision point as templates; a submitted action is legal when it
// matches one of those templates. Templates carry ranges (price bounds, a
// maximum count, allowed par prices) that the submission must fall within.
package action
