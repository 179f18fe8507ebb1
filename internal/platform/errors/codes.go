// Package errors provides coded domain errors shared by the engine and its transports.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified error.
	CodeUnknown Code = "UNKNOWN"

	// CodeIllegalAction marks an action outside the published legal set, or submitted by
	// a player who does not have the turn.
	CodeIllegalAction Code = "ILLEGAL_ACTION"
	// CodeNotHeld marks a transfer from a portfolio that does not hold the item.
	CodeNotHeld Code = "NOT_HELD"
	// CodeInsufficientFunds marks a purchase or bid above the available cash.
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	// CodeConfiguration marks an inconsistent game definition.
	CodeConfiguration Code = "CONFIGURATION"
	// CodeIllegalState marks an engine invariant violation.
	CodeIllegalState Code = "ILLEGAL_STATE"

	// CodeNotFound marks a missing stored game or table.
	CodeNotFound Code = "NOT_FOUND"
	// CodeGameOver marks an action submitted after the game ended.
	CodeGameOver Code = "GAME_OVER"
	// CodeAlreadyExists marks a create of a game id already stored.
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeIllegalAction, CodeConfiguration:
		return codes.InvalidArgument
	case CodeNotHeld, CodeInsufficientFunds, CodeGameOver:
		return codes.FailedPrecondition
	case CodeNotFound:
		return codes.NotFound
	case CodeAlreadyExists:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// Recoverable reports whether the caller may resubmit a corrected request.
func (c Code) Recoverable() bool {
	switch c {
	case CodeIllegalAction, CodeNotHeld, CodeInsufficientFunds:
		return true
	default:
		return false
	}
}
