// Package simerr defines the error taxonomy shared by the simulation core.
// Every rejected core operation returns one of these and mutates nothing.
package simerr

import (
	"errors"
	"fmt"
)

// Kind is the category of a simulation error.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindPrecondition    Kind = "precondition_violation"
)

// Error is a classified failure. Two errors match under errors.Is when they
// share a code, so callers can test against the sentinels below even when
// the message carries details.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Not found.
var (
	ErrBodyNotFound       = newErr(KindNotFound, "body_not_found", "body not found")
	ErrSettlementNotFound = newErr(KindNotFound, "settlement_not_found", "settlement not found")
	ErrActorNotFound      = newErr(KindNotFound, "actor_not_found", "actor not found")
	ErrPlotNotFound       = newErr(KindNotFound, "plot_not_found", "plot not found")
	ErrFactionNotFound    = newErr(KindNotFound, "faction_not_found", "faction not found")
)

// Invalid argument.
var (
	ErrUnknownFacility        = newErr(KindInvalidArgument, "unknown_facility", "unknown facility")
	ErrUnknownResource        = newErr(KindInvalidArgument, "unknown_resource", "unknown resource")
	ErrUnknownStructureType   = newErr(KindInvalidArgument, "unknown_structure_type", "unknown structure type")
	ErrUnknownInteractionType = newErr(KindInvalidArgument, "unknown_interaction_type", "unknown interaction type")
	ErrUnknownTrait           = newErr(KindInvalidArgument, "unknown_trait", "unknown personality trait")
	ErrUnknownSkill           = newErr(KindInvalidArgument, "unknown_skill", "unknown skill")
	ErrInvalidCycleCount      = newErr(KindInvalidArgument, "invalid_cycle_count", "cycle count must not be negative")
	ErrEmptyDomain            = newErr(KindInvalidArgument, "empty_domain", "cannot choose from an empty domain")
	ErrInvalidWeight          = newErr(KindInvalidArgument, "invalid_weight", "weights must be positive")
	ErrInvalidAmount          = newErr(KindInvalidArgument, "invalid_amount", "amount must be positive")
	ErrInvalidQuality         = newErr(KindInvalidArgument, "invalid_quality", "quality must be a finite non-negative number")
	ErrInvalidPlayer          = newErr(KindInvalidArgument, "invalid_player", "player id must not be empty")
	ErrInvalidName            = newErr(KindInvalidArgument, "invalid_name", "name must not be empty")
)

// Precondition violation.
var (
	ErrPlotAlreadyDeveloped = newErr(KindPrecondition, "plot_already_developed", "plot already developed")
	ErrPlotAlreadyClaimed   = newErr(KindPrecondition, "plot_already_claimed", "plot already claimed")
	ErrPlotNotOwned         = newErr(KindPrecondition, "plot_not_owned", "plot is not owned by player")
	ErrInsufficientStock    = newErr(KindPrecondition, "insufficient_stock", "insufficient stock")
	ErrAlreadyInitialized   = newErr(KindPrecondition, "already_initialized", "universe already initialized")
	ErrFactionExists        = newErr(KindPrecondition, "faction_exists", "faction already exists")
	ErrNotMinted            = newErr(KindPrecondition, "not_minted", "asset has no ledger token")
)

// Wrapf returns an error of the same kind and code as base with a detailed message.
func Wrapf(base *Error, format string, args ...any) error {
	return &Error{
		Kind:    base.Kind,
		Code:    base.Code,
		Message: fmt.Sprintf("%s: %s", base.Message, fmt.Sprintf(format, args...)),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
