// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "errors"

// Kind classifies ledger failures
type Kind uint8

const (
	KindAuthorization Kind = iota + 1
	KindValidation
	KindNotFound
	KindState
	KindArithmetic
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "AuthorizationError"
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindState:
		return "StateError"
	case KindArithmetic:
		return "ArithmeticError"
	default:
		return "UnknownError"
	}
}

// Error is a precondition failure. Code is stable and unique per condition.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Codes shared by more than one sentinel
const (
	CodeDuplicateID = "duplicate_id"
	CodeEmptyID     = "empty_id"
)

var (
	ErrUnauthorized = &Error{KindAuthorization, "unauthorized", "only the ledger owner may perform this action"}

	ErrEmptyElectionID     = &Error{KindValidation, CodeEmptyID, "election id must not be empty"}
	ErrDuplicateElectionID = &Error{KindValidation, CodeDuplicateID, "election id already exists"}
	ErrInvalidCouncilSize  = &Error{KindValidation, "invalid_council_size", "invalid number of council members"}
	ErrEmptyVoters         = &Error{KindValidation, "empty_voters", "empty voters array provided"}
	ErrEmptyNominees       = &Error{KindValidation, "empty_nominees", "empty nominees array provided"}
	ErrEmptyWeights        = &Error{KindValidation, "empty_weights", "empty weights array provided"}
	ErrMismatchedArrays    = &Error{KindValidation, "mismatched_arrays", "voters, nominees and weights must have equal length"}
	ErrNullAddress         = &Error{KindValidation, "null_address", "address must not be the null address"}
	ErrEmptyProposalID     = &Error{KindValidation, CodeEmptyID, "proposal id must not be empty"}
	ErrDuplicateProposalID = &Error{KindValidation, CodeDuplicateID, "proposal id is not unique"}
	ErrInvalidSeats        = &Error{KindValidation, "invalid_seats", "number of seats must be greater than zero"}
	ErrInvalidPeriod       = &Error{KindValidation, "invalid_period", "proposal period must be at least one second"}

	ErrElectionNotFound = &Error{KindNotFound, "election_not_found", "election not found"}
	ErrProposalNotFound = &Error{KindNotFound, "proposal_not_found", "proposal not found"}
	ErrReceiptNotFound  = &Error{KindNotFound, "receipt_not_found", "no dilution receipt for this proposal and member"}

	ErrOutsideWindow     = &Error{KindState, "outside_window", "proposal is outside its voting window"}
	ErrNotCouncilMember  = &Error{KindState, "not_council_member", "address is not a council member"}
	ErrNoDelegatedWeight = &Error{KindState, "no_delegated_weight", "voter has no delegated weight for this member"}
	ErrAlreadyDiluted    = &Error{KindState, "already_diluted", "voter has already diluted this member for this proposal"}
	ErrNoContribution    = &Error{KindState, "no_contribution", "voter has no dilution to reverse"}
	ErrNoElection        = &Error{KindState, "no_election", "no election was logged before this proposal"}

	ErrOverflow = &Error{KindArithmetic, "overflow", "arithmetic overflow"}
)

// KindOf returns the kind of the first *Error in err's chain, or 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf returns the code of the first *Error in err's chain, or ""
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
