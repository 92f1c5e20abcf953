package types

import (
	"fmt"
)

// ErrorReason is the decoded cause of a rejected dispatch. It is one of
// ModuleError, ContractError or UnknownError.
type ErrorReason interface {
	fmt.Stringer
	isErrorReason()
}

// ModuleError is a runtime module (pallet) error resolved to its name.
type ModuleError struct {
	Pallet string `json:"pallet"`
	Name   string `json:"name"`
}

func (ModuleError) isErrorReason() {}

func (e ModuleError) String() string {
	if e.Pallet == "" {
		return e.Name
	}
	return e.Pallet + "." + e.Name
}

// ContractError is a variant of the governance contract's Error enum.
type ContractError struct {
	Variant string `json:"variant"`
}

func (ContractError) isErrorReason() {}

func (e ContractError) String() string {
	return e.Variant
}

// UnknownError keeps the raw key of an error that could not be decoded.
type UnknownError struct {
	RawKey string `json:"rawKey"`
}

func (UnknownError) isErrorReason() {}

func (e UnknownError) String() string {
	return "unknown error " + e.RawKey
}

type OutcomeKind uint8

const (
	OutcomeSucceeded OutcomeKind = iota
	OutcomeFailed
	OutcomeIndeterminate
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "Succeeded"
	case OutcomeFailed:
		return "FailedWithReason"
	case OutcomeIndeterminate:
		return "Indeterminate"
	}
	return fmt.Sprintf("OutcomeKind(%d)", uint8(k))
}

// OperationOutcome is the terminal result of one finalized write operation.
type OperationOutcome struct {
	Kind      OutcomeKind `json:"kind"`
	Reason    ErrorReason `json:"reason,omitempty"`
	BlockHash string      `json:"blockHash,omitempty"`
}

func Succeeded(blockHash string) OperationOutcome {
	return OperationOutcome{Kind: OutcomeSucceeded, BlockHash: blockHash}
}

func FailedWithReason(blockHash string, reason ErrorReason) OperationOutcome {
	return OperationOutcome{Kind: OutcomeFailed, Reason: reason, BlockHash: blockHash}
}

func Indeterminate(blockHash string) OperationOutcome {
	return OperationOutcome{Kind: OutcomeIndeterminate, BlockHash: blockHash}
}

func (o OperationOutcome) IsSuccess() bool {
	return o.Kind == OutcomeSucceeded
}

// Err converts a non-successful outcome into a Fault. Indeterminate is kept
// distinct from OperationFailed so callers can ask the user to re-check.
func (o OperationOutcome) Err() error {
	switch o.Kind {
	case OutcomeSucceeded:
		return nil
	case OutcomeFailed:
		reason := ErrorReason(UnknownError{RawKey: "none"})
		if o.Reason != nil {
			reason = o.Reason
		}
		return &Fault{Kind: ErrOperationFailed, Msg: reason.String(), Cause: reason}
	}
	return NewFault(ErrIndeterminate, "finalized in block "+o.BlockHash+" without a success signal, re-check proposal state")
}

// OperationKind names a mutating contract message.
type OperationKind string

const (
	OpSubmitProposal OperationKind = "submit_proposal"
	OpVoteFor        OperationKind = "vote_for"
	OpVoteAgainst    OperationKind = "vote_against"
	OpCloseVote      OperationKind = "close_vote"
	OpCancelProposal OperationKind = "cancel_proposal"
)

// ChangesProposals reports whether a successful operation of this kind
// changes proposal state that projections are derived from.
func (k OperationKind) ChangesProposals() bool {
	switch k {
	case OpSubmitProposal, OpVoteFor, OpVoteAgainst, OpCloseVote, OpCancelProposal:
		return true
	}
	return false
}
