// Package types
package types

import (
	"errors"
	"fmt"
)

// Fault kinds. Match with errors.Is.
var (
	ErrTransport           = errors.New("transport fault")
	ErrGasEstimationFailed = errors.New("gas estimation failed")
	ErrSigningUnavailable  = errors.New("signing unavailable")
	ErrOperationFailed     = errors.New("operation failed")
	ErrIndeterminate       = errors.New("operation indeterminate")
	ErrPartialFetch        = errors.New("partial fetch fault")

	ErrNotPermitted     = errors.New("action not permitted")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrProposalNotFound = errors.New("proposal not found")
)

// Fault is a terminal fault surfaced to callers. Kind is one of the Err*
// values above, Msg is the human readable reason.
type Fault struct {
	Kind  error
	Msg   string
	Cause ErrorReason
	Err   error
}

func NewFault(kind error, msg string) *Fault {
	return &Fault{Kind: kind, Msg: msg}
}

func WrapFault(kind error, err error) *Fault {
	f := &Fault{Kind: kind, Err: err}
	if err != nil {
		f.Msg = err.Error()
	}
	return f
}

func (f *Fault) Error() string {
	if f.Msg == "" {
		return f.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
}

func (f *Fault) Is(target error) bool {
	return target == f.Kind
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// ReasonOf returns the classified error reason carried by err, if any.
func ReasonOf(err error) (ErrorReason, bool) {
	var f *Fault
	if errors.As(err, &f) && f.Cause != nil {
		return f.Cause, true
	}
	return nil, false
}
