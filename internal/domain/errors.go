package domain

import (
	"errors"
	"fmt"
)

// ErrCanceled marks a caller-initiated abort of an in-flight simulation.
// Wrapped errors are checked with errors.Is(err, ErrCanceled).
var ErrCanceled = errors.New("simulation canceled")

// PolicyAccessError means the caller could not read policy metadata or
// documents. This is a failure to simulate, never a decision about the
// simulated actions.
type PolicyAccessError struct {
	PrincipalARN string
	Operation    string
	Err          error
}

func (e *PolicyAccessError) Error() string {
	return fmt.Sprintf("cannot read policies for %s (%s): %v", e.PrincipalARN, e.Operation, e.Err)
}

func (e *PolicyAccessError) Unwrap() error { return e.Err }

// InvalidActionError means an action identifier does not match the
// service:Operation shape. Detected before any network call.
type InvalidActionError struct {
	Action string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action identifier %q: want service:Operation", e.Action)
}

// UnknownOperationError means a method name has no entry in the service's
// operation catalog. Never degraded to a best-guess action string.
type UnknownOperationError struct {
	Service string
	Method  string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("no catalog entry for operation %q on service %q", e.Method, e.Service)
}

// UnsynthesizableParameterError means a required request field has no safe
// placeholder value. Reported, never guessed.
type UnsynthesizableParameterError struct {
	Service   string
	Operation string
	Parameter string
	Reason    string
}

func (e *UnsynthesizableParameterError) Error() string {
	return fmt.Sprintf("cannot synthesize parameter %q for %s.%s: %s", e.Parameter, e.Service, e.Operation, e.Reason)
}

// SimulationUnavailableError means the simulation endpoint kept throttling
// or failing past the bounded retry count.
type SimulationUnavailableError struct {
	Attempts int
	Err      error
}

func (e *SimulationUnavailableError) Error() string {
	return fmt.Sprintf("simulation unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SimulationUnavailableError) Unwrap() error { return e.Err }
