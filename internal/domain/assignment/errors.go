package assignment

import (
	"errors"
	"fmt"
)

// Failure kinds returned by the assignment engine. Callers branch on
// these with errors.Is; bulk operations swallow ErrAlreadyAssigned
// during forward transfer and escalate everything else.
var (
	// ErrNotProvider: the person has no active, role-bound provider record.
	ErrNotProvider = errors.New("person is not a provider")
	// ErrRoleNotSupported: the provider's role does not support the
	// relationship type.
	ErrRoleNotSupported = errors.New("provider role does not support relationship type")
	// ErrInvalidRelationshipType: the type is not a provider/patient
	// relationship type (not supported by any role).
	ErrInvalidRelationshipType = errors.New("not a provider/patient relationship type")
	// ErrAlreadyAssigned: an open interval for the triple already exists.
	ErrAlreadyAssigned = errors.New("patient is already assigned to provider")
	// ErrNotAssigned: no open interval for the triple exists.
	ErrNotAssigned = errors.New("patient is not assigned to provider")
	// ErrSameProvider: transfer source and destination are the same person.
	ErrSameProvider = errors.New("source provider is the same as destination provider")
	// ErrTypeNotFound: the relationship type does not exist.
	ErrTypeNotFound = errors.New("relationship type not found")
	// ErrNoRoles: a provider query was given an empty role set.
	ErrNoRoles = errors.New("roles cannot be empty")
	// ErrIdentifierRequired: a provider record needs an identifier.
	ErrIdentifierRequired = errors.New("provider identifier is required")
)

// ConsistencyError reports a state the engine's invariants rule out:
// more than one open interval for a triple, a non-patient on the
// patient side of an interval, or an "impossible" failure surfacing
// from a bulk loop. It is never recovered locally — by the time it is
// observed the invariant has already been broken elsewhere.
type ConsistencyError struct {
	Reason string
	Err    error
}

func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("consistency violation: %s: %v", e.Reason, e.Err)
	}
	return "consistency violation: " + e.Reason
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

func consistencyf(err error, format string, args ...interface{}) *ConsistencyError {
	return &ConsistencyError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// IsConsistencyError reports whether err is (or wraps) a fatal
// internal-consistency failure.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
