package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrUnknownCriterion = fmt.Errorf("%w: criterion", ErrNotFound)
	ErrUnknownCandidate = fmt.Errorf("%w: candidate", ErrNotFound)

	// Precondition errors (fatal to an analysis run)
	ErrInsufficientInput    = errors.New("insufficient input for analysis")
	ErrInsufficientCriteria = fmt.Errorf("%w: too few non-empty criteria", ErrInsufficientInput)
	ErrEmptyUniverse        = fmt.Errorf("%w: no candidates", ErrInsufficientInput)

	// Structural errors
	ErrDuplicateCandidate = errors.New("duplicate candidate identifier")
	ErrDuplicateCriterion = errors.New("duplicate criterion key")
	ErrNotSubset          = errors.New("criterion member is not in the universal set")
	ErrInvalidTable       = errors.New("invalid relation table")
	ErrInvalidCriterion   = errors.New("invalid criterion")
	ErrInvalidThreshold   = errors.New("invalid membership threshold")

	// Determinism errors
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
	ErrHistoryAppendOnly   = errors.New("history is append-only")
	ErrHistoryFull         = errors.New("history limit reached")
)

// MinCriteria is the smallest number of non-empty criteria an analysis accepts.
const MinCriteria = 2

// PreconditionError is the structured "insufficient input" result of an
// analysis that must not proceed.
type PreconditionError struct {
	Kind   error // ErrInsufficientCriteria or ErrEmptyUniverse
	Reason string
	Have   int
	Need   int
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

func (e *PreconditionError) Unwrap() error {
	return e.Kind
}

// NewInsufficientCriteriaError reports that fewer than MinCriteria non-empty
// criteria are available.
func NewInsufficientCriteriaError(have int) error {
	return &PreconditionError{
		Kind:   ErrInsufficientCriteria,
		Reason: fmt.Sprintf("insufficient criteria: need at least %d non-empty criteria, found %d", MinCriteria, have),
		Have:   have,
		Need:   MinCriteria,
	}
}

// NewEmptyUniverseError reports an analysis without candidates.
func NewEmptyUniverseError() error {
	return &PreconditionError{
		Kind:   ErrEmptyUniverse,
		Reason: "empty universe: the table has no candidates to rank",
		Have:   0,
		Need:   1,
	}
}

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewSubsetError(criterion, member string) error {
	return fmt.Errorf("%w: %s contains %q", ErrNotSubset, criterion, member)
}

func NewFingerprintError(want, got string) error {
	return fmt.Errorf("%w: recorded %s, recomputed %s", ErrFingerprintMismatch, want, got)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrInsufficientInput)
}

func IsStructuralError(err error) bool {
	return errors.Is(err, ErrDuplicateCandidate) ||
		errors.Is(err, ErrDuplicateCriterion) ||
		errors.Is(err, ErrNotSubset) ||
		errors.Is(err, ErrInvalidTable) ||
		errors.Is(err, ErrInvalidCriterion)
}

// AsPreconditionError extracts the structured precondition failure, if any.
func AsPreconditionError(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
