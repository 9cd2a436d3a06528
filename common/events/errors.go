package events

import (
	"errors"

	"github.com/lendline/lendline-stack/common/dlq"
)

// Sentinel errors returned by consumer handlers. The dispatcher classifies
// wrapped errors with errors.Is.
var (
	// ErrDecode marks a payload that is not a valid envelope of the expected kind.
	ErrDecode = errors.New("malformed envelope")

	// ErrAlreadyApplied marks a creation event whose entity already exists locally.
	// It is the duplicate outcome, not a failure.
	ErrAlreadyApplied = errors.New("entity already exists")

	// ErrParentNotFound marks an event whose referenced entity is absent locally.
	ErrParentNotFound = errors.New("referenced entity not found")

	// ErrOwnershipMismatch marks a status update whose borrower does not own the target.
	ErrOwnershipMismatch = errors.New("borrower does not own entity")

	// ErrScoring marks a scoring failure after the application replica was stored.
	ErrScoring = errors.New("scoring failed")
)

// Outcome is the processing result of one consumed message.
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeDecode      Outcome = dlq.ClassDecode
	OutcomeReferential Outcome = dlq.ClassReferential
	OutcomeSecurity    Outcome = dlq.ClassSecurity
	OutcomeScoring     Outcome = dlq.ClassScoring
	OutcomeProcessing  Outcome = dlq.ClassProcessing
)

// Classify maps a handler error to its outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrAlreadyApplied):
		return OutcomeDuplicate
	case errors.Is(err, ErrDecode):
		return OutcomeDecode
	case errors.Is(err, ErrOwnershipMismatch):
		return OutcomeSecurity
	case errors.Is(err, ErrParentNotFound):
		return OutcomeReferential
	case errors.Is(err, ErrScoring):
		return OutcomeScoring
	default:
		return OutcomeProcessing
	}
}

// DeadLettered reports whether messages with this outcome go to the dead-letter sink.
func (o Outcome) DeadLettered() bool {
	return o != OutcomeApplied && o != OutcomeDuplicate
}
