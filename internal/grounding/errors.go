package grounding

import (
	"errors"
	"fmt"

	"github.com/ppiankov/groundcheck/internal/model"
)

var (
	// ErrCapability matches every *CapabilityError
	ErrCapability = errors.New("capability failure")

	// ErrDegenerateInput matches every *DegenerateInputError
	ErrDegenerateInput = errors.New("degenerate input")
)

// CapabilityError reports a failed call to an external capability
// (embedding or structured QA). Batches that hit one return no partial results.
type CapabilityError struct {
	Capability string // "embedding" or "qa"
	Op         string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s capability failed (%s): %v", e.Capability, e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCapability) hold
func (e *CapabilityError) Is(target error) bool { return target == ErrCapability }

// DegenerateInputError reports input the similarity math cannot score,
// such as an empty answer or a zero-norm embedding
type DegenerateInputError struct {
	Granularity model.Granularity // Empty when the claim itself is degenerate
	Reason      string
	Err         error
}

func (e *DegenerateInputError) Error() string {
	if e.Granularity == "" {
		return "degenerate input: " + e.Reason
	}
	return fmt.Sprintf("degenerate input at %s granularity: %s", e.Granularity, e.Reason)
}

func (e *DegenerateInputError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDegenerateInput) hold
func (e *DegenerateInputError) Is(target error) bool { return target == ErrDegenerateInput }

func embeddingError(op string, err error) error {
	return &CapabilityError{Capability: "embedding", Op: op, Err: err}
}

func qaError(op string, err error) error {
	return &CapabilityError{Capability: "qa", Op: op, Err: err}
}
