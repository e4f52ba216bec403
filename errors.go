package topicseed

import (
	"errors"
	"fmt"
)

var (
	// ErrDependencyUnavailable wraps failures of the embedding or generation backend.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrDegenerateClustering is returned when no threshold yields between 2 and N-1 clusters.
	ErrDegenerateClustering = errors.New("degenerate clustering input")

	ErrMalformedSentence = errors.New("malformed generated sentence")
	ErrLabelImbalance    = errors.New("label sub-population too small to cluster")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// MalformedSentenceError describes a generated sentence rejected at validation.
type MalformedSentenceError struct {
	Index  int
	Reason string
}

func (e *MalformedSentenceError) Error() string {
	return fmt.Sprintf("generated sentence %d: %s", e.Index, e.Reason)
}

func (e *MalformedSentenceError) Unwrap() error { return ErrMalformedSentence }

// LabelImbalanceError reports the label whose sub-population could not be clustered.
type LabelImbalanceError struct {
	Label Label
	Count int
	Err   error
}

func (e *LabelImbalanceError) Error() string {
	return fmt.Sprintf("cluster %q sentences (%d items): %v", e.Label, e.Count, e.Err)
}

func (e *LabelImbalanceError) Is(target error) bool { return target == ErrLabelImbalance }

func (e *LabelImbalanceError) Unwrap() error { return e.Err }

func dependencyError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependencyUnavailable, err)
}
