package scheduler

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by Run when the batch was cancelled, either via
// Cancel or through the caller's context. Callers must be able to tell "the
// user stopped it" apart from "generation kept failing", so this is a
// distinct sentinel rather than an AggregateError.
var ErrCancelled = errors.New("curriculum generation cancelled")

// AggregateError is returned by Run when one or more days exhausted their
// retry budget. FailedDays is sorted ascending and names every day that never
// produced a plan, so the caller can offer a partial accept or a full retry.
type AggregateError struct {
	FailedDays []int
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("generation failed for %d day(s): %v", len(e.FailedDays), e.FailedDays)
}
