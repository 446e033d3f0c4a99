package trainer

import "errors"

// FailureObjective replaces the best metric when a run is cut short by
// resource exhaustion while a tuner is active.
const FailureObjective = -999.0

// resourceExhaustedError marks a device out-of-memory failure raised by the
// numerical backend.
type resourceExhaustedError struct{ msg string }

func (e *resourceExhaustedError) Error() string { return "resource exhausted: " + e.msg }

// ErrResourceExhausted constructs the error a Model returns when its device
// runs out of memory.
func ErrResourceExhausted(msg string) error { return &resourceExhaustedError{msg: msg} }

// IsResourceExhausted reports whether err (or anything it wraps) is a
// resource exhaustion failure.
func IsResourceExhausted(err error) bool {
	var re *resourceExhaustedError
	return errors.As(err, &re)
}

// emptyPhaseError signals a phase that saw no examples, so no average exists.
type emptyPhaseError struct{ phase string }

func (e *emptyPhaseError) Error() string { return e.phase + " phase saw no examples" }

// IsEmptyPhase reports whether err was caused by an empty data source.
func IsEmptyPhase(err error) bool {
	var ee *emptyPhaseError
	return errors.As(err, &ee)
}
