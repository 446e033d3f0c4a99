package checkpoint

import "errors"

// loadError signals a saved model that exists but cannot be restored into the
// caller's model (corrupt, or a different architecture).
type loadError struct {
	path string
	err  error
}

func (e *loadError) Error() string { return "load model " + e.path + ": " + e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }

// IsLoadError reports whether err was caused by an unreadable saved model.
func IsLoadError(err error) bool {
	var le *loadError
	return errors.As(err, &le)
}

// stateMissingError signals a saved model without a usable stats record.
type stateMissingError struct {
	path string
	err  error
}

func (e *stateMissingError) Error() string {
	return "incomplete checkpoint, stats record unusable: " + e.path + ": " + e.err.Error()
}
func (e *stateMissingError) Unwrap() error { return e.err }

// IsStateMissing reports whether err indicates a model artifact without its stats record.
func IsStateMissing(err error) bool {
	var se *stateMissingError
	return errors.As(err, &se)
}

// ioError wraps directory creation and file write failures.
type ioError struct {
	op  string
	err error
}

func (e *ioError) Error() string { return e.op + ": " + e.err.Error() }
func (e *ioError) Unwrap() error { return e.err }

// IsIOError reports whether err is a filesystem failure raised by this package.
func IsIOError(err error) bool {
	var ie *ioError
	return errors.As(err, &ie)
}
