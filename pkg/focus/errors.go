package focus

import (
	"errors"
	"fmt"
)

// Sentinel errors for focus sweeps.
var (
	// ErrCancelled is returned when the caller's context ends mid-capture.
	// It wraps the context error.
	ErrCancelled = errors.New("focus: capture cancelled")

	// ErrNoFrames is returned when no sweep candidate produced a frame.
	ErrNoFrames = errors.New("focus: no frame acquired for any candidate")

	// ErrAcquisition is returned when no image could be obtained at all.
	ErrAcquisition = errors.New("focus: image acquisition failed")
)

// StepError records a best-effort step that the device rejected.
// The capture carries on after a StepError.
type StepError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("focus: %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err means no image was produced, as opposed
// to a cancelled capture.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNoFrames) || errors.Is(err, ErrAcquisition)
}
