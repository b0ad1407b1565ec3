package capture

import "errors"

// Sentinel errors for capture sessions.
var (
	// ErrUnknownPage is returned for a page without a capture strategy.
	ErrUnknownPage = errors.New("capture: unknown page")

	// ErrNoTrack is returned when no camera track is open.
	ErrNoTrack = errors.New("capture: no active camera track")

	// ErrSuperseded is returned to a capture cancelled by a newer one.
	ErrSuperseded = errors.New("capture: superseded by a newer capture")
)
