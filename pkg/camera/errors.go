package camera

import "errors"

// Sentinel errors for camera devices.
var (
	// ErrNoDevice is returned when no usable camera can be opened.
	ErrNoDevice = errors.New("camera: no usable device")

	// ErrNotSupported is returned when a track does not implement an operation.
	ErrNotSupported = errors.New("camera: operation not supported")

	// ErrTrackStopped is returned when using a track after Stop.
	ErrTrackStopped = errors.New("camera: track stopped")

	// ErrFrameUnavailable is returned when the device produced no frame.
	ErrFrameUnavailable = errors.New("camera: frame unavailable")
)
