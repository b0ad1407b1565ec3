package camera

import (
	"context"
	"image"
)

// Track is a live video track from a camera the user has already granted.
// Implementations must make Stop idempotent.
type Track interface {
	// Capabilities returns the track-level capability metadata.
	Capabilities() TrackCapabilities

	// ApplyConstraints requests track-level focus behaviour.
	ApplyConstraints(ctx context.Context, settings FocusSettings) error

	// PhotoCapabilities queries photo-level capability metadata.
	PhotoCapabilities(ctx context.Context) (PhotoCapabilities, error)

	// SetPhotoOptions requests photo-level focus behaviour. It returns once
	// the device has accepted the setting.
	SetPhotoOptions(ctx context.Context, settings FocusSettings) error

	// GrabFrame returns the current live frame.
	GrabFrame(ctx context.Context) (image.Image, error)

	// TakePhoto runs the device's native still capture and returns an
	// encoded image. Backends without one return ErrNotSupported.
	TakePhoto(ctx context.Context) ([]byte, error)

	// Stop releases the device. It is safe to call Stop multiple times.
	Stop() error
}

// Opener acquires tracks and lists devices.
type Opener interface {
	// Enumerate lists the video input devices currently attached.
	Enumerate(ctx context.Context) ([]Device, error)

	// Open acquires exclusive use of a device and starts streaming.
	Open(ctx context.Context, deviceID string, cfg Config) (Track, error)

	// Name returns the backend name (e.g., "gocv", "mock").
	Name() string
}
