// Package camera provides the camera device layer for focuscam: the Track
// abstraction over a live device, explicit capability metadata, device
// enumeration, and runtime-configurable camera settings.
package camera

import "time"

// Autofocus modes accepted by Config.AfMode.
const (
	AfModeManual     = "manual"
	AfModeAuto       = "auto"
	AfModeContinuous = "continuous"
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// === Resolution ===
	Width     int `json:"width"`     // Ideal frame width in pixels
	Height    int `json:"height"`    // Ideal frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100

	// FacingMode selects front or rear cameras where the backend can tell.
	// Values: "environment", "user"
	FacingMode string `json:"facing_mode"`

	// === Autofocus ===
	// AfMode controls which focus capabilities the device advertises.
	// "continuous" → continuous AF on the track, "auto" → single-shot AF
	// on photo capture, "manual" → manual focus distance range.
	AfMode string `json:"af_mode"`

	// Manual focus distance range in device units (V4L2 cameras
	// usually report 0-255 with a step of 5).
	FocusMin  float64 `json:"focus_min"`
	FocusMax  float64 `json:"focus_max"`
	FocusStep float64 `json:"focus_step"`

	// FocusSettleMs is how long to wait after moving the lens before
	// grabbing a frame.
	FocusSettleMs int `json:"focus_settle_ms"`

	// === Preview ===
	PreviewWidth int `json:"preview_width"` // Width of broadcast preview frames
}

// Sensor limits enforced by Validate.
const (
	MaxWidth     = 4608
	MaxHeight    = 3456
	MaxFramerate = 120
	MaxSettleMs  = 5000
)

// DefaultConfig returns the configuration used by the auto-camera page:
// 1080p with manual focus so the focus sweep runs.
func DefaultConfig() Config {
	return Config{
		Width:      1920,
		Height:     1080,
		Framerate:  30,
		Quality:    92,
		FacingMode: "environment",

		AfMode:        AfModeManual,
		FocusMin:      0,
		FocusMax:      255,
		FocusStep:     5,
		FocusSettleMs: 150,

		PreviewWidth: 640,
	}
}

// SettleDelay returns FocusSettleMs as a duration.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.FocusSettleMs) * time.Millisecond
}

// PreviewOrDefaultWidth returns PreviewWidth, or 320 when unset.
func (c Config) PreviewOrDefaultWidth() int {
	if c.PreviewWidth > 0 {
		return c.PreviewWidth
	}
	return 320
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 4608")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 3456")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	validFacing := map[string]bool{"environment": true, "user": true}
	if c.FacingMode != "" && !validFacing[c.FacingMode] {
		errors = append(errors, "facing_mode must be environment or user")
	}

	validAfModes := map[string]bool{AfModeManual: true, AfModeAuto: true, AfModeContinuous: true}
	if c.AfMode != "" && !validAfModes[c.AfMode] {
		errors = append(errors, "af_mode must be manual, auto, or continuous")
	}

	if c.FocusMax < c.FocusMin {
		errors = append(errors, "focus_max must not be below focus_min")
	}
	if c.FocusStep < 0 {
		errors = append(errors, "focus_step must not be negative")
	}
	if c.FocusSettleMs < 0 || c.FocusSettleMs > MaxSettleMs {
		errors = append(errors, "focus_settle_ms must be between 0 and 5000")
	}

	if c.PreviewWidth < 0 || c.PreviewWidth > c.Width {
		errors = append(errors, "preview_width must be between 0 and width")
	}

	return errors
}
