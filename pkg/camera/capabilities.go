package camera

// FocusMode is a focus behaviour a device may advertise.
type FocusMode string

const (
	FocusContinuous FocusMode = "continuous"
	FocusSingleShot FocusMode = "single-shot"
	FocusManual     FocusMode = "manual"
	FocusNone       FocusMode = "none"
)

// Range is an inclusive numeric capability range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TrackCapabilities is the track-level capability metadata.
// Nil fields mean the device did not report the capability.
type TrackCapabilities struct {
	FocusModes []FocusMode `json:"focus_modes,omitempty"`
	Width      *Range      `json:"width,omitempty"`
	Height     *Range      `json:"height,omitempty"`
	FrameRate  *Range      `json:"frame_rate,omitempty"`
}

// Supports reports whether mode is advertised on the track.
func (c TrackCapabilities) Supports(mode FocusMode) bool {
	return hasMode(c.FocusModes, mode)
}

// PhotoCapabilities is the photo-level capability metadata.
// A nil distance means the device did not report a numeric value, which
// is different from a reported zero.
type PhotoCapabilities struct {
	FocusModes        []FocusMode `json:"focus_modes,omitempty"`
	MinFocusDistance  *float64    `json:"min_focus_distance,omitempty"`
	MaxFocusDistance  *float64    `json:"max_focus_distance,omitempty"`
	FocusDistanceStep *float64    `json:"focus_distance_step,omitempty"`
}

// Supports reports whether mode is advertised for photo capture.
func (c PhotoCapabilities) Supports(mode FocusMode) bool {
	return hasMode(c.FocusModes, mode)
}

// FocusRange returns the manual focus bounds when both are reported.
func (c PhotoCapabilities) FocusRange() (min, max float64, ok bool) {
	if c.MinFocusDistance == nil || c.MaxFocusDistance == nil {
		return 0, 0, false
	}
	return *c.MinFocusDistance, *c.MaxFocusDistance, true
}

// FocusSettings requests a focus mode and, for manual mode, a distance.
// It is used both for track constraints and photo options.
type FocusSettings struct {
	FocusMode     FocusMode `json:"focus_mode"`
	FocusDistance *float64  `json:"focus_distance,omitempty"`
}

// Manual returns settings for manual focus at distance d.
func Manual(d float64) FocusSettings {
	return FocusSettings{FocusMode: FocusManual, FocusDistance: Float(d)}
}

// Float returns a pointer to v, for optional capability fields.
func Float(v float64) *float64 {
	return &v
}

func hasMode(modes []FocusMode, mode FocusMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
