package camera

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/teslashibe/focuscam/internal/imgutil"
)

// MockTrack implements Track for testing and for running without hardware.
// By default it renders a synthetic checkerboard that is sharpest at
// focus distance 0.5 and blurs as the lens moves away from it.
type MockTrack struct {
	// CapabilitiesValue is returned by Capabilities.
	CapabilitiesValue TrackCapabilities

	// PhotoCapabilitiesFunc is called when PhotoCapabilities is invoked.
	PhotoCapabilitiesFunc func(ctx context.Context) (PhotoCapabilities, error)

	// ApplyConstraintsFunc is called when ApplyConstraints is invoked.
	ApplyConstraintsFunc func(ctx context.Context, s FocusSettings) error

	// SetPhotoOptionsFunc is called when SetPhotoOptions is invoked.
	SetPhotoOptionsFunc func(ctx context.Context, s FocusSettings) error

	// GrabFrameFunc renders a frame for the current focus settings.
	GrabFrameFunc func(ctx context.Context, focus FocusSettings) (image.Image, error)

	// TakePhotoFunc is called when TakePhoto is invoked.
	// Nil means the native capture is unsupported.
	TakePhotoFunc func(ctx context.Context, focus FocusSettings) ([]byte, error)

	mu        sync.Mutex
	calls     []MockCall
	focus     FocusSettings
	stopped   bool
	stopCount int
}

// MockCall records a method invocation.
type MockCall struct {
	Method   string
	Settings FocusSettings
	Time     time.Time
}

// NewMockTrack creates a mock track advertising manual focus in [0, 1].
func NewMockTrack() *MockTrack {
	scene := SceneFrame(160, 120, 0.5, 1)
	return &MockTrack{
		CapabilitiesValue: TrackCapabilities{FocusModes: []FocusMode{FocusManual}},
		PhotoCapabilitiesFunc: func(ctx context.Context) (PhotoCapabilities, error) {
			return PhotoCapabilities{
				FocusModes:        []FocusMode{FocusManual},
				MinFocusDistance:  Float(0),
				MaxFocusDistance:  Float(1),
				FocusDistanceStep: Float(0.05),
			}, nil
		},
		GrabFrameFunc: func(ctx context.Context, focus FocusSettings) (image.Image, error) {
			return scene(focus), nil
		},
		TakePhotoFunc: func(ctx context.Context, focus FocusSettings) ([]byte, error) {
			return imgutil.EncodeJPEG(scene(focus), imgutil.DefaultJPEGQuality)
		},
	}
}

// NewMockTrackForConfig creates a mock track whose advertised focus
// capabilities follow cfg.AfMode the same way the gocv backend does.
func NewMockTrackForConfig(cfg Config) *MockTrack {
	m := NewMockTrack()
	span := cfg.FocusMax - cfg.FocusMin
	w := cfg.PreviewOrDefaultWidth()
	h := w * 3 / 4
	if cfg.Width > 0 && cfg.Height > 0 {
		h = w * cfg.Height / cfg.Width
	}
	scene := SceneFrame(w, h, cfg.FocusMin+span/2, span)
	m.GrabFrameFunc = func(ctx context.Context, focus FocusSettings) (image.Image, error) {
		return scene(focus), nil
	}
	m.TakePhotoFunc = func(ctx context.Context, focus FocusSettings) ([]byte, error) {
		return imgutil.EncodeJPEG(scene(focus), cfg.Quality)
	}

	switch cfg.AfMode {
	case AfModeContinuous:
		m.CapabilitiesValue.FocusModes = []FocusMode{FocusManual, FocusContinuous}
		m.PhotoCapabilitiesFunc = func(ctx context.Context) (PhotoCapabilities, error) {
			return PhotoCapabilities{FocusModes: []FocusMode{FocusContinuous}}, nil
		}
	case AfModeAuto:
		m.PhotoCapabilitiesFunc = func(ctx context.Context) (PhotoCapabilities, error) {
			return PhotoCapabilities{FocusModes: []FocusMode{FocusSingleShot, FocusManual}}, nil
		}
	default:
		m.PhotoCapabilitiesFunc = func(ctx context.Context) (PhotoCapabilities, error) {
			return PhotoCapabilities{
				FocusModes:        []FocusMode{FocusManual},
				MinFocusDistance:  Float(cfg.FocusMin),
				MaxFocusDistance:  Float(cfg.FocusMax),
				FocusDistanceStep: Float(cfg.FocusStep),
			}, nil
		}
	}
	return m
}

func (m *MockTrack) record(method string, s FocusSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Settings: s, Time: time.Now()})
}

func (m *MockTrack) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Capabilities returns CapabilitiesValue.
func (m *MockTrack) Capabilities() TrackCapabilities {
	m.record("Capabilities", FocusSettings{})
	return m.CapabilitiesValue
}

// ApplyConstraints calls ApplyConstraintsFunc and tracks the focus state.
func (m *MockTrack) ApplyConstraints(ctx context.Context, s FocusSettings) error {
	m.record("ApplyConstraints", s)
	if m.isStopped() {
		return ErrTrackStopped
	}
	if m.ApplyConstraintsFunc != nil {
		if err := m.ApplyConstraintsFunc(ctx, s); err != nil {
			return err
		}
	}
	m.setFocus(s)
	return nil
}

// PhotoCapabilities calls PhotoCapabilitiesFunc.
func (m *MockTrack) PhotoCapabilities(ctx context.Context) (PhotoCapabilities, error) {
	m.record("PhotoCapabilities", FocusSettings{})
	if m.isStopped() {
		return PhotoCapabilities{}, ErrTrackStopped
	}
	if m.PhotoCapabilitiesFunc != nil {
		return m.PhotoCapabilitiesFunc(ctx)
	}
	return PhotoCapabilities{}, ErrNotSupported
}

// SetPhotoOptions calls SetPhotoOptionsFunc and tracks the focus state.
func (m *MockTrack) SetPhotoOptions(ctx context.Context, s FocusSettings) error {
	m.record("SetPhotoOptions", s)
	if m.isStopped() {
		return ErrTrackStopped
	}
	if m.SetPhotoOptionsFunc != nil {
		if err := m.SetPhotoOptionsFunc(ctx, s); err != nil {
			return err
		}
	}
	m.setFocus(s)
	return nil
}

// GrabFrame calls GrabFrameFunc with the current focus settings.
func (m *MockTrack) GrabFrame(ctx context.Context) (image.Image, error) {
	m.record("GrabFrame", FocusSettings{})
	if m.isStopped() {
		return nil, ErrTrackStopped
	}
	if m.GrabFrameFunc == nil {
		return nil, ErrFrameUnavailable
	}
	return m.GrabFrameFunc(ctx, m.Focus())
}

// TakePhoto calls TakePhotoFunc, or returns ErrNotSupported when unset.
func (m *MockTrack) TakePhoto(ctx context.Context) ([]byte, error) {
	m.record("TakePhoto", FocusSettings{})
	if m.isStopped() {
		return nil, ErrTrackStopped
	}
	if m.TakePhotoFunc == nil {
		return nil, ErrNotSupported
	}
	return m.TakePhotoFunc(ctx, m.Focus())
}

// Stop marks the track stopped. Repeated calls are no-ops.
func (m *MockTrack) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCount++
	m.stopped = true
	return nil
}

func (m *MockTrack) setFocus(s FocusSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focus = s
}

// Focus returns the last focus settings the track accepted.
func (m *MockTrack) Focus() FocusSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focus
}

// Stopped reports whether Stop has been called.
func (m *MockTrack) Stopped() bool {
	return m.isStopped()
}

// StopCount returns how many times Stop was called.
func (m *MockTrack) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCount
}

// Calls returns a copy of the recorded calls.
func (m *MockTrack) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (m *MockTrack) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ManualDistances returns every manual focus distance requested, in order,
// whether or not the device accepted it.
func (m *MockTrack) ManualDistances() []float64 {
	var out []float64
	for _, c := range m.Calls() {
		if c.Settings.FocusMode == FocusManual && c.Settings.FocusDistance != nil {
			out = append(out, *c.Settings.FocusDistance)
		}
	}
	return out
}

// MockOpener implements Opener with mock tracks.
type MockOpener struct {
	// Devices is returned by Enumerate.
	Devices []Device

	// OpenFunc overrides how tracks are created.
	OpenFunc func(ctx context.Context, deviceID string, cfg Config) (*MockTrack, error)

	mu     sync.Mutex
	opened []*MockTrack
}

// NewMockOpener creates an opener with a typical phone camera set.
func NewMockOpener() *MockOpener {
	return &MockOpener{
		Devices: []Device{
			{ID: "0", Label: "Front Camera", Kind: KindVideoInput},
			{ID: "1", Label: "Rear Telephoto Camera", Kind: KindVideoInput},
			{ID: "2", Label: "Back Macro Camera", Kind: KindVideoInput},
			{ID: "3", Label: "Built-in Microphone", Kind: "audioinput"},
		},
	}
}

// Name returns "mock".
func (o *MockOpener) Name() string { return "mock" }

// Enumerate returns Devices.
func (o *MockOpener) Enumerate(ctx context.Context) ([]Device, error) {
	return o.Devices, ctx.Err()
}

// Open returns a new mock track for a known device id.
func (o *MockOpener) Open(ctx context.Context, deviceID string, cfg Config) (Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		track *MockTrack
		err   error
	)
	if o.OpenFunc != nil {
		track, err = o.OpenFunc(ctx, deviceID, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		if !o.known(deviceID) {
			return nil, ErrNoDevice
		}
		track = NewMockTrackForConfig(cfg)
	}

	o.mu.Lock()
	o.opened = append(o.opened, track)
	o.mu.Unlock()
	return track, nil
}

func (o *MockOpener) known(id string) bool {
	for _, d := range o.Devices {
		if d.ID == id && d.Kind == KindVideoInput {
			return true
		}
	}
	return false
}

// Opened returns the tracks handed out so far, oldest first.
func (o *MockOpener) Opened() []*MockTrack {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*MockTrack, len(o.opened))
	copy(out, o.opened)
	return out
}

// SceneFrame returns a renderer for a w×h checkerboard that is sharp at
// focus distance sharpAt and blurs linearly with |d-sharpAt|/span.
// Non-manual focus renders the sharp scene.
func SceneFrame(w, h int, sharpAt, span float64) func(FocusSettings) image.Image {
	base := checkerboard(w, h, 8)
	return func(focus FocusSettings) image.Image {
		if focus.FocusMode != FocusManual || focus.FocusDistance == nil || span <= 0 {
			return base
		}
		sigma := 6 * math.Abs(*focus.FocusDistance-sharpAt) / span
		return imaging.Blur(base, sigma)
	}
}

// SolidFrame returns a w×h frame filled with c.
func SolidFrame(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

func checkerboard(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
