package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// GocvOpener opens V4L2/AVFoundation cameras through OpenCV.
type GocvOpener struct {
	v4l2Root string
	logger   *slog.Logger
}

// NewGocvOpener creates an opener backed by gocv.VideoCapture.
func NewGocvOpener(logger *slog.Logger) *GocvOpener {
	if logger == nil {
		logger = slog.Default()
	}
	return &GocvOpener{v4l2Root: DefaultV4L2Root, logger: logger}
}

// Name returns "gocv".
func (o *GocvOpener) Name() string { return "gocv" }

// Enumerate lists attached cameras from sysfs.
func (o *GocvOpener) Enumerate(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return EnumerateV4L2(o.v4l2Root)
}

// Open starts capturing from the numbered device.
func (o *GocvOpener) Open(ctx context.Context, deviceID string, cfg Config) (Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := strconv.Atoi(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid device id %q", ErrNoDevice, deviceID)
	}

	vc, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", ErrNoDevice, id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d did not open", ErrNoDevice, id)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	o.logger.Info("camera opened",
		"device", id,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"af_mode", cfg.AfMode,
	)

	return &gocvTrack{
		vc:     vc,
		frame:  gocv.NewMat(),
		cfg:    cfg,
		logger: o.logger.With("device", id),
	}, nil
}

// gocvTrack drives focus through CAP_PROP_AUTOFOCUS / CAP_PROP_FOCUS.
// OpenCV has no native still capture, so TakePhoto is unsupported and
// callers fall back to encoding a live frame.
type gocvTrack struct {
	mu      sync.Mutex
	vc      *gocv.VideoCapture
	frame   gocv.Mat
	cfg     Config
	stopped bool
	logger  *slog.Logger
}

func (t *gocvTrack) Capabilities() TrackCapabilities {
	caps := TrackCapabilities{
		FocusModes: []FocusMode{FocusManual},
		Width:      &Range{Min: 160, Max: float64(t.cfg.Width)},
		Height:     &Range{Min: 120, Max: float64(t.cfg.Height)},
		FrameRate:  &Range{Min: 1, Max: float64(t.cfg.Framerate)},
	}
	if t.cfg.AfMode == AfModeContinuous {
		caps.FocusModes = append(caps.FocusModes, FocusContinuous)
	}
	return caps
}

func (t *gocvTrack) ApplyConstraints(ctx context.Context, settings FocusSettings) error {
	return t.applyFocus(ctx, settings)
}

func (t *gocvTrack) PhotoCapabilities(ctx context.Context) (PhotoCapabilities, error) {
	if err := ctx.Err(); err != nil {
		return PhotoCapabilities{}, err
	}

	switch t.cfg.AfMode {
	case AfModeAuto:
		return PhotoCapabilities{FocusModes: []FocusMode{FocusSingleShot, FocusManual}}, nil
	case AfModeManual:
		return PhotoCapabilities{
			FocusModes:        []FocusMode{FocusManual},
			MinFocusDistance:  Float(t.cfg.FocusMin),
			MaxFocusDistance:  Float(t.cfg.FocusMax),
			FocusDistanceStep: Float(t.cfg.FocusStep),
		}, nil
	default:
		return PhotoCapabilities{FocusModes: []FocusMode{FocusContinuous}}, nil
	}
}

func (t *gocvTrack) SetPhotoOptions(ctx context.Context, settings FocusSettings) error {
	return t.applyFocus(ctx, settings)
}

func (t *gocvTrack) applyFocus(ctx context.Context, settings FocusSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return ErrTrackStopped
	}

	switch settings.FocusMode {
	case FocusContinuous, FocusSingleShot:
		t.vc.Set(gocv.VideoCaptureAutoFocus, 1)
	case FocusManual:
		t.vc.Set(gocv.VideoCaptureAutoFocus, 0)
		if settings.FocusDistance != nil {
			t.vc.Set(gocv.VideoCaptureFocus, *settings.FocusDistance)
		}
	default:
		return fmt.Errorf("%w: focus mode %q", ErrNotSupported, settings.FocusMode)
	}

	t.logger.Debug("focus applied", "mode", settings.FocusMode, "distance", settings.FocusDistance)
	return nil
}

func (t *gocvTrack) GrabFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil, ErrTrackStopped
	}

	if ok := t.vc.Read(&t.frame); !ok || t.frame.Empty() {
		return nil, ErrFrameUnavailable
	}

	img, err := t.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameUnavailable, err)
	}
	return img, nil
}

func (t *gocvTrack) TakePhoto(ctx context.Context) ([]byte, error) {
	return nil, ErrNotSupported
}

func (t *gocvTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil
	}
	t.stopped = true

	t.frame.Close()
	if err := t.vc.Close(); err != nil {
		return fmt.Errorf("close capture: %w", err)
	}
	t.logger.Info("camera stopped")
	return nil
}
