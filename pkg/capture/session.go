package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/teslashibe/focuscam/pkg/camera"
)

// Session is the exclusive owner of at most one camera track. Opening a
// device or starting a capture that needs a fresh track stops the current
// track first. Captures and opens are serialised; each one cancels the
// capture in flight or waiting before it.
//
// A track acquired by a reacquiring strategy belongs to that capture
// alone: it is never exposed through Frame or Capabilities.
type Session struct {
	opener  camera.Opener
	cameras *camera.Manager
	logger  *slog.Logger

	mu       sync.Mutex
	track    camera.Track // live track shared with previews
	deviceID string
	inflight context.CancelCauseFunc
	gen      uint64

	// run is held by whoever is using or replacing the track.
	run sync.Mutex
}

// NewSession creates a session for devices from opener, configured by cameras.
func NewSession(opener camera.Opener, cameras *camera.Manager, deviceID string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		opener:   opener,
		cameras:  cameras,
		deviceID: deviceID,
		logger:   logger.With("backend", opener.Name()),
	}
}

// DeviceID returns the selected device.
func (s *Session) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

// Active reports whether a live track is open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track != nil
}

// supersede cancels the registered capture, if any.
func (s *Session) supersede() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil {
		s.inflight(ErrSuperseded)
		s.inflight = nil
	}
}

// Open selects deviceID and starts streaming from it. An empty deviceID
// reopens the selected device. A capture in flight is cancelled and
// waited for, then the current track is stopped before the new one is
// acquired.
func (s *Session) Open(ctx context.Context, deviceID string) error {
	s.supersede()

	s.run.Lock()
	defer s.run.Unlock()

	s.mu.Lock()
	if deviceID == "" {
		deviceID = s.deviceID
	}
	s.stopLocked()
	s.deviceID = deviceID
	s.mu.Unlock()

	track, err := s.opener.Open(ctx, deviceID, s.cameras.GetConfig())
	if err != nil {
		return fmt.Errorf("open device %s: %w", deviceID, err)
	}

	s.mu.Lock()
	s.track = track
	s.mu.Unlock()

	s.logger.Info("camera session opened", "device", deviceID)
	return nil
}

// Close cancels any capture and stops the live track. It is safe to call
// Close multiple times.
func (s *Session) Close() error {
	s.supersede()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Session) stopLocked() error {
	if s.track == nil {
		return nil
	}
	err := s.track.Stop()
	s.track = nil
	if err != nil {
		s.logger.Warn("stop track", "error", err)
	}
	return err
}

// Frame grabs a frame from the live track, for previews. It returns
// ErrNoTrack when no live track is open, including while a reacquiring
// capture owns the camera.
func (s *Session) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()

	if track == nil {
		return nil, ErrNoTrack
	}
	return track.GrabFrame(ctx)
}

// Capabilities reports the live track's capability metadata.
func (s *Session) Capabilities(ctx context.Context) (camera.TrackCapabilities, camera.PhotoCapabilities, error) {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()

	if track == nil {
		return camera.TrackCapabilities{}, camera.PhotoCapabilities{}, ErrNoTrack
	}
	photo, err := track.PhotoCapabilities(ctx)
	if err != nil {
		// Photo-level metadata is optional.
		photo = camera.PhotoCapabilities{}
	}
	return track.Capabilities(), photo, nil
}

// Capture runs strat. The capture registers itself before waiting for
// its turn, so a newer Capture, Open or Close cancels it whether it is
// running or still queued. Reacquiring strategies get a private track,
// opened after the live one has been stopped, and stopped when they
// finish.
func (s *Session) Capture(ctx context.Context, strat Strategy) (*Photo, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	if s.inflight != nil {
		s.inflight(ErrSuperseded)
	}
	s.gen++
	gen := s.gen
	s.inflight = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.gen == gen {
			s.inflight = nil
		}
		s.mu.Unlock()
	}()

	s.run.Lock()
	defer s.run.Unlock()

	if err := superseded(ctx, ctx.Err()); err != nil {
		s.logger.Debug("capture superseded before it started", "page", strat.Page())
		return nil, err
	}

	track, err := s.acquire(ctx, strat.Reacquire())
	if err != nil {
		return nil, err
	}
	if strat.Reacquire() {
		// Stop is idempotent; strategies may already have stopped it.
		defer track.Stop()
	}

	s.logger.Info("capture started", "page", strat.Page(), "device", s.DeviceID())
	photo, err := strat.Capture(ctx, track)
	if err != nil {
		err = superseded(ctx, err)
		s.logger.Warn("capture failed", "page", strat.Page(), "error", err)
		return nil, err
	}

	s.logger.Info("capture complete", "page", strat.Page(), "bytes", photo.Size,
		"width", photo.Width, "height", photo.Height)
	return photo, nil
}

// acquire returns the track a capture runs on. Callers hold s.run.
func (s *Session) acquire(ctx context.Context, private bool) (camera.Track, error) {
	s.mu.Lock()
	deviceID := s.deviceID
	if s.track != nil && !private {
		track := s.track
		s.mu.Unlock()
		return track, nil
	}
	s.stopLocked()
	s.mu.Unlock()

	track, err := s.opener.Open(ctx, deviceID, s.cameras.GetConfig())
	if err != nil {
		return nil, superseded(ctx, fmt.Errorf("open device %s: %w", deviceID, err))
	}
	if !private {
		s.mu.Lock()
		s.track = track
		s.mu.Unlock()
	}
	return track, nil
}

// superseded tags err with ErrSuperseded when ctx was cancelled by a
// newer request.
func superseded(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), ErrSuperseded) && !errors.Is(err, ErrSuperseded) {
		return fmt.Errorf("%w: %w", ErrSuperseded, err)
	}
	return err
}
