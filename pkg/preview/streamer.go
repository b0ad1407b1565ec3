// Package preview streams downscaled live frames from the camera session
// to websocket viewers.
package preview

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/teslashibe/focuscam/internal/imgutil"
	"github.com/teslashibe/focuscam/pkg/capture"
)

// Source supplies live frames. *capture.Session implements it.
type Source interface {
	Frame(ctx context.Context) (image.Image, error)
}

// Sink receives encoded preview frames. *hub.Hub implements it.
type Sink interface {
	BroadcastBinary(data []byte)
	ClientCount() int
}

// Config tunes the streamer.
type Config struct {
	Interval time.Duration // time between frames
	Width    int           // preview width; height keeps the aspect ratio
	Quality  int           // JPEG quality
}

// DefaultConfig returns 10 FPS previews 640 pixels wide.
func DefaultConfig() Config {
	return Config{
		Interval: 100 * time.Millisecond,
		Width:    640,
		Quality:  70,
	}
}

// Streamer polls a Source and broadcasts JPEG frames to a Sink.
type Streamer struct {
	cfg    Config
	source Source
	sink   Sink
	logger *slog.Logger

	// WidthFunc, when set, overrides Config.Width on every frame so
	// runtime camera config changes take effect.
	WidthFunc func() int
}

// NewStreamer creates a streamer.
func NewStreamer(cfg Config, source Source, sink Sink, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Streamer{cfg: cfg, source: source, sink: sink, logger: logger.With("component", "preview")}
}

// Run streams until ctx is done. Frames are only grabbed while someone
// is watching.
func (s *Streamer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("preview streaming started", "interval", s.cfg.Interval)

	var (
		frames     int
		lastErrLog time.Time
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("preview streaming stopped", "frames", frames)
			return nil
		case <-ticker.C:
			if s.sink.ClientCount() == 0 {
				continue
			}

			data, err := s.Frame(ctx)
			if err != nil {
				// No track between captures is normal; log other errors
				// at most every few seconds.
				if !errors.Is(err, capture.ErrNoTrack) && time.Since(lastErrLog) > 5*time.Second {
					s.logger.Warn("preview frame failed", "error", err)
					lastErrLog = time.Now()
				}
				continue
			}

			s.sink.BroadcastBinary(data)
			frames++
			if frames == 1 {
				s.logger.Info("first preview frame sent", "bytes", len(data))
			}
		}
	}
}

// Frame grabs, scales and encodes one preview frame.
func (s *Streamer) Frame(ctx context.Context) ([]byte, error) {
	img, err := s.source.Frame(ctx)
	if err != nil {
		return nil, err
	}

	width := s.cfg.Width
	if s.WidthFunc != nil {
		width = s.WidthFunc()
	}
	if width > 0 && img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Linear)
	}
	return imgutil.EncodeJPEG(img, s.cfg.Quality)
}
