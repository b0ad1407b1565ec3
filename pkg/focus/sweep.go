package focus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/focuscam/internal/imgutil"
	"github.com/teslashibe/focuscam/pkg/camera"
)

// Config holds sweep tuning.
type Config struct {
	SettleDelay time.Duration // Wait after each lens move before grabbing
	JPEGQuality int           // Quality of the live-frame fallback encode
}

// DefaultConfig returns production sweep defaults.
func DefaultConfig() Config {
	return Config{
		SettleDelay: 150 * time.Millisecond,
		JPEGQuality: 92,
	}
}

// ConfigFromCamera derives sweep settings from the camera config.
func ConfigFromCamera(c camera.Config) Config {
	return Config{
		SettleDelay: c.SettleDelay(),
		JPEGQuality: c.Quality,
	}
}

// Strategy is how focus was handled for a capture.
type Strategy string

const (
	StrategyContinuous  Strategy = "continuous"
	StrategySingleShot  Strategy = "single-shot"
	StrategyManualSweep Strategy = "manual-sweep"
	StrategyNone        Strategy = "none"
)

// Source is where the final image came from.
type Source string

const (
	SourceNative Source = "native" // the device's own still capture
	SourceFrame  Source = "frame"  // a re-encoded live frame
)

// Result is the outcome of one capture.
type Result struct {
	Image       []byte   `json:"-"`
	ContentType string   `json:"content_type"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Source      Source   `json:"source"`
	Strategy    Strategy `json:"strategy"`

	// Best is the winning evaluation; nil unless the manual sweep ran.
	Best        *Evaluation  `json:"best,omitempty"`
	Evaluations []Evaluation `json:"evaluations,omitempty"`

	// Skipped lists candidate distances whose frame grab failed.
	Skipped []float64 `json:"skipped,omitempty"`

	// StepErrors are the best-effort steps the device rejected.
	StepErrors []error `json:"-"`
}

// Event reports a state transition.
type Event struct {
	State    State     `json:"state"`
	Distance *float64  `json:"distance,omitempty"`
	Score    *float64  `json:"score,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// Sweeper runs focus captures against a camera track.
type Sweeper struct {
	cfg    Config
	logger *slog.Logger

	// OnState is called synchronously on every state transition.
	OnState func(Event)
}

// NewSweeper creates a sweeper. A nil logger uses slog.Default().
func NewSweeper(cfg Config, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{cfg: cfg, logger: logger}
}

// run tracks one capture's state.
type run struct {
	sw    *Sweeper
	state State
	res   *Result
}

func (r *run) to(next State, ev Event) {
	if !r.state.CanTransition(next) {
		r.sw.logger.Error("invalid focus state transition", "from", r.state, "to", next)
	}
	r.state = next
	ev.State = next
	ev.Time = time.Now()
	r.sw.logger.Debug("focus state", "state", next)
	if r.sw.OnState != nil {
		r.sw.OnState(ev)
	}
}

// bestEffort records a rejected step and lets the capture continue.
func (r *run) bestEffort(step string, err error) {
	if err == nil {
		return
	}
	se := &StepError{Step: step, Err: err}
	r.res.StepErrors = append(r.res.StepErrors, se)
	r.sw.logger.Warn("focus step rejected", "step", step, "error", err)
}

// Capture focuses, takes one photo and stops the track. The track is
// stopped on every return path, including failure and cancellation.
// The device is left at the winning focus distance.
func (s *Sweeper) Capture(ctx context.Context, track camera.Track) (res *Result, err error) {
	r := &run{sw: s, state: StateIdle, res: &Result{Strategy: StrategyNone}}

	defer func() {
		if stopErr := track.Stop(); stopErr != nil {
			s.logger.Warn("stop track", "error", stopErr)
		}
		switch {
		case err == nil:
			r.to(StateDone, Event{})
		case errors.Is(err, ErrCancelled):
			r.to(StateCancelled, Event{Error: err.Error()})
		default:
			r.to(StateFailed, Event{Error: err.Error()})
		}
	}()

	r.to(StateFocusing, Event{})
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	if err := s.focus(ctx, track, r); err != nil {
		return nil, err
	}

	r.to(StateCapturing, Event{})
	if err := s.capture(ctx, track, r); err != nil {
		return nil, err
	}

	s.logger.Info("focus capture complete",
		"strategy", r.res.Strategy,
		"source", r.res.Source,
		"bytes", len(r.res.Image),
		"skipped", len(r.res.Skipped),
		"rejected_steps", len(r.res.StepErrors),
	)
	return r.res, nil
}

// focus picks a focus strategy in priority order: single-shot, continuous,
// manual sweep, none.
func (s *Sweeper) focus(ctx context.Context, track camera.Track, r *run) error {
	caps := track.Capabilities()
	if caps.Supports(camera.FocusContinuous) {
		r.bestEffort("apply continuous focus",
			track.ApplyConstraints(ctx, camera.FocusSettings{FocusMode: camera.FocusContinuous}))
	}

	photoCaps, err := track.PhotoCapabilities(ctx)
	if err != nil {
		r.bestEffort("query photo capabilities", err)
		photoCaps = camera.PhotoCapabilities{}
	}
	if err := cancelled(ctx); err != nil {
		return err
	}

	switch {
	case photoCaps.Supports(camera.FocusSingleShot):
		r.res.Strategy = StrategySingleShot
		r.bestEffort("apply single-shot focus",
			track.SetPhotoOptions(ctx, camera.FocusSettings{FocusMode: camera.FocusSingleShot}))
		return nil

	case caps.Supports(camera.FocusContinuous) || photoCaps.Supports(camera.FocusContinuous):
		r.res.Strategy = StrategyContinuous
		return nil
	}

	min, max, ok := photoCaps.FocusRange()
	if !ok {
		s.logger.Debug("no manual focus range, capturing without focus adjustment")
		return nil
	}

	r.res.Strategy = StrategyManualSweep
	return s.sweep(ctx, track, r, min, max, photoCaps.FocusDistanceStep)
}

func (s *Sweeper) sweep(ctx context.Context, track camera.Track, r *run, min, max float64, step *float64) error {
	s.logger.Debug("manual focus sweep", "min", min, "max", max, "step", step)

	for _, d := range Candidates(min, max) {
		if err := cancelled(ctx); err != nil {
			return err
		}
		r.to(StateScoring, Event{Distance: camera.Float(d)})

		r.bestEffort(fmt.Sprintf("set focus distance %g", d), track.SetPhotoOptions(ctx, camera.Manual(d)))
		if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
			return err
		}

		frame, err := track.GrabFrame(ctx)
		if err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return cerr
			}
			s.logger.Warn("frame grab failed, skipping candidate", "distance", d, "error", err)
			r.res.Skipped = append(r.res.Skipped, d)
			continue
		}

		score := Sharpness(frame)
		r.res.Evaluations = append(r.res.Evaluations, Evaluation{Distance: d, Score: score})
		s.logger.Debug("candidate scored", "distance", d, "score", score)
	}

	best, ok := SelectBest(r.res.Evaluations)
	if !ok {
		return ErrNoFrames
	}
	r.res.Best = &best

	r.to(StateApplying, Event{Distance: camera.Float(best.Distance), Score: camera.Float(best.Score)})
	r.bestEffort("apply best focus distance", track.SetPhotoOptions(ctx, camera.Manual(best.Distance)))
	return nil
}

// capture takes the native photo, falling back to encoding a live frame.
func (s *Sweeper) capture(ctx context.Context, track camera.Track, r *run) error {
	if err := cancelled(ctx); err != nil {
		return err
	}

	data, err := track.TakePhoto(ctx)
	if err == nil && len(data) > 0 {
		r.res.Image = data
		r.res.Source = SourceNative
		r.res.ContentType, r.res.Width, r.res.Height = imgutil.Describe(data)
		return nil
	}
	if err == nil {
		err = errors.New("empty photo")
	}
	if cerr := cancelled(ctx); cerr != nil {
		return cerr
	}
	r.bestEffort("take photo", err)

	frame, err := track.GrabFrame(ctx)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return cerr
		}
		return fmt.Errorf("%w: fallback frame: %v", ErrAcquisition, err)
	}

	encoded, err := imgutil.EncodeJPEG(frame, s.cfg.JPEGQuality)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAcquisition, err)
	}

	r.res.Image = encoded
	r.res.Source = SourceFrame
	r.res.ContentType = "image/jpeg"
	r.res.Width, r.res.Height = frame.Bounds().Dx(), frame.Bounds().Dy()
	return nil
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return cancelled(ctx)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return cancelled(ctx)
	case <-t.C:
		return nil
	}
}
