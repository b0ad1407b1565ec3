package focus

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/teslashibe/focuscam/pkg/camera"
)

func testSweeper() *Sweeper {
	return NewSweeper(Config{SettleDelay: 0, JPEGQuality: 90}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// contrastFrame is a 2x2 frame, half black and half gray(level).
// Its sharpness grows with level; level 0 scores 0.
func contrastFrame(level uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		img.SetNRGBA(0, y, color.NRGBA{A: 255})
		img.SetNRGBA(1, y, color.NRGBA{R: level, G: level, B: level, A: 255})
	}
	return img
}

// scriptedTrack returns frames whose contrast depends on the manual focus
// distance. Distances missing from levels fail to grab.
func scriptedTrack(levels map[float64]uint8) *camera.MockTrack {
	m := camera.NewMockTrack()
	m.GrabFrameFunc = func(ctx context.Context, f camera.FocusSettings) (image.Image, error) {
		if f.FocusMode != camera.FocusManual || f.FocusDistance == nil {
			return contrastFrame(50), nil
		}
		lvl, ok := levels[*f.FocusDistance]
		if !ok {
			return nil, camera.ErrFrameUnavailable
		}
		return contrastFrame(lvl), nil
	}
	return m
}

func TestCapture_SelectsSharpest(t *testing.T) {
	tests := []struct {
		name     string
		levels   map[float64]uint8
		wantBest float64
	}{
		{"near sharpest", map[float64]uint8{0: 200, 0.5: 100, 1: 50}, 0},
		{"mid sharpest", map[float64]uint8{0: 50, 0.5: 200, 1: 100}, 0.5},
		{"far sharpest", map[float64]uint8{0: 50, 0.5: 100, 1: 200}, 1},
		{"tie keeps earliest", map[float64]uint8{0: 50, 0.5: 200, 1: 200}, 0.5},
		{"all equal keeps first", map[float64]uint8{0: 90, 0.5: 90, 1: 90}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			track := scriptedTrack(tc.levels)

			res, err := testSweeper().Capture(context.Background(), track)
			if err != nil {
				t.Fatalf("Capture failed: %v", err)
			}
			if res.Strategy != StrategyManualSweep {
				t.Fatalf("strategy = %s, want manual-sweep", res.Strategy)
			}
			if res.Best == nil || res.Best.Distance != tc.wantBest {
				t.Fatalf("best = %+v, want distance %v", res.Best, tc.wantBest)
			}
			if len(res.Evaluations) != CandidateCount {
				t.Errorf("evaluations = %d, want %d", len(res.Evaluations), CandidateCount)
			}

			// Three candidates in order, then the winner re-applied.
			want := []float64{0, 0.5, 1, tc.wantBest}
			if got := track.ManualDistances(); !reflect.DeepEqual(got, want) {
				t.Errorf("manual distances = %v, want %v", got, want)
			}
			if d := track.Focus().FocusDistance; d == nil || *d != tc.wantBest {
				t.Errorf("device left at %v, want %v", d, tc.wantBest)
			}
			if !track.Stopped() {
				t.Error("track not stopped after capture")
			}
		})
	}
}

func TestCapture_SyntheticScene(t *testing.T) {
	track := camera.NewMockTrack()

	res, err := testSweeper().Capture(context.Background(), track)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if res.Best == nil || res.Best.Distance != 0.5 {
		t.Errorf("best = %+v, want the in-focus midpoint", res.Best)
	}
	if res.Source != SourceNative {
		t.Errorf("source = %s, want native", res.Source)
	}
	if res.ContentType != "image/jpeg" {
		t.Errorf("content type = %q", res.ContentType)
	}
	if res.Width != 160 || res.Height != 120 {
		t.Errorf("size = %dx%d, want 160x120", res.Width, res.Height)
	}
}

func TestCapture_SingleShotSkipsSweep(t *testing.T) {
	track := camera.NewMockTrack()
	track.PhotoCapabilitiesFunc = func(context.Context) (camera.PhotoCapabilities, error) {
		return camera.PhotoCapabilities{
			FocusModes:       []camera.FocusMode{camera.FocusSingleShot, camera.FocusManual},
			MinFocusDistance: camera.Float(0),
			MaxFocusDistance: camera.Float(1),
		}, nil
	}

	res, err := testSweeper().Capture(context.Background(), track)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if res.Strategy != StrategySingleShot {
		t.Errorf("strategy = %s, want single-shot", res.Strategy)
	}
	if got := track.ManualDistances(); len(got) != 0 {
		t.Errorf("manual sweep ran: %v", got)
	}
	if track.Focus().FocusMode != camera.FocusSingleShot {
		t.Errorf("focus mode = %s, want single-shot", track.Focus().FocusMode)
	}
}

func TestCapture_ContinuousSkipsSweep(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*camera.MockTrack)
	}{
		{
			name: "track advertises continuous",
			setup: func(m *camera.MockTrack) {
				m.CapabilitiesValue.FocusModes = append(m.CapabilitiesValue.FocusModes, camera.FocusContinuous)
			},
		},
		{
			name: "photo advertises continuous",
			setup: func(m *camera.MockTrack) {
				m.PhotoCapabilitiesFunc = func(context.Context) (camera.PhotoCapabilities, error) {
					return camera.PhotoCapabilities{
						FocusModes:       []camera.FocusMode{camera.FocusContinuous, camera.FocusManual},
						MinFocusDistance: camera.Float(0),
						MaxFocusDistance: camera.Float(1),
					}, nil
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			track := camera.NewMockTrack()
			tc.setup(track)

			res, err := testSweeper().Capture(context.Background(), track)
			if err != nil {
				t.Fatalf("Capture failed: %v", err)
			}
			if res.Strategy != StrategyContinuous {
				t.Errorf("strategy = %s, want continuous", res.Strategy)
			}
			if got := track.ManualDistances(); len(got) != 0 {
				t.Errorf("manual sweep ran: %v", got)
			}
		})
	}
}

func TestCapture_ContinuousRequestedFirst(t *testing.T) {
	track := camera.NewMockTrack()
	track.CapabilitiesValue.FocusModes = []camera.FocusMode{camera.FocusContinuous}

	if _, err := testSweeper().Capture(context.Background(), track); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	calls := track.Calls()
	if len(calls) < 2 || calls[1].Method != "ApplyConstraints" ||
		calls[1].Settings.FocusMode != camera.FocusContinuous {
		t.Errorf("expected continuous constraint right after capability query, got %+v", calls)
	}
}

func TestCapture_MissingRangeNoFocusMutation(t *testing.T) {
	tests := []struct {
		name string
		caps camera.PhotoCapabilities
	}{
		{"no range", camera.PhotoCapabilities{FocusModes: []camera.FocusMode{camera.FocusManual}}},
		{"min only", camera.PhotoCapabilities{MinFocusDistance: camera.Float(0)}},
		{"max only", camera.PhotoCapabilities{MaxFocusDistance: camera.Float(1), FocusDistanceStep: camera.Float(0.1)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			track := camera.NewMockTrack()
			caps := tc.caps
			track.PhotoCapabilitiesFunc = func(context.Context) (camera.PhotoCapabilities, error) {
				return caps, nil
			}

			res, err := testSweeper().Capture(context.Background(), track)
			if err != nil {
				t.Fatalf("Capture failed: %v", err)
			}
			if res.Strategy != StrategyNone {
				t.Errorf("strategy = %s, want none", res.Strategy)
			}
			if n := track.CallCount("SetPhotoOptions"); n != 0 {
				t.Errorf("SetPhotoOptions called %d times, want 0", n)
			}
			if len(res.Image) == 0 {
				t.Error("expected an image")
			}
		})
	}
}

func TestCapture_EveryStepRejected(t *testing.T) {
	rejected := errors.New("NotSupportedError")

	track := camera.NewMockTrack()
	track.CapabilitiesValue.FocusModes = []camera.FocusMode{camera.FocusContinuous}
	track.ApplyConstraintsFunc = func(context.Context, camera.FocusSettings) error { return rejected }
	track.PhotoCapabilitiesFunc = func(context.Context) (camera.PhotoCapabilities, error) {
		return camera.PhotoCapabilities{}, rejected
	}
	track.SetPhotoOptionsFunc = func(context.Context, camera.FocusSettings) error { return rejected }
	track.TakePhotoFunc = func(context.Context, camera.FocusSettings) ([]byte, error) { return nil, rejected }

	res, err := testSweeper().Capture(context.Background(), track)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if res == nil || len(res.Image) == 0 {
		t.Fatal("expected a non-empty image despite every rejection")
	}
	if res.Source != SourceFrame {
		t.Errorf("source = %s, want frame", res.Source)
	}
	if len(res.StepErrors) != 3 {
		t.Errorf("step errors = %d, want 3 (constraint, capabilities, photo)", len(res.StepErrors))
	}
	for _, se := range res.StepErrors {
		if !errors.Is(se, rejected) {
			t.Errorf("step error %v does not wrap the rejection", se)
		}
	}
}

func TestCapture_SweepWithRejectedFocusStillScores(t *testing.T) {
	track := camera.NewMockTrack()
	track.SetPhotoOptionsFunc = func(context.Context, camera.FocusSettings) error {
		return camera.ErrNotSupported
	}

	res, err := testSweeper().Capture(context.Background(), track)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(res.Evaluations) != CandidateCount {
		t.Errorf("evaluations = %d, want %d", len(res.Evaluations), CandidateCount)
	}
	if len(res.StepErrors) != CandidateCount+1 {
		t.Errorf("step errors = %d, want %d", len(res.StepErrors), CandidateCount+1)
	}
}

func TestCapture_TakePhotoFailureFallsBack(t *testing.T) {
	track := camera.NewMockTrack()
	track.TakePhotoFunc = func(context.Context, camera.FocusSettings) ([]byte, error) {
		return nil, errors.New("InvalidStateError")
	}

	res, err := testSweeper().Capture(context.Background(), track)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if res.Source != SourceFrame {
		t.Errorf("source = %s, want frame", res.Source)
	}

	img, format, err := image.Decode(bytes.NewReader(res.Image))
	if err != nil {
		t.Fatalf("fallback image does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %s, want jpeg", format)
	}
	if img.Bounds().Dx() != res.Width || img.Bounds().Dy() != res.Height {
		t.Errorf("decoded %v, result says %dx%d", img.Bounds(), res.Width, res.Height)
	}
}

func TestCapture_SkipsFailedCandidate(t *testing.T) {
	track := scriptedTrack(map[float64]uint8{0: 80, 1: 120})

	res, err := testSweeper().Capture(context.Background(), track)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !reflect.DeepEqual(res.Skipped, []float64{0.5}) {
		t.Errorf("skipped = %v, want [0.5]", res.Skipped)
	}
	if len(res.Evaluations) != 2 {
		t.Errorf("evaluations = %d, want 2", len(res.Evaluations))
	}
	if res.Best.Distance != 1 {
		t.Errorf("best = %v, want 1", res.Best.Distance)
	}
}

func TestCapture_NoFramesFails(t *testing.T) {
	track := scriptedTrack(nil)

	var states []State
	sw := testSweeper()
	sw.OnState = func(ev Event) { states = append(states, ev.State) }

	res, err := sw.Capture(context.Background(), track)
	if !errors.Is(err, ErrNoFrames) {
		t.Fatalf("err = %v, want ErrNoFrames", err)
	}
	if !IsFatal(err) {
		t.Error("ErrNoFrames should be fatal")
	}
	if res != nil {
		t.Error("expected no result")
	}
	if track.CallCount("TakePhoto") != 0 {
		t.Error("photo taken after a sweep with no frames")
	}
	if !track.Stopped() {
		t.Error("track not stopped after failure")
	}
	if states[len(states)-1] != StateFailed {
		t.Errorf("final state = %s, want failed", states[len(states)-1])
	}
}

func TestCapture_FallbackWithoutFrameFails(t *testing.T) {
	track := camera.NewMockTrack()
	track.PhotoCapabilitiesFunc = nil
	track.TakePhotoFunc = nil
	track.GrabFrameFunc = nil

	_, err := testSweeper().Capture(context.Background(), track)
	if !errors.Is(err, ErrAcquisition) {
		t.Fatalf("err = %v, want ErrAcquisition", err)
	}
	if !track.Stopped() {
		t.Error("track not stopped after failure")
	}
}

func TestCapture_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	track := camera.NewMockTrack()
	calls := 0
	track.SetPhotoOptionsFunc = func(context.Context, camera.FocusSettings) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil
	}

	var states []State
	sw := testSweeper()
	sw.OnState = func(ev Event) { states = append(states, ev.State) }

	res, err := sw.Capture(ctx, track)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrCancelled wrapping context.Canceled", err)
	}
	if res != nil {
		t.Error("cancelled capture must not return a partial result")
	}
	if IsFatal(err) {
		t.Error("cancellation is not a fatal acquisition error")
	}
	if track.CallCount("TakePhoto") != 0 {
		t.Error("photo taken after cancellation")
	}
	if len(track.ManualDistances()) != 2 {
		t.Errorf("manual distances = %v, want evaluation to stop after the second", track.ManualDistances())
	}
	if !track.Stopped() {
		t.Error("track not stopped after cancellation")
	}
	if states[len(states)-1] != StateCancelled {
		t.Errorf("final state = %s, want cancelled", states[len(states)-1])
	}
}

func TestCapture_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	track := camera.NewMockTrack()
	if _, err := testSweeper().Capture(ctx, track); !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if track.CallCount("GrabFrame") != 0 {
		t.Error("frames grabbed with a cancelled context")
	}
	if !track.Stopped() {
		t.Error("track not stopped")
	}
}

func TestCapture_StateSequence(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*camera.MockTrack)
		want  []State
	}{
		{
			name:  "manual sweep",
			setup: func(*camera.MockTrack) {},
			want: []State{StateFocusing, StateScoring, StateScoring, StateScoring,
				StateApplying, StateCapturing, StateDone},
		},
		{
			name: "single-shot",
			setup: func(m *camera.MockTrack) {
				m.PhotoCapabilitiesFunc = func(context.Context) (camera.PhotoCapabilities, error) {
					return camera.PhotoCapabilities{FocusModes: []camera.FocusMode{camera.FocusSingleShot}}, nil
				}
			},
			want: []State{StateFocusing, StateCapturing, StateDone},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			track := camera.NewMockTrack()
			tc.setup(track)

			var got []State
			sw := testSweeper()
			sw.OnState = func(ev Event) {
				if ev.Time.IsZero() {
					t.Error("event without timestamp")
				}
				got = append(got, ev.State)
			}

			if _, err := sw.Capture(context.Background(), track); err != nil {
				t.Fatalf("Capture failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("states = %v, want %v", got, tc.want)
			}
		})
	}
}
