package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
	"github.com/teslashibe/focuscam/internal/imgutil"
	"github.com/teslashibe/focuscam/pkg/camera"
	"github.com/teslashibe/focuscam/pkg/focus"
)

// Strategy produces one photo from a live track.
type Strategy interface {
	// Page returns the page id the strategy serves.
	Page() string

	// Reacquire reports whether the strategy needs a freshly opened track.
	// Such strategies own the track and stop it when done.
	Reacquire() bool

	// Capture produces a photo.
	Capture(ctx context.Context, track camera.Track) (*Photo, error)
}

// Screenshot encodes the current live frame unchanged.
type Screenshot struct {
	Quality int
}

func (s *Screenshot) Page() string    { return PageScreenshot }
func (s *Screenshot) Reacquire() bool { return false }

func (s *Screenshot) Capture(ctx context.Context, track camera.Track) (*Photo, error) {
	frame, err := track.GrabFrame(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}
	return encodePhoto(PageScreenshot, frame, s.Quality)
}

// SquareCrop crops the live frame to a square whose side is the frame's
// shorter dimension, at full resolution.
type SquareCrop struct {
	Quality int
	Smart   bool // place the square by content instead of centring it
}

func (s *SquareCrop) Page() string    { return PageSquare }
func (s *SquareCrop) Reacquire() bool { return false }

func (s *SquareCrop) Capture(ctx context.Context, track camera.Track) (*Photo, error) {
	frame, err := track.GrabFrame(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}

	cropped, err := s.crop(ctx, frame)
	if err != nil {
		return nil, err
	}
	return encodePhoto(PageSquare, cropped, s.Quality)
}

func (s *SquareCrop) crop(ctx context.Context, img image.Image) (image.Image, error) {
	side := squareSide(img.Bounds())
	if !s.Smart {
		return imaging.CropCenter(img, side, side), nil
	}

	type cropResult struct {
		rect image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		analyzer := smartcrop.NewAnalyzer(resizer{filter: imaging.Linear})
		rect, err := analyzer.FindBestCrop(img, side, side)
		resultChan <- cropResult{rect: rect, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			return nil, fmt.Errorf("finding best crop: %w", res.err)
		}
		return imaging.Crop(img, res.rect), nil
	}
}

func squareSide(b image.Rectangle) int {
	if b.Dx() < b.Dy() {
		return b.Dx()
	}
	return b.Dy()
}

// resizer implements smartcrop's Resizer with imaging.
type resizer struct {
	filter imaging.ResampleFilter
}

func (r resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.filter)
}

// AutoFocus runs a focus sweep on a freshly acquired track.
type AutoFocus struct {
	Sweeper *focus.Sweeper
}

func (a *AutoFocus) Page() string    { return PageAutoFocus }
func (a *AutoFocus) Reacquire() bool { return true }

func (a *AutoFocus) Capture(ctx context.Context, track camera.Track) (*Photo, error) {
	res, err := a.Sweeper.Capture(ctx, track)
	if err != nil {
		return nil, err
	}

	p := NewPhoto(PageAutoFocus, res.ContentType, res.Image, res.Width, res.Height)
	p.Focus = res
	return p, nil
}

func encodePhoto(page string, img image.Image, quality int) (*Photo, error) {
	data, err := imgutil.EncodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return NewPhoto(page, "image/jpeg", data, b.Dx(), b.Dy()), nil
}
