package capture

import (
	"log/slog"

	"github.com/teslashibe/focuscam/pkg/camera"
	"github.com/teslashibe/focuscam/pkg/focus"
)

// Page ids of the navigation shell.
const (
	PageViewer     = "viewer"
	PageScreenshot = "camera"
	PageSquare     = "react-camera"
	PageAutoFocus  = "auto-camera"
)

// PageInfo describes a navigation entry.
type PageInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Captures    bool   `json:"captures"`
}

// Pages returns the navigation shell in display order.
func Pages() []PageInfo {
	return []PageInfo{
		{ID: PageViewer, Title: "Camera info", Description: "List cameras and their capabilities"},
		{ID: PageScreenshot, Title: "Photo mode", Description: "Capture the live frame as shown", Captures: true},
		{ID: PageSquare, Title: "Square photo", Description: "Centre-crop the live frame to a square", Captures: true},
		{ID: PageAutoFocus, Title: "Auto camera", Description: "Sweep focus and keep the sharpest", Captures: true},
	}
}

// Options tune the strategies built by NewStrategy.
type Options struct {
	SmartCrop bool              // square page: crop around content instead of the centre
	OnState   func(focus.Event) // auto-camera page: sweep state callback
	Logger    *slog.Logger
}

// NewStrategy returns the capture strategy for a page.
func NewStrategy(page string, cfg camera.Config, opts Options) (Strategy, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch page {
	case PageScreenshot:
		return &Screenshot{Quality: cfg.Quality}, nil
	case PageSquare:
		return &SquareCrop{Quality: 100, Smart: opts.SmartCrop}, nil
	case PageAutoFocus:
		sw := focus.NewSweeper(focus.ConfigFromCamera(cfg), logger.With("page", page))
		sw.OnState = opts.OnState
		return &AutoFocus{Sweeper: sw}, nil
	default:
		return nil, ErrUnknownPage
	}
}
