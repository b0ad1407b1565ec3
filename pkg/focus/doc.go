// Package focus picks the sharpest of three manual focus distances before
// taking a still.
//
// A sweep samples the device-reported focus range at its minimum, midpoint
// and maximum, scores one frame per distance by luminance variance, drives
// the lens to the winning distance and captures the photo. Devices that
// focus themselves (continuous or single-shot autofocus) skip the sweep.
//
// Every capability query and focus request is best-effort: a rejection is
// logged and the capture continues. Only the total absence of frames is a
// failure.
//
// Basic usage:
//
//	sw := focus.NewSweeper(focus.DefaultConfig(), logger)
//	res, err := sw.Capture(ctx, track)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("photo.jpg", res.Image, 0o644)
package focus
