package focus

import (
	"image"

	"github.com/disintegration/imaging"
)

// Rec. 601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Luminance returns 0.299·R + 0.587·G + 0.114·B for 8-bit channels.
func Luminance(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// Sharpness scores a frame by the population variance of its per-pixel
// luminance. A uniform frame scores 0; more contrast scores higher.
// An empty frame scores 0.
func Sharpness(img image.Image) float64 {
	px := toNRGBA(img)
	w, h := px.Rect.Dx(), px.Rect.Dy()
	count := w * h
	if count == 0 {
		return 0
	}

	var mean float64
	for y := 0; y < h; y++ {
		row := px.Pix[y*px.Stride : y*px.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			mean += Luminance(row[i], row[i+1], row[i+2])
		}
	}
	mean /= float64(count)

	var variance float64
	for y := 0; y < h; y++ {
		row := px.Pix[y*px.Stride : y*px.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			d := Luminance(row[i], row[i+1], row[i+2]) - mean
			variance += d * d
		}
	}
	return variance / float64(count)
}

// toNRGBA returns img as non-premultiplied RGBA, the layout a canvas
// readback produces.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return imaging.Clone(img)
}
