// Package imgutil holds the image encode and inspection helpers shared by
// the capture, focus and preview code.
package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when a caller passes a quality outside 1-100.
const DefaultJPEGQuality = 95

// EncodeJPEG encodes img as JPEG. Quality outside 1-100 uses
// DefaultJPEGQuality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Describe sniffs the content type of encoded image bytes and, when the
// format is decodable, its pixel size. Width and height are zero for
// formats that cannot be decoded.
func Describe(data []byte) (contentType string, width, height int) {
	contentType = http.DetectContentType(data)
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}
	return contentType, width, height
}
