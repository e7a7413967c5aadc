// Package imagenorm shrinks oversized uploads so they fit provider payload limits.
package imagenorm

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

const (
	bytesPerMB         = 1024 * 1024
	defaultJPEGQuality = 85
	maxPasses          = 5
	// DefaultMaxPixels bounds the decoded size of an image the normalizer will touch.
	DefaultMaxPixels = 40_000_000
	// each pass aims slightly under the threshold so encoder overhead does not force another pass
	safetyFactor = 0.95
)

// Normalizer downsizes images above a size threshold. It is stateless and safe for concurrent use.
type Normalizer struct {
	maxBytes    int64
	jpegQuality int
	maxPixels   int64
}

// New returns a Normalizer. maxMB <= 0 disables resizing; maxPixels <= 0 uses DefaultMaxPixels.
func New(maxMB float64, jpegQuality int, maxPixels int64) *Normalizer {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = defaultJPEGQuality
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Normalizer{
		maxBytes:    int64(maxMB * bytesPerMB),
		jpegQuality: jpegQuality,
		maxPixels:   maxPixels,
	}
}

// MaxBytes is the configured threshold in bytes.
func (n *Normalizer) MaxBytes() int64 {
	return n.maxBytes
}

// Normalize returns data unchanged when it fits the threshold. Otherwise it decodes the
// image, scales both sides by sqrt(threshold/size) and re-encodes with the source
// format. Decode or encode failures return the original bytes: resizing is best effort.
// Images whose header declares more than the pixel budget are never decoded and pass
// through unchanged. The returned MIME type describes the returned bytes.
func (n *Normalizer) Normalize(data []byte, mimeType string) ([]byte, string) {
	if n == nil || n.maxBytes <= 0 || int64(len(data)) <= n.maxBytes {
		return data, mimeType
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || !n.withinPixelBudget(cfg.Width, cfg.Height) {
		return data, mimeType
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mimeType
	}

	// every pass rescales the decoded source so rounding does not compound
	out := data
	scale := 1.0
	for pass := 0; pass < maxPasses && int64(len(out)) > n.maxBytes; pass++ {
		ratio := math.Sqrt(float64(n.maxBytes) / float64(len(out)))
		if pass > 0 {
			ratio *= safetyFactor
		}
		scale *= ratio
		encoded, err := n.encode(resize(src, scale), format)
		if err != nil {
			return data, mimeType
		}
		out = encoded
	}
	return out, mimeForFormat(format, mimeType)
}

func (n *Normalizer) withinPixelBudget(w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	return int64(w)*int64(h) <= n.maxPixels
}

// resize scales img by ratio, preserving the aspect ratio. Sides never drop below 1px.
func resize(img image.Image, ratio float64) image.Image {
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*ratio)))
	h := max(1, int(math.Round(float64(b.Dy())*ratio)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func (n *Normalizer) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return buf.Bytes(), nil
}

func mimeForFormat(format, fallback string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return fallback
	}
}
