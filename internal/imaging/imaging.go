// Package imaging post-processes captured screenshots: downscaling to keep
// payloads small for model consumption, and re-encoding to the requested
// format. Capture backends always hand over PNG; everything lossy happens
// here, in one place.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	// DefaultScale halves each dimension; UI text stays legible while the
	// payload drops to roughly a quarter.
	DefaultScale = 0.5

	DefaultJPEGQuality = 80
)

// Options controls screenshot post-processing.
type Options struct {
	Format  string  // "png" or "jpg" (default png)
	Quality int     // JPEG quality 1-100 (ignored for PNG)
	Scale   float64 // 0.1-1.0, default DefaultScale
}

// Process decodes pngData, scales it, and re-encodes it in the requested
// format. Returns the encoded bytes and their MIME type.
func Process(pngData []byte, opts Options) ([]byte, string, error) {
	scale := opts.Scale
	if scale <= 0 || scale > 1.0 {
		scale = DefaultScale
	}

	src, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, "", fmt.Errorf("decode capture: %w", err)
	}

	img := src
	if scale < 1.0 {
		b := src.Bounds()
		w := int(float64(b.Dx()) * scale)
		h := int(float64(b.Dy()) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	switch opts.Format {
	case "jpg", "jpeg":
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	case "", "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported format: %q (use png or jpg)", opts.Format)
	}
}
