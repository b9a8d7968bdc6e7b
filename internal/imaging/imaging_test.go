package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcess_ScalePNG(t *testing.T) {
	data, mime, err := Process(testPNG(t, 100, 60), Options{Scale: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dx(); got != 50 {
		t.Errorf("width = %d, want 50", got)
	}
	if got := img.Bounds().Dy(); got != 30 {
		t.Errorf("height = %d, want 30", got)
	}
}

func TestProcess_FullScaleKeepsDimensions(t *testing.T) {
	data, _, err := Process(testPNG(t, 40, 40), Options{Scale: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 40 {
		t.Errorf("bounds = %v, want 40x40", img.Bounds())
	}
}

func TestProcess_JPEG(t *testing.T) {
	data, mime, err := Process(testPNG(t, 32, 32), Options{Format: "jpg", Quality: 70, Scale: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", mime)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a valid jpeg: %v", err)
	}
}

func TestProcess_BadFormat(t *testing.T) {
	if _, _, err := Process(testPNG(t, 8, 8), Options{Format: "gif"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestProcess_BadInput(t *testing.T) {
	if _, _, err := Process([]byte("not a png"), Options{}); err == nil {
		t.Error("expected decode error")
	}
}

func TestProcess_TinyImageNeverZero(t *testing.T) {
	data, _, err := Process(testPNG(t, 3, 3), Options{Scale: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() < 1 || img.Bounds().Dy() < 1 {
		t.Errorf("scaled to empty image: %v", img.Bounds())
	}
}
