package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createImageWithText renders black text on white and scales it up by an
// integer factor so Tesseract has enough pixels per glyph.
func createImageWithText(t *testing.T, text string, scale int) *image.RGBA {
	t.Helper()

	w, h := len(text)*7+40, 40
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

// requireTesseract skips the test unless the engine and the given language
// models are installed.
func requireTesseract(t *testing.T, langs ...string) {
	t.Helper()

	info := Info()
	if !info.Available {
		t.Skipf("Tesseract not available: %s", info.Error)
	}
	for _, l := range langs {
		found := false
		for _, have := range info.Languages {
			if have == l {
				found = true
			}
		}
		if !found {
			t.Skipf("Tesseract language %q not installed", l)
		}
	}
}

func TestTesseract_Recognize(t *testing.T) {
	requireTesseract(t, "eng")

	cfg, err := NewConfig("eng")
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	img := createImageWithText(t, "HELLO WORLD", 4)
	text, err := NewTesseract().Recognize(context.Background(), img, cfg)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !strings.Contains(strings.ToUpper(text), "HELLO") {
		t.Errorf("expected HELLO in %q", text)
	}
}

func TestTesseract_Timeout(t *testing.T) {
	requireTesseract(t, "eng")

	cfg, _ := NewConfig("eng")
	cfg.Timeout = time.Nanosecond

	img := createImageWithText(t, "SLOW", 4)
	_, err := NewTesseract().Recognize(context.Background(), img, cfg)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Error("timeout should match ErrRecognitionFailed")
	}
}

func TestTesseract_CancelledContext(t *testing.T) {
	requireTesseract(t)

	cfg, _ := NewConfig("eng")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTesseract().Recognize(ctx, createImageWithText(t, "X", 2), cfg)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

func TestTesseract_InvalidConfig(t *testing.T) {
	cfg := Config{Language: "klingon", Timeout: time.Second}

	_, err := NewTesseract().Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)), cfg)
	if !errors.Is(err, ErrEngineFailure) {
		t.Errorf("got %v, want ErrEngineFailure", err)
	}
}

func TestRecognizerFunc(t *testing.T) {
	var r Recognizer = RecognizerFunc(func(_ context.Context, _ image.Image, cfg Config) (string, error) {
		return "lang=" + cfg.Language, nil
	})

	cfg, _ := NewConfig("")
	got, err := r.Recognize(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if got != "lang=spa" {
		t.Errorf("got %q, want lang=spa", got)
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if info.Backend != "gosseract" {
		t.Errorf("Backend: got %q", info.Backend)
	}
	if info.Available && info.Version == "" {
		t.Error("available engine should report a version")
	}
	if !info.Available && info.Error == "" {
		t.Error("unavailable engine should report an error")
	}
}
