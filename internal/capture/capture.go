package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/ironsheep/textsnap/internal/imaging"
)

// MinSize is the smallest width and height, in pixels, of a usable
// selection. Anything smaller is almost always an accidental click.
const MinSize = 20

var (
	// ErrRegionTooSmall is returned for selections under MinSize on either side.
	ErrRegionTooSmall = errors.New("selected region is too small")

	// ErrNoDisplay is returned when no active display is found.
	ErrNoDisplay = errors.New("no active display")
)

// Region is a screen selection between two corner points in virtual screen
// coordinates. The corners may come in any order, as a mouse drag can go
// in any direction.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Normalize returns r with X1 <= X2 and Y1 <= Y2.
func (r Region) Normalize() Region {
	return Region{
		X1: min(r.X1, r.X2),
		Y1: min(r.Y1, r.Y2),
		X2: max(r.X1, r.X2),
		Y2: max(r.Y1, r.Y2),
	}
}

// Width of the normalized region.
func (r Region) Width() int {
	n := r.Normalize()
	return n.X2 - n.X1
}

// Height of the normalized region.
func (r Region) Height() int {
	n := r.Normalize()
	return n.Y2 - n.Y1
}

// Rect returns the normalized region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	n := r.Normalize()
	return image.Rect(n.X1, n.Y1, n.X2, n.Y2)
}

// Validate returns ErrRegionTooSmall when either side is under MinSize.
func (r Region) Validate() error {
	if r.Width() < MinSize || r.Height() < MinSize {
		return fmt.Errorf("%w: %dx%d (minimum %dx%d)", ErrRegionTooSmall, r.Width(), r.Height(), MinSize, MinSize)
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X1, r.Y1, r.X2, r.Y2)
}

// ParseRegion parses "x1,y1,x2,y2". Corners may be in any order.
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("region %q: want x1,y1,x2,y2", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	return Region{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// Source captures a rectangle of the screen.
type Source func(bounds image.Rectangle) (*image.RGBA, error)

// Screen captures from the real display.
var Screen Source = screenshot.CaptureRect

// Grab validates r and captures it from the screen.
func Grab(r Region) (*image.RGBA, error) {
	return GrabFrom(Screen, r)
}

// GrabFrom validates r and captures it from src.
func GrabFrom(src Source, r Region) (*image.RGBA, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	img, err := src(r.Rect())
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", r, err)
	}
	return img, nil
}

// Displays returns the bounds of every active display.
func Displays() ([]image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplay
	}
	bounds := make([]image.Rectangle, n)
	for i := range bounds {
		bounds[i] = screenshot.GetDisplayBounds(i)
	}
	return bounds, nil
}

// FileName returns the name a capture taken at t is saved under.
func FileName(t time.Time) string {
	return "captura_" + t.Format("20060102_150405") + ".png"
}

// SaveCapture writes img as PNG into dir, named after now, and returns the
// path. dir is created if missing; an empty dir means the working directory.
func SaveCapture(img image.Image, dir string, now time.Time) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	path := filepath.Join(dir, FileName(now))
	if err := imaging.SavePNG(img, path); err != nil {
		return "", err
	}
	return path, nil
}
