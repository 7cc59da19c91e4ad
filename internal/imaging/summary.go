package imaging

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// CaptureSummary describes a raw capture before preprocessing.
//
// It is informational only: nothing in the preprocessing chain reads it.
type CaptureSummary struct {
	// Width and Height of the capture in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Mode is "gray" or "rgb".
	Mode string `json:"mode"`

	// Background is the most frequent colour, quantized to steps of 16,
	// formatted as "#rrggbb".
	Background string `json:"background"`

	// BackgroundShare is the fraction (0-1) of pixels in the background bucket.
	BackgroundShare float64 `json:"background_share"`

	// DarkBackground is true when the background's CIE L* is below 50,
	// i.e. the capture is most likely light text on a dark panel.
	DarkBackground bool `json:"dark_background"`
}

// Summarize reports the size, channel mode and dominant background of img.
//
// Colours are bucketed by dropping the low four bits of each component so
// anti-aliasing noise lands in the same bucket as the surface it sits on.
// Returns ErrEmptyImage for zero-sized input.
func Summarize(img image.Image) (*CaptureSummary, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	counts := make(map[[3]uint8]int)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			key := [3]uint8{
				uint8(r>>8) / 16 * 16,
				uint8(g>>8) / 16 * 16,
				uint8(b>>8) / 16 * 16,
			}
			counts[key]++
		}
	}

	var best [3]uint8
	bestCount := -1
	for key, n := range counts {
		// Ties resolve to the darker bucket so the result is deterministic.
		if n > bestCount || (n == bestCount && sum3(key) < sum3(best)) {
			best, bestCount = key, n
		}
	}

	c := colorful.Color{
		R: float64(best[0]) / 255,
		G: float64(best[1]) / 255,
		B: float64(best[2]) / 255,
	}
	l, _, _ := c.Lab()

	return &CaptureSummary{
		Width:           bounds.Dx(),
		Height:          bounds.Dy(),
		Mode:            ModeOf(img).String(),
		Background:      c.Hex(),
		BackgroundShare: float64(bestCount) / float64(bounds.Dx()*bounds.Dy()),
		DarkBackground:  l < 0.5,
	}, nil
}

func sum3(k [3]uint8) int {
	return int(k[0]) + int(k[1]) + int(k[2])
}
