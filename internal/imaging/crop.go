package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is a rectangle in image pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive).
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts the region to an image.Rectangle without reordering the
// corners, so an inverted region yields an empty rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rectangle{Min: image.Pt(r.X1, r.Y1), Max: image.Pt(r.X2, r.Y2)}
}

// CropRegion copies region out of img into a new image anchored at (0,0).
//
// It stands in for the selection overlay when the source is a screenshot
// file rather than the live screen. The region must lie inside the image
// bounds and be non-empty; minimum-size rules belong to the caller.
func CropRegion(img image.Image, region Region) (*image.NRGBA, error) {
	bounds := img.Bounds()
	rect := region.Rect()

	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			region.X1, region.Y1, region.X2, region.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	return imaging.Crop(img, rect), nil
}
