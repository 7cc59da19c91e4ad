//go:build !gocv

package imaging

import "image"

// AdaptiveThreshold binarizes img against a Gaussian-weighted local mean.
//
// For every pixel the mean of its blockSize x blockSize neighbourhood is
// computed with a Gaussian window (borders replicated). The output is
// inverted: pixels brighter than mean-offset become 0 and the rest become
// 255, so dark glyphs on a light panel end up as white foreground. Because
// the threshold follows the local mean, dark and light UI panels in the
// same capture are handled independently.
//
// blockSize must be odd and greater than 1; even values are bumped to the
// next odd number. The only error is ErrEmptyImage for zero-sized input.
func AdaptiveThreshold(img *image.Gray, blockSize, offset int) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return gaussianThreshold(img, blockSize, offset), nil
}
