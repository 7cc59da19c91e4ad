//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// AdaptiveThreshold binarizes img with OpenCV's Gaussian adaptive threshold.
//
// Built with the gocv tag. The default build uses a native implementation
// with the same window, offset and inverted polarity. Returns ErrEmptyImage
// for zero-sized input and an error when OpenCV cannot wrap the pixels.
func AdaptiveThreshold(img *image.Gray, blockSize, offset int) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	packed := make([]byte, width*height)
	for y := 0; y < height; y++ {
		copy(packed[y*width:(y+1)*width], img.Pix[y*img.Stride:y*img.Stride+width])
	}

	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, packed)
	if err != nil {
		return nil, fmt.Errorf("adaptive threshold: %w", err)
	}
	defer src.Close()

	out := gocv.NewMat()
	defer out.Close()

	gocv.AdaptiveThreshold(src, &out, 255, gocv.AdaptiveThresholdGaussian,
		gocv.ThresholdBinaryInv, blockSize, float32(offset))

	if out.Empty() {
		return nil, fmt.Errorf("adaptive threshold: opencv returned an empty image")
	}

	copy(dst.Pix, out.ToBytes())
	return dst, nil
}
