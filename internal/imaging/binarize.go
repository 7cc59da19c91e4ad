package imaging

import (
	"image"
	"math"
)

// gaussianThreshold is the native adaptive threshold. For every pixel the
// mean of its blockSize x blockSize neighbourhood is computed with a
// Gaussian window (borders replicated); pixels brighter than mean-offset
// become 0 and the rest 255.
func gaussianThreshold(img *image.Gray, blockSize, offset int) *image.Gray {
	if blockSize%2 == 0 {
		blockSize++
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	mean := gaussianMean(img, width, height, blockSize)

	dst := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+width]
		m := mean[y*width : (y+1)*width]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+width]
		for x := range out {
			if int(src[x])-int(m[x]) > -offset {
				out[x] = 0
			} else {
				out[x] = 255
			}
		}
	}
	return dst
}

// gaussianSigma derives the standard deviation from the window size the same
// way OpenCV does when sigma is left at zero.
func gaussianSigma(size int) float64 {
	return 0.3*(float64(size-1)*0.5-1) + 0.8
}

// gaussianKernel1D returns a normalized 1-D Gaussian of the given odd size.
func gaussianKernel1D(size int) []float64 {
	sigma := gaussianSigma(size)
	radius := size / 2
	kernel := make([]float64, size)

	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianMean blurs img with a separable Gaussian window and returns the
// result rounded to 8-bit, row-major. Out-of-range taps read the nearest
// edge pixel.
func gaussianMean(img *image.Gray, width, height, size int) []uint8 {
	kernel := gaussianKernel1D(size)
	radius := size / 2

	horiz := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width]
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += float64(row[clamp(x+k-radius, 0, width-1)]) * w
			}
			horiz[y*width+x] = sum
		}
	}

	mean := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += horiz[clamp(y+k-radius, 0, height-1)*width+x] * w
			}
			mean[y*width+x] = uint8(math.Min(255, math.Max(0, math.Round(sum))))
		}
	}
	return mean
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
