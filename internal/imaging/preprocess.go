package imaging

import (
	"errors"
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned when an image has zero width or height.
var ErrEmptyImage = errors.New("image has zero width or height")

// Preprocessing constants tuned for Tesseract on screenshot content.
const (
	// TargetWidth is the canonical width every capture is scaled to.
	TargetWidth = 800

	// ContrastFactor multiplies each pixel's deviation from mid-gray.
	ContrastFactor = 1.5

	// ThresholdBlockSize is the side of the square neighbourhood used by
	// the adaptive threshold. Must be odd.
	ThresholdBlockSize = 31

	// ThresholdOffset is subtracted from the local mean before comparing.
	ThresholdOffset = 2
)

// sharpenKernel is the classic 3x3 sharpen filter, already normalized
// (sum of weights = 1).
var sharpenKernel = []float64{
	-2.0 / 16, -2.0 / 16, -2.0 / 16,
	-2.0 / 16, 32.0 / 16, -2.0 / 16,
	-2.0 / 16, -2.0 / 16, -2.0 / 16,
}

// ChannelMode describes how many colour channels an image carries.
type ChannelMode int

const (
	// Grayscale images carry a single luminance channel.
	Grayscale ChannelMode = iota
	// RGB images carry colour channels.
	RGB
)

// String returns "gray" or "rgb".
func (m ChannelMode) String() string {
	if m == Grayscale {
		return "gray"
	}
	return "rgb"
}

// ModeOf reports the channel mode of img based on its concrete type.
func ModeOf(img image.Image) ChannelMode {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return Grayscale
	}
	return RGB
}

// Preprocessor turns a raw screen capture into a binarized image tuned for OCR.
//
// The zero value is not useful; use DefaultPreprocessor. A Preprocessor holds
// no mutable state and is safe for concurrent use.
type Preprocessor struct {
	TargetWidth    int
	ContrastFactor float64
	BlockSize      int
	Offset         int
}

// DefaultPreprocessor returns a Preprocessor configured with the fixed
// constants of the capture pipeline.
func DefaultPreprocessor() Preprocessor {
	return Preprocessor{
		TargetWidth:    TargetWidth,
		ContrastFactor: ContrastFactor,
		BlockSize:      ThresholdBlockSize,
		Offset:         ThresholdOffset,
	}
}

// Preprocess runs img through the default preprocessing chain.
func Preprocess(img image.Image) (*image.Gray, error) {
	return DefaultPreprocessor().Process(img)
}

// Process runs the preprocessing chain on img and returns a new image.
//
// The steps always run in this order:
//
//  1. Grayscale conversion (ITU-R BT.601 luminance)
//  2. Lanczos resize to the target width, keeping aspect ratio
//  3. Contrast enhancement around mid-gray
//  4. 3x3 sharpen convolution
//  5. Gaussian adaptive threshold, inverted so text is white (255)
//
// The input image is never modified. Every pixel of the result is 0 or 255.
// Zero-sized input yields ErrEmptyImage; the gocv build can also fail in
// OpenCV.
func (p Preprocessor) Process(img image.Image) (*image.Gray, error) {
	gray, err := ToGray(img)
	if err != nil {
		return nil, err
	}

	resized, err := ResizeToWidth(gray, p.TargetWidth)
	if err != nil {
		return nil, err
	}

	contrasted := EnhanceContrast(resized, p.ContrastFactor)
	sharpened := Sharpen(contrasted)

	return AdaptiveThreshold(sharpened, p.BlockSize, p.Offset)
}

// ToGray converts img to an 8-bit luminance image.
func ToGray(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	// imaging.Grayscale returns R=G=B, so any channel is the luminance.
	return grayFromChannel(imaging.Grayscale(img)), nil
}

// ResizeToWidth scales img to width pixels wide. The height is
// round(h * width / w), never less than one pixel.
func ResizeToWidth(img *image.Gray, width int) (*image.Gray, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || width <= 0 {
		return nil, ErrEmptyImage
	}

	height := ScaledHeight(b.Dx(), b.Dy(), width)
	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	return grayFromChannel(resized), nil
}

// ScaledHeight returns the height that keeps the aspect ratio of a
// w x h image scaled to the given width.
func ScaledHeight(w, h, width int) int {
	height := int(math.Round(float64(h) * float64(width) / float64(w)))
	if height < 1 {
		height = 1
	}
	return height
}

// EnhanceContrast multiplies each pixel's distance from mid-gray by factor,
// clamping to [0, 255].
func EnhanceContrast(img *image.Gray, factor float64) *image.Gray {
	return grayFromChannel(adjust.Contrast(img, factor-1))
}

// Sharpen applies a fixed 3x3 sharpen kernel to counter resize blur.
func Sharpen(img *image.Gray) *image.Gray {
	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, sharpenKernel)

	out := convolution.Convolve(img, k, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
	return grayFromChannel(out)
}

// grayFromChannel copies the red channel of an image whose channels are all
// equal into a new Gray image anchored at the origin.
func grayFromChannel(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
			out := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
			for x := range out {
				out[x] = row[x*4]
			}
		}
	case *image.RGBA:
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
			out := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
			for x := range out {
				out[x] = row[x*4]
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				dst.Pix[y*dst.Stride+x] = uint8(r >> 8)
			}
		}
	}

	return dst
}
