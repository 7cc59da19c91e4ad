// Package imaging prepares raw screen captures for OCR.
//
// The central entry point is Preprocess, which runs a fixed chain of steps
// over a captured bitmap and returns a binarized image in which text pixels
// are white (255) and everything else is black (0). Each step is also
// exported on its own so callers and tests can inspect intermediate output.
//
// # Preprocessing Chain
//
// The steps always run in this order:
//
//  1. ToGray: ITU-R BT.601 luminance
//  2. ResizeToWidth: Lanczos resample to TargetWidth, keeping aspect ratio
//  3. EnhanceContrast: stretch around mid-gray by ContrastFactor
//  4. Sharpen: fixed 3x3 kernel to restore edges softened by resampling
//  5. AdaptiveThreshold: Gaussian-weighted local mean, inverted polarity
//
// The threshold is computed per pixel from its neighbourhood, so captures
// that mix light and dark panels binarize correctly on both sides. Building
// with the gocv tag replaces the native threshold with OpenCV's.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Regions
// are (x1,y1) inclusive to (x2,y2) exclusive.
//
// # Thread Safety
//
// All preprocessing functions are pure: they never modify their input and
// hold no state. The ImageCache type is safe for concurrent use.
//
// # Error Handling
//
// Zero-sized input yields ErrEmptyImage. Crop regions outside the image or
// with x1 >= x2 or y1 >= y2 are rejected. File errors from LoadImage and
// SavePNG are wrapped with the offending path.
package imaging
