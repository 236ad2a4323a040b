package imgutil

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// PadColor is the letterbox fill used by YOLO-family models.
var PadColor = color.NRGBA{114, 114, 114, 255}

// Letterbox holds the transform from an original image into a padded
// square model input, needed to map detections back to image space.
type Letterbox struct {
	Image image.Image // Padded square image of side Size
	Size  int         // Model input side length
	Scale float64     // Applied uniform scale factor
	PadX  float64     // Horizontal padding (left), in input pixels
	PadY  float64     // Vertical padding (top), in input pixels
}

// LetterboxImage resizes an image to fit a size x size square while
// preserving aspect ratio, centering it on a gray background.
// Uses Lanczos resampling for high quality.
func LetterboxImage(img image.Image, size int) (Letterbox, error) {
	if img == nil {
		return Letterbox{}, &ImageProcessingError{Operation: "letterbox", Err: errors.New("input image is nil")}
	}
	if size <= 0 {
		return Letterbox{}, &ImageProcessingError{Operation: "letterbox", Err: fmt.Errorf("invalid input size: %d", size)}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return Letterbox{}, &ImageProcessingError{Operation: "letterbox", Err: errors.New("invalid image dimensions")}
	}

	scaleX := float64(size) / float64(width)
	scaleY := float64(size) / float64(height)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	resized := imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)

	background := imaging.New(size, size, PadColor)
	padX := (size - newWidth) / 2
	padY := (size - newHeight) / 2
	padded := imaging.Paste(background, resized, image.Pt(padX, padY))

	return Letterbox{
		Image: padded,
		Size:  size,
		Scale: scale,
		PadX:  float64(padX),
		PadY:  float64(padY),
	}, nil
}

// ToOriginal maps a box in model-input coordinates back to the original
// image space, clamped to the original dimensions.
func (l Letterbox) ToOriginal(b Box, origWidth, origHeight int) Box {
	if l.Scale <= 0 {
		return b
	}
	mapped := Box{
		MinX: (b.MinX - l.PadX) / l.Scale,
		MinY: (b.MinY - l.PadY) / l.Scale,
		MaxX: (b.MaxX - l.PadX) / l.Scale,
		MaxY: (b.MaxY - l.PadY) / l.Scale,
	}
	return mapped.Clamp(0, 0, float64(origWidth), float64(origHeight))
}

// NormalizeImage normalizes an image for detection inference:
// - Converts to RGB (removes alpha channel)
// - Scales pixel values from 0-255 to 0-1
// - Reorders channels from RGB to NCHW format for ONNX.
func NormalizeImage(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	// Convert to NRGBA to ensure we have RGB channels
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	// NCHW tensor: [1, 3, height, width]
	tensor := make([]float32, 3*height*width)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := nrgba.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			// Convert from 0-65535 to 0-255, then to 0-1
			idx := y*width + x
			tensor[idx] = float32(r>>8) / 255.0
			tensor[height*width+idx] = float32(g>>8) / 255.0
			tensor[2*height*width+idx] = float32(b>>8) / 255.0
		}
	}

	return tensor, width, height, nil
}
