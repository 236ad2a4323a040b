package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Register decoders for the formats accepted on upload.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality is the encoding quality for processed images.
const DefaultJPEGQuality = 90

// supportedExtensions lists the file extensions the CLI accepts.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// IsSupportedImage reports whether a filename has a recognized image
// extension.
func IsSupportedImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedExtensions[ext]
}

// IsImageContentType reports whether a MIME content type declares an
// image payload.
func IsImageContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	return strings.HasPrefix(mediaType, "image/")
}

// DecodeImage decodes raw image bytes using the registered decoders.
// Returns the decoded image and its format name.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errors.New("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// LoadImage loads an image from a file path.
func LoadImage(path string) (image.Image, error) {
	if !IsSupportedImage(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	img, _, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// EncodeJPEG encodes an image as JPEG with the given quality (1-100).
// A quality of 0 uses DefaultJPEGQuality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveImage writes an image to a file, choosing the encoder from the
// file extension.
func SaveImage(img image.Image, path string) error {
	if img == nil {
		return errors.New("input image is nil")
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image to %s: %w", path, err)
	}
	return nil
}

// ToDrawable returns a mutable RGBA copy of an image for annotation.
func ToDrawable(img image.Image) draw.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	return dst
}
