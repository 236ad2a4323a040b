// Package testutil provides helpers for generating test images.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// CreateTestImage returns a solid-color NRGBA image with a few
// contrasting rectangles so encoders have non-trivial content.
func CreateTestImage(width, height int) image.Image {
	img := imaging.New(width, height, color.NRGBA{240, 240, 240, 255})

	blocks := []struct {
		c color.NRGBA
		r image.Rectangle
	}{
		{color.NRGBA{200, 60, 60, 255}, image.Rect(width/8, height/8, width/2, height/2)},
		{color.NRGBA{60, 140, 80, 255}, image.Rect(width/2, height/4, 7*width/8, 3*height/4)},
	}
	for _, b := range blocks {
		for y := b.r.Min.Y; y < b.r.Max.Y; y++ {
			for x := b.r.Min.X; x < b.r.Max.X; x++ {
				if x >= 0 && y >= 0 && x < width && y < height {
					img.SetNRGBA(x, y, b.c)
				}
			}
		}
	}
	return img
}

// PNGBytes encodes a test image as PNG.
func PNGBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, CreateTestImage(width, height)))
	return buf.Bytes()
}

// JPEGBytes encodes a test image as JPEG.
func JPEGBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, CreateTestImage(width, height), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// CorruptImageBytes returns bytes that no image decoder accepts.
func CorruptImageBytes() []byte {
	return []byte("this is definitely not an image")
}
