package imgutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetterboxImage(t *testing.T) {
	t.Run("wide image", func(t *testing.T) {
		img := imaging.New(200, 100, color.NRGBA{255, 0, 0, 255})

		lb, err := LetterboxImage(img, 640)
		require.NoError(t, err)

		assert.Equal(t, 640, lb.Image.Bounds().Dx())
		assert.Equal(t, 640, lb.Image.Bounds().Dy())
		assert.InDelta(t, 3.2, lb.Scale, 1e-9)
		assert.Equal(t, 0.0, lb.PadX)
		assert.Equal(t, 160.0, lb.PadY)
	})

	t.Run("tall image", func(t *testing.T) {
		img := imaging.New(100, 400, color.NRGBA{0, 255, 0, 255})

		lb, err := LetterboxImage(img, 640)
		require.NoError(t, err)

		assert.InDelta(t, 1.6, lb.Scale, 1e-9)
		assert.Equal(t, 240.0, lb.PadX)
		assert.Equal(t, 0.0, lb.PadY)
	})

	t.Run("padding color", func(t *testing.T) {
		img := imaging.New(100, 50, color.NRGBA{255, 255, 255, 255})

		lb, err := LetterboxImage(img, 100)
		require.NoError(t, err)

		// Top rows are padding
		r, g, b, _ := lb.Image.At(50, 2).RGBA()
		assert.Equal(t, uint32(114), r>>8)
		assert.Equal(t, uint32(114), g>>8)
		assert.Equal(t, uint32(114), b>>8)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := LetterboxImage(nil, 640)
		assert.Error(t, err)

		img := imaging.New(10, 10, color.NRGBA{})
		_, err = LetterboxImage(img, 0)
		assert.Error(t, err)
	})
}

func TestLetterboxToOriginal(t *testing.T) {
	img := imaging.New(200, 100, color.NRGBA{255, 0, 0, 255})
	lb, err := LetterboxImage(img, 640)
	require.NoError(t, err)

	// A box covering the full padded content maps back to the full image.
	full := NewBox(0, 160, 640, 480)
	orig := lb.ToOriginal(full, 200, 100)
	assert.InDelta(t, 0, orig.MinX, 1e-6)
	assert.InDelta(t, 0, orig.MinY, 1e-6)
	assert.InDelta(t, 200, orig.MaxX, 1e-6)
	assert.InDelta(t, 100, orig.MaxY, 1e-6)

	// Boxes in the padding clamp to image bounds.
	pad := NewBox(0, 0, 640, 100)
	orig = lb.ToOriginal(pad, 200, 100)
	assert.GreaterOrEqual(t, orig.MinY, 0.0)
}

func TestNormalizeImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{0, 255, 0, 255})
	img.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	img.Set(1, 1, color.NRGBA{0, 0, 0, 255})

	tensor, w, h, err := NormalizeImage(img)
	require.NoError(t, err)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	require.Len(t, tensor, 3*2*2)

	// Red pixel at (0,0): R channel plane first
	assert.InDelta(t, 1.0, tensor[0], 0.01)
	assert.InDelta(t, 0.0, tensor[4], 0.01)
	assert.InDelta(t, 0.0, tensor[8], 0.01)

	// Green pixel at (1,0)
	assert.InDelta(t, 0.0, tensor[1], 0.01)
	assert.InDelta(t, 1.0, tensor[5], 0.01)

	// Blue pixel at (0,1)
	assert.InDelta(t, 1.0, tensor[10], 0.01)
}

func TestNormalizeImageNil(t *testing.T) {
	_, _, _, err := NormalizeImage(nil)
	assert.Error(t, err)

	var procErr *ImageProcessingError
	assert.ErrorAs(t, err, &procErr)
	assert.Equal(t, "normalize", procErr.Operation)
}
