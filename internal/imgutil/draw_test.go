package imgutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.NRGBA{255, 0, 0, 255}

	DrawRect(img, image.Rect(5, 5, 15, 15), red, 1)

	r, _, _, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(255), r>>8, "corner should be drawn")

	r, _, _, _ = img.At(10, 5).RGBA()
	assert.Equal(t, uint32(255), r>>8, "top edge should be drawn")

	r, _, _, _ = img.At(10, 10).RGBA()
	assert.Equal(t, uint32(0), r>>8, "interior should be untouched")
}

func TestDrawRectOutOfBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	// Must not panic on out-of-bounds or empty rects.
	DrawRect(img, image.Rect(-5, -5, 25, 25), color.White, 2)
	DrawRect(img, image.Rect(50, 50, 60, 60), color.White, 1)
	DrawRect(img, image.Rect(3, 3, 3, 3), color.White, 1)
}

func TestFillRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	FillRect(img, image.Rect(2, 2, 5, 5), color.NRGBA{0, 255, 0, 255})

	_, g, _, _ := img.At(3, 3).RGBA()
	assert.Equal(t, uint32(255), g>>8)

	_, g, _, _ = img.At(6, 6).RGBA()
	assert.Equal(t, uint32(0), g>>8)
}

func TestDrawLabel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	DrawLabel(img, image.Rect(10, 30, 60, 80), "leaf 0.91", color.NRGBA{255, 0, 0, 255}, color.White)

	// Background box sits above the rect.
	r, _, _, _ := img.At(12, 25).RGBA()
	assert.Equal(t, uint32(255), r>>8)

	// Empty text is a no-op.
	DrawLabel(img, image.Rect(0, 0, 10, 10), "", color.White, color.Black)
}

func TestDrawLabelNoRoomAbove(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	// Rect at the very top: label drops inside instead of clipping.
	DrawLabel(img, image.Rect(5, 0, 50, 40), "top", color.NRGBA{0, 0, 255, 255}, color.White)

	_, _, b, _ := img.At(7, 2).RGBA()
	assert.Equal(t, uint32(255), b>>8)
}

func TestClassColor(t *testing.T) {
	c0 := ClassColor(0)
	c1 := ClassColor(1)
	assert.NotEqual(t, c0, c1)

	// Cycles beyond palette size and handles negatives.
	assert.Equal(t, c0, ClassColor(len(classPalette)))
	assert.Equal(t, c1, ClassColor(-1))
}
