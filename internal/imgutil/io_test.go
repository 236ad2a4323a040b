package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("photo.jpg"))
	assert.True(t, IsSupportedImage("photo.JPEG"))
	assert.True(t, IsSupportedImage("scan.tiff"))
	assert.True(t, IsSupportedImage("icon.webp"))
	assert.False(t, IsSupportedImage("document.pdf"))
	assert.False(t, IsSupportedImage("noextension"))
}

func TestIsImageContentType(t *testing.T) {
	assert.True(t, IsImageContentType("image/jpeg"))
	assert.True(t, IsImageContentType("image/png; charset=binary"))
	assert.True(t, IsImageContentType("IMAGE/GIF"))
	assert.False(t, IsImageContentType("application/pdf"))
	assert.False(t, IsImageContentType("text/plain"))
	assert.False(t, IsImageContentType(""))
}

func TestDecodeImage(t *testing.T) {
	img := imaging.New(4, 4, color.NRGBA{10, 20, 30, 255})
	data := encodePNG(t, img)

	decoded, format, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, decoded.Bounds().Dx())

	_, _, err = DecodeImage(nil)
	assert.Error(t, err)

	_, _, err = DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestEncodeJPEG(t *testing.T) {
	img := imaging.New(8, 8, color.NRGBA{200, 100, 50, 255})

	data, err := EncodeJPEG(img, 90)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// JPEG magic bytes
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	decoded, format, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 8, decoded.Bounds().Dx())

	_, err = EncodeJPEG(nil, 90)
	assert.Error(t, err)
}

func TestLoadAndSaveImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.png")

	img := imaging.New(6, 6, color.NRGBA{1, 2, 3, 255})
	require.NoError(t, SaveImage(img, path))

	loaded, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.Bounds().Dx())

	_, err = LoadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	_, err = LoadImage(filepath.Join(dir, "notes.txt"))
	assert.Error(t, err)
}

func TestToDrawable(t *testing.T) {
	img := imaging.New(4, 4, color.NRGBA{10, 10, 10, 255})
	dst := ToDrawable(img)
	dst.Set(0, 0, color.NRGBA{255, 0, 0, 255})

	r, _, _, _ := dst.At(0, 0).RGBA()
	assert.Equal(t, uint32(255), r>>8)
}
