package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	return img
}

func TestEncodeImage(t *testing.T) {
	img := gradient(16, 8)
	tests := []struct {
		name    string
		format  string
		quality int
		decode  func([]byte) (image.Image, error)
	}{
		{"png", "png", 0, func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }},
		{"default format", "", 0, func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }},
		{"jpeg", "jpeg", 80, func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }},
		{"jpg out of range quality", "JPG", 500, func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeImage(img, tt.format, tt.quality)
			require.NoError(t, err)
			out, err := tt.decode(data)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), out.Bounds())
		})
	}

	_, err := EncodeImage(img, "bmp", 0)
	assert.Error(t, err)
}
