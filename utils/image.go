package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

const DefaultJpegQuality = 90

// EncodeImage writes img as png or jpeg. Quality outside 1..100 falls back
// to DefaultJpegQuality and is ignored for png.
func EncodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "", "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	case "jpeg", "jpg":
		if quality < 1 || quality > 100 {
			quality = DefaultJpegQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid format '%s', supported formats are 'png' and 'jpeg'", format)
	}
	return buf.Bytes(), nil
}
