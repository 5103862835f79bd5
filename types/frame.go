package types

import (
	"image"
	"image/color"
)

// Frame is an owned BGR image, three bytes per pixel, rows packed without padding.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, 3*width*height),
	}
}

// Empty reports whether the frame carries no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) < 3*f.Width*f.Height
}

// BGR returns the blue, green and red components at (x, y).
func (f *Frame) BGR(x, y int) (b, g, r uint8) {
	i := 3 * (y*f.Width + x)
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *Frame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.RGBA{}
	}
	b, g, r := f.BGR(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// FrameFromImage copies any decoded image into a BGR frame.
func FrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	frame := NewFrame(bounds.Dx(), bounds.Dy())

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < frame.Height; y++ {
			row := rgba.Pix[rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := 0; x < frame.Width; x++ {
				src := row[4*x:]
				dst := frame.Pix[3*(y*frame.Width+x):]
				dst[0], dst[1], dst[2] = src[2], src[1], src[0]
			}
		}
		return frame
	}

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
			dst := frame.Pix[3*(y*frame.Width+x):]
			dst[0], dst[1], dst[2] = c.B, c.G, c.R
		}
	}
	return frame
}
