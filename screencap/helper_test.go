package screencap

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFrame encodes a screencap raw buffer. Pixel components never contain
// '\r' or '\n' so CRLF rewriting only touches the header.
func rawFrame(width, height int, padding int) []byte {
	buf := make([]byte, 8+padding, 8+padding+4*width*height)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(width))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			buf = append(buf, byte(0x20+x), byte(0x40+y), byte(0x60+x+y), 255)
		}
	}
	return buf
}

func mangle(buf []byte) []byte {
	return bytes.ReplaceAll(buf, []byte("\n"), []byte("\r\n"))
}

func TestDecodeRaw_RoundTrip(t *testing.T) {
	for _, padding := range []int{0, 4, 16} {
		frame, err := DecodeRaw(rawFrame(4, 4, padding))
		require.NoError(t, err)
		assert.Equal(t, 4, frame.Width)
		assert.Equal(t, 4, frame.Height)

		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				b, g, r := frame.BGR(x, y)
				assert.Equal(t, byte(0x20+x), r)
				assert.Equal(t, byte(0x40+y), g)
				assert.Equal(t, byte(0x60+x+y), b)
			}
		}
	}
}

func TestDecodeRaw_CopiesPixels(t *testing.T) {
	buf := rawFrame(2, 2, 0)
	frame, err := DecodeRaw(buf)
	require.NoError(t, err)

	for i := range buf {
		buf[i] = 0
	}
	_, _, r := frame.BGR(1, 1)
	assert.Equal(t, byte(0x21), r)
}

func TestDecodeRaw_Failures(t *testing.T) {
	flipped := rawFrame(4, 4, 0)
	flipped[len(flipped)-1] = 254

	tests := []struct {
		name string
		buf  []byte
	}{
		{"final alpha not opaque", flipped},
		{"shorter than header", []byte{1, 2, 3}},
		{"zero width", rawFrame(0, 4, 0)},
		{"truncated pixels", rawFrame(4, 4, 0)[:40]},
		{"dimensions overflow size", append([]byte{0, 0, 0, 0x80, 0, 0, 0, 0x80}, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)},
		{"max dimensions", append([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 0xff, 0xff, 0xff, 0xff)},
		{"header only", []byte{1, 0, 0, 0, 1, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRaw(tt.buf)
			assert.ErrorIs(t, err, ErrIncompleteFrame)

			var h Helper
			assert.NotPanics(t, func() {
				_, err = h.Process(tt.buf, DecodeRaw)
			})
			assert.Error(t, err)
		})
	}
}

func TestHelper_LineEndingStateMachine(t *testing.T) {
	// width 10 is '\n', so CRLF rewriting breaks the header
	plain := rawFrame(10, 1, 0)
	mangled := mangle(plain)
	require.NotEqual(t, plain, mangled)

	_, err := DecodeRaw(mangled)
	require.Error(t, err)

	var h Helper
	assert.Equal(t, UnknownYet, h.EndOfLine())

	frame, err := h.Process(mangled, DecodeRaw)
	require.NoError(t, err)
	assert.Equal(t, 10, frame.Width)
	assert.Equal(t, CRLF, h.EndOfLine())

	frame, err = h.Process(mangled, DecodeRaw)
	require.NoError(t, err)
	assert.Equal(t, 10, frame.Width)
	assert.Equal(t, CRLF, h.EndOfLine())

	frame, err = h.Process(plain, DecodeRaw)
	require.NoError(t, err, "a plain payload demotes the state instead of failing")
	assert.Equal(t, 10, frame.Width)
	assert.Equal(t, LF, h.EndOfLine())
}

func TestHelper_PlainPayloadLocksLF(t *testing.T) {
	var h Helper
	_, err := h.Process(rawFrame(4, 4, 0), DecodeRaw)
	require.NoError(t, err)
	assert.Equal(t, LF, h.EndOfLine())

	frame, err := h.Process(mangle(rawFrame(10, 1, 0)), DecodeRaw)
	require.NoError(t, err, "LF transport that starts rewriting is re-detected")
	assert.Equal(t, 10, frame.Width)
	assert.Equal(t, CRLF, h.EndOfLine())
}

func TestHelper_Errors(t *testing.T) {
	var h Helper
	_, err := h.Process(nil, DecodeRaw)
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = h.Process([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, DecodeRaw)
	assert.ErrorIs(t, err, ErrIncompleteFrame)
	assert.Equal(t, UnknownYet, h.EndOfLine())
}

func TestDecodeGzip(t *testing.T) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	require.NoError(t, err)
	_, err = w.Write(rawFrame(4, 4, 0))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	frame, err := DecodeGzip(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Width)

	_, err = DecodeGzip([]byte("not gzip"))
	assert.Error(t, err)
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.RGBA{R: uint8(80 * x), G: uint8(100 * y), B: 30, A: 255})
		}
	}
	return img
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	frame, err := DecodePNG(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, frame.Width)
	assert.Equal(t, 2, frame.Height)
	b, g, r := frame.BGR(2, 1)
	assert.Equal(t, []uint8{30, 100, 160}, []uint8{b, g, r})

	_, err = DecodePNG(buf.Bytes()[:buf.Len()-1])
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = DecodePNG(buf.Bytes()[1:])
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeJPEG_Preamble(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), &jpeg.Options{Quality: 90}))
	withPreamble := append([]byte("PID: 1234\nINFO: minicap\n"), buf.Bytes()...)

	_, err := DecodeJPEG(withPreamble)
	assert.ErrorIs(t, err, ErrBadMagic)

	frame, err := DecodeJPEG(TrimJPEGPreamble(withPreamble))
	require.NoError(t, err)
	assert.Equal(t, 3, frame.Width)
	assert.Equal(t, 2, frame.Height)

	assert.Equal(t, buf.Bytes(), TrimJPEGPreamble(buf.Bytes()))
}

func TestParseMethod(t *testing.T) {
	for _, m := range append(AllMethods(), MethodFastestWay) {
		got, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMethod("rawbynetcat")
	require.NoError(t, err)
	assert.Equal(t, MethodRawByNetcat, got)

	_, err = ParseMethod("Unknown")
	assert.Error(t, err)
	_, err = ParseMethod("screenrecord")
	assert.Error(t, err)
}

func TestNew_EveryMethod(t *testing.T) {
	for _, m := range append(AllMethods(), MethodFastestWay) {
		s, err := New(m, nil)
		require.NoError(t, err, m.String())
		assert.NotNil(t, s)
	}

	_, err := New(MethodUnknown, nil)
	assert.Error(t, err)
}
