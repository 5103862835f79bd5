package screencap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/utils"
)

// EndOfLine is the line ending convention the shell transport was found to use.
type EndOfLine int

const (
	UnknownYet EndOfLine = iota
	LF
	CRLF
)

func (e EndOfLine) String() string {
	switch e {
	case LF:
		return "LF"
	case CRLF:
		return "CRLF"
	default:
		return "UnknownYet"
	}
}

var (
	ErrEmptyData       = errors.New("screencap returned no data")
	ErrIncompleteFrame = errors.New("raw frame is incomplete")
	ErrBadMagic        = errors.New("image magic mismatch")

	pngHead  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	pngTail  = []byte{'I', 'E', 'N', 'D', 0xae, 0x42, 0x60, 0x82}
	jpegHead = []byte{0xff, 0xd8, 0xff}
	jpegTail = []byte{0xff, 0xd9}

	crlf = []byte("\r\n")
	lf   = []byte("\n")
)

// Decoder turns a captured buffer into a frame.
type Decoder func(buf []byte) (*types.Frame, error)

// Helper decodes captured buffers and remembers whether the transport
// rewrites "\n" as "\r\n". Each strategy owns one.
type Helper struct {
	endOfLine EndOfLine
}

func (h *Helper) EndOfLine() EndOfLine {
	return h.endOfLine
}

// Process decodes buf, correcting CRLF mangling when the plain decode fails.
// A confirmed CRLF transport is cleaned before decoding; if no "\r\n" is
// found the state drops back to LF.
func (h *Helper) Process(buf []byte, decode Decoder) (*types.Frame, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyData
	}

	triedClean := false
	if h.endOfLine == CRLF {
		triedClean = true
		if cleaned, ok := cleanCR(buf); ok {
			buf = cleaned
		} else {
			utils.Info("end of line is CRLF but no \\r\\n found, switching to LF")
			h.endOfLine = LF
		}
	}

	frame, err := decode(buf)
	if err == nil {
		if h.endOfLine == UnknownYet {
			utils.Verbose("end of line is LF")
			h.endOfLine = LF
		}
		return frame, nil
	}

	if triedClean {
		return nil, fmt.Errorf("decode failed after CRLF cleanup: %w", err)
	}

	cleaned, ok := cleanCR(buf)
	if !ok {
		return nil, fmt.Errorf("decode failed and no \\r\\n to clean: %w", err)
	}

	frame, err = decode(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode failed after CRLF cleanup: %w", err)
	}

	if h.endOfLine == UnknownYet {
		utils.Info("end of line is CRLF")
	} else {
		utils.Info("end of line changed to CRLF")
	}
	h.endOfLine = CRLF
	return frame, nil
}

func cleanCR(buf []byte) ([]byte, bool) {
	if !bytes.Contains(buf, crlf) {
		return buf, false
	}
	return bytes.ReplaceAll(buf, crlf, lf), true
}

// DecodeRaw decodes `screencap` raw output: little endian uint32 width and
// height at the head, width*height RGBA pixels at the tail. Bytes between the
// header and the pixels are ignored. A final alpha other than 255 is taken
// as a truncated frame.
func DecodeRaw(buf []byte) (*types.Frame, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrIncompleteFrame, len(buf))
	}

	width := binary.LittleEndian.Uint32(buf[0:4])
	height := binary.LittleEndian.Uint32(buf[4:8])
	pixels := uint64(len(buf)-8) / 4
	if width == 0 || height == 0 || uint64(width) > pixels/uint64(height) {
		return nil, fmt.Errorf("%w: %dx%d in %d bytes", ErrIncompleteFrame, width, height, len(buf))
	}

	size := 4 * int(width) * int(height)
	pix := buf[len(buf)-size:]
	if alpha := pix[len(pix)-1]; alpha != 255 {
		// a translucent last pixel looks exactly like truncation
		utils.Warn("raw frame %dx%d has final alpha %d, treating as incomplete", width, height, alpha)
		return nil, fmt.Errorf("%w: final alpha is %d", ErrIncompleteFrame, alpha)
	}

	frame := types.NewFrame(int(width), int(height))
	for i, j := 0, 0; i < len(pix); i, j = i+4, j+3 {
		frame.Pix[j] = pix[i+2]
		frame.Pix[j+1] = pix[i+1]
		frame.Pix[j+2] = pix[i]
	}
	return frame, nil
}

// DecodeGzip inflates buf and decodes the raw frame inside.
func DecodeGzip(buf []byte) (*types.Frame, error) {
	reader, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("invalid gzip stream: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate: %w", err)
	}
	return DecodeRaw(raw)
}

// DecodePNG decodes a PNG whose head and tail magic are intact.
func DecodePNG(buf []byte) (*types.Frame, error) {
	if !checkHeadTail(buf, pngHead, pngTail) {
		return nil, fmt.Errorf("%w: not a complete png", ErrBadMagic)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return types.FrameFromImage(img), nil
}

// DecodeJPEG decodes a JPEG whose head and tail markers are intact.
func DecodeJPEG(buf []byte) (*types.Frame, error) {
	if !checkHeadTail(buf, jpegHead, jpegTail) {
		return nil, fmt.Errorf("%w: not a complete jpeg", ErrBadMagic)
	}
	img, err := jpeg.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode jpeg: %w", err)
	}
	return types.FrameFromImage(img), nil
}

// TrimJPEGPreamble drops anything before the first start-of-image marker.
func TrimJPEGPreamble(buf []byte) []byte {
	if idx := bytes.Index(buf, jpegHead); idx > 0 {
		return buf[idx:]
	}
	return buf
}

func checkHeadTail(buf, head, tail []byte) bool {
	return len(buf) >= len(head)+len(tail) && bytes.HasPrefix(buf, head) && bytes.HasSuffix(buf, tail)
}
