package screencap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
)

var (
	// ErrNotInitialized is returned by Screencap before a successful Init.
	ErrNotInitialized = errors.New("screencap is not initialized")

	// ErrNoMethod is returned when no strategy produced a frame.
	ErrNoMethod = errors.New("no screencap method available")
)

// Screencap captures frames from the device.
type Screencap interface {
	unit.Unit

	Init(width, height int) error
	SetWH(width, height int) error
	Screencap() (*types.Frame, error)
	Deinit()
}

// Method names a capture strategy.
type Method int

const (
	MethodUnknown Method = iota
	MethodRawByNetcat
	MethodRawWithGzip
	MethodEncode
	MethodEncodeToFileAndPull
	MethodMinicapDirect
	MethodMinicapStream
	MethodFastestWay
)

var methodNames = map[Method]string{
	MethodUnknown:             "Unknown",
	MethodRawByNetcat:         "RawByNetcat",
	MethodRawWithGzip:         "RawWithGzip",
	MethodEncode:              "Encode",
	MethodEncodeToFileAndPull: "EncodeToFileAndPull",
	MethodMinicapDirect:       "MinicapDirect",
	MethodMinicapStream:       "MinicapStream",
	MethodFastestWay:          "FastestWay",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod resolves a method by name, case-insensitively.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if m != MethodUnknown && strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return MethodUnknown, fmt.Errorf("unknown screencap method %q", name)
}

// AllMethods lists every concrete strategy in race order.
func AllMethods() []Method {
	return []Method{
		MethodRawByNetcat,
		MethodRawWithGzip,
		MethodEncode,
		MethodEncodeToFileAndPull,
		MethodMinicapDirect,
		MethodMinicapStream,
	}
}

// needsWarmup reports methods whose first capture is not representative:
// netcat pays a connection cold start, the minicap stream serves a cached
// frame.
func needsWarmup(m Method) bool {
	switch m {
	case MethodRawByNetcat, MethodMinicapStream:
		return true
	default:
		return false
	}
}

// New builds the strategy for method. Strategies that need geometry or abi
// facts share info.
func New(method Method, info *device.Info) (Screencap, error) {
	switch method {
	case MethodRawByNetcat:
		return NewRawByNetcat(), nil
	case MethodRawWithGzip:
		return NewRawWithGzip(), nil
	case MethodEncode:
		return NewEncode(), nil
	case MethodEncodeToFileAndPull:
		return NewEncodeToFile(), nil
	case MethodMinicapDirect:
		return NewMinicapDirect(info), nil
	case MethodMinicapStream:
		return NewMinicapStream(info), nil
	case MethodFastestWay:
		return NewFastestWay(info), nil
	case MethodUnknown:
	}
	return nil, fmt.Errorf("unsupported screencap method %s", method)
}
