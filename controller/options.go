package controller

import (
	"github.com/mobile-next/adbctl/input"
	"github.com/mobile-next/adbctl/screencap"
)

// DefaultConfig has an empty command section, so every unit uses its
// built-in templates.
var DefaultConfig = []byte(`{"command": {}}`)

// Options selects the screencap, touch and key backends.
type Options struct {
	ScreencapMethod screencap.Method
	TouchMethod     input.TouchMethod
	KeyMethod       input.KeyMethod
}

// DefaultOptions races screencap methods and auto detects input.
func DefaultOptions() Options {
	return Options{
		ScreencapMethod: screencap.MethodFastestWay,
		TouchMethod:     input.TouchAutoDetect,
		KeyMethod:       input.KeyAutoDetect,
	}
}

// ParseOptions resolves backend names. Empty names keep the defaults.
func ParseOptions(screencapMethod, touchMethod, keyMethod string) (Options, error) {
	opts := DefaultOptions()

	if screencapMethod != "" {
		m, err := screencap.ParseMethod(screencapMethod)
		if err != nil {
			return Options{}, err
		}
		opts.ScreencapMethod = m
	}

	touch, err := input.ParseTouchMethod(touchMethod)
	if err != nil {
		return Options{}, err
	}
	opts.TouchMethod = touch

	key, err := input.ParseKeyMethod(keyMethod)
	if err != nil {
		return Options{}, err
	}
	opts.KeyMethod = key

	return opts, nil
}
