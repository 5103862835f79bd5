// Package input injects touch and key events into a device through adb
// `input`, minitouch or maatouch.
package input

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
)

var (
	// ErrNoBackend is returned by AutoDetect when no candidate initialized.
	ErrNoBackend = errors.New("no input backend bound")

	// ErrUnsupported is returned for gestures a backend cannot express.
	ErrUnsupported = errors.New("operation not supported by this input backend")

	// ErrNotInitialized is returned by protocol backends before Init.
	ErrNotInitialized = errors.New("input is not initialized")
)

// DefaultSwipeDuration replaces non-positive swipe durations.
const DefaultSwipeDuration = 200 * time.Millisecond

// TouchInput injects taps and gestures in screen coordinates.
type TouchInput interface {
	unit.Unit

	Init(width, height, orientation int) error
	SetWH(width, height, orientation int) error
	Deinit()

	Click(x, y int) error
	Swipe(x1, y1, x2, y2 int, duration time.Duration) error
	MultiSwipe(params []types.SwipeParam) error
	TouchDown(contact, x, y int) error
	TouchMove(contact, x, y int) error
	TouchUp(contact int) error
}

// KeyInput injects key presses and text. Init takes the screen geometry so
// one backend can serve both capabilities.
type KeyInput interface {
	unit.Unit

	Init(width, height, orientation int) error
	Deinit()

	PressKey(key int) error
	InputText(text string) error
}

// TouchMethod selects the touch backend.
type TouchMethod int

const (
	TouchAutoDetect TouchMethod = iota
	TouchAdb
	TouchMinitouch
	TouchMaatouch
)

var touchMethodNames = map[TouchMethod]string{
	TouchAutoDetect: "auto",
	TouchAdb:        "adb",
	TouchMinitouch:  "minitouch",
	TouchMaatouch:   "maatouch",
}

func (m TouchMethod) String() string {
	if name, ok := touchMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("TouchMethod(%d)", int(m))
}

// ParseTouchMethod resolves a touch backend name, case-insensitively. An
// empty name selects auto detection.
func ParseTouchMethod(name string) (TouchMethod, error) {
	if name == "" {
		return TouchAutoDetect, nil
	}
	for m, n := range touchMethodNames {
		if strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return TouchAutoDetect, fmt.Errorf("unknown touch method %q", name)
}

// KeyMethod selects the key backend.
type KeyMethod int

const (
	KeyAutoDetect KeyMethod = iota
	KeyAdb
	KeyMaatouch
)

var keyMethodNames = map[KeyMethod]string{
	KeyAutoDetect: "auto",
	KeyAdb:        "adb",
	KeyMaatouch:   "maatouch",
}

func (m KeyMethod) String() string {
	if name, ok := keyMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("KeyMethod(%d)", int(m))
}

// ParseKeyMethod resolves a key backend name, case-insensitively. An empty
// name selects auto detection.
func ParseKeyMethod(name string) (KeyMethod, error) {
	if name == "" {
		return KeyAutoDetect, nil
	}
	for m, n := range keyMethodNames {
		if strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return KeyAutoDetect, fmt.Errorf("unknown key method %q", name)
}
