package input

import (
	"time"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
	"github.com/sirupsen/logrus"
)

type touchCandidate struct {
	method TouchMethod
	input  TouchInput
}

type keyCandidate struct {
	method KeyMethod
	input  KeyInput
}

// AutoDetect binds the first touch backend and the first key backend that
// initialize. Candidates that lose stay constructed but uninitialized.
type AutoDetect struct {
	unit.Base

	touchCandidates []touchCandidate
	keyCandidates   []keyCandidate

	touch       TouchInput
	key         KeyInput
	touchMethod TouchMethod
	keyMethod   KeyMethod
}

// NewAutoDetect tries maatouch, minitouch and adb for touch and maatouch
// and adb for keys. The maatouch instance is shared by both lists.
func NewAutoDetect(info *device.Info) *AutoDetect {
	maatouch := NewMaatouch()
	return newAutoDetect(
		[]touchCandidate{
			{TouchMaatouch, maatouch},
			{TouchMinitouch, NewMinitouch(info)},
			{TouchAdb, NewAdbTap()},
		},
		[]keyCandidate{
			{KeyMaatouch, maatouch},
			{KeyAdb, NewAdbKey()},
		},
	)
}

func newAutoDetect(touch []touchCandidate, key []keyCandidate) *AutoDetect {
	a := &AutoDetect{touchCandidates: touch, keyCandidates: key}
	for _, c := range touch {
		a.AddChild(c.input)
	}
	for _, c := range key {
		a.AddChild(c.input)
	}
	return a
}

func (a *AutoDetect) Parse(cfg unit.Config) error {
	return a.ParseChildren(cfg)
}

// Init binds backends in candidate order. It fails only when no touch
// backend initialized; a missing key backend is logged and key calls fail.
func (a *AutoDetect) Init(width, height, orientation int) error {
	a.Deinit()

	for _, c := range a.touchCandidates {
		if err := c.input.Init(width, height, orientation); err != nil {
			utils.WithFields(logrus.Fields{"method": c.method.String()}).Infof("touch backend unavailable: %v", err)
			continue
		}
		a.touch, a.touchMethod = c.input, c.method
		utils.WithFields(logrus.Fields{"method": c.method.String()}).Info("touch backend bound")
		break
	}

	for _, c := range a.keyCandidates {
		if shared, ok := c.input.(TouchInput); ok && a.touch != nil && shared == a.touch {
			a.key, a.keyMethod = c.input, c.method
			utils.WithFields(logrus.Fields{"method": c.method.String()}).Info("key backend shares the touch backend")
			break
		}
		if err := c.input.Init(width, height, orientation); err != nil {
			utils.WithFields(logrus.Fields{"method": c.method.String()}).Infof("key backend unavailable: %v", err)
			continue
		}
		a.key, a.keyMethod = c.input, c.method
		utils.WithFields(logrus.Fields{"method": c.method.String()}).Info("key backend bound")
		break
	}

	if a.touch == nil {
		utils.Error("no touch backend could be initialized")
		return ErrNoBackend
	}
	if a.key == nil {
		utils.Error("no key backend could be initialized")
	}
	return nil
}

// Bound reports the selected backends.
func (a *AutoDetect) Bound() (TouchMethod, KeyMethod, bool) {
	return a.touchMethod, a.keyMethod, a.touch != nil
}

func (a *AutoDetect) SetWH(width, height, orientation int) error {
	if a.touch == nil {
		return a.unbound("set_wh")
	}
	return a.touch.SetWH(width, height, orientation)
}

// Deinit releases the bound backends, once each.
func (a *AutoDetect) Deinit() {
	if a.touch != nil {
		a.touch.Deinit()
	}
	if a.key != nil {
		if shared, ok := a.key.(TouchInput); !ok || shared != a.touch {
			a.key.Deinit()
		}
	}
	a.touch, a.key = nil, nil
	a.touchMethod, a.keyMethod = TouchAutoDetect, KeyAutoDetect
}

func (a *AutoDetect) unbound(op string) error {
	utils.Error("%s called without a bound input backend", op)
	return ErrNoBackend
}

func (a *AutoDetect) Click(x, y int) error {
	if a.touch == nil {
		return a.unbound("click")
	}
	return a.touch.Click(x, y)
}

func (a *AutoDetect) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	if a.touch == nil {
		return a.unbound("swipe")
	}
	return a.touch.Swipe(x1, y1, x2, y2, duration)
}

func (a *AutoDetect) MultiSwipe(params []types.SwipeParam) error {
	if a.touch == nil {
		return a.unbound("multi_swipe")
	}
	return a.touch.MultiSwipe(params)
}

func (a *AutoDetect) TouchDown(contact, x, y int) error {
	if a.touch == nil {
		return a.unbound("touch_down")
	}
	return a.touch.TouchDown(contact, x, y)
}

func (a *AutoDetect) TouchMove(contact, x, y int) error {
	if a.touch == nil {
		return a.unbound("touch_move")
	}
	return a.touch.TouchMove(contact, x, y)
}

func (a *AutoDetect) TouchUp(contact int) error {
	if a.touch == nil {
		return a.unbound("touch_up")
	}
	return a.touch.TouchUp(contact)
}

func (a *AutoDetect) PressKey(key int) error {
	if a.key == nil {
		return a.unbound("press_key")
	}
	return a.key.PressKey(key)
}

func (a *AutoDetect) InputText(text string) error {
	if a.key == nil {
		return a.unbound("input_text")
	}
	return a.key.InputText(text)
}
