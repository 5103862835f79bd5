package input

import (
	"fmt"
	"time"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
)

// Minitouch drives the minitouch binary pushed for the device abi. Points
// are rotated into the panel's natural frame.
type Minitouch struct {
	unit.Base
	session

	bin *device.InvokeBin
}

func NewMinitouch(info *device.Info) *Minitouch {
	m := &Minitouch{
		session: newSession(true),
		bin:     device.NewInvokeBin("minitouch", false, info),
	}
	m.AddChild(m.bin)
	return m
}

func (m *Minitouch) Parse(cfg unit.Config) error {
	return m.ParseChildren(cfg)
}

func (m *Minitouch) Init(width, height, orientation int) error {
	m.Deinit()

	if err := m.bin.Init(); err != nil {
		return err
	}
	pipe, err := m.bin.Invoke("-i")
	if err != nil {
		m.bin.Deinit()
		return fmt.Errorf("failed to start minitouch: %w", err)
	}
	if err := m.start(pipe, width, height, orientation); err != nil {
		_ = pipe.Close()
		m.bin.Deinit()
		return err
	}
	return nil
}

func (m *Minitouch) SetWH(width, height, orientation int) error {
	return m.resize(width, height, orientation)
}

func (m *Minitouch) Deinit() {
	m.close()
	m.bin.Deinit()
}

func (m *Minitouch) Click(x, y int) error { return m.click(x, y) }

func (m *Minitouch) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	return m.swipe(x1, y1, x2, y2, duration)
}

func (m *Minitouch) MultiSwipe(params []types.SwipeParam) error { return m.multiSwipe(params) }

func (m *Minitouch) TouchDown(contact, x, y int) error { return m.down(contact, x, y) }

func (m *Minitouch) TouchMove(contact, x, y int) error { return m.move(contact, x, y) }

func (m *Minitouch) TouchUp(contact int) error { return m.up(contact) }

// Geometry returns the negotiated mapping.
func (m *Minitouch) Geometry() Geometry { return m.geometry }

// Maatouch drives the maatouch server started through app_process. It
// understands the minitouch protocol plus key events, and expects points
// in the current screen orientation. Text goes through adb.
type Maatouch struct {
	unit.Base
	session

	app  *device.InvokeApp
	text *AdbKey
}

func NewMaatouch() *Maatouch {
	m := &Maatouch{
		session: newSession(false),
		app:     device.NewInvokeApp("maatouch"),
		text:    NewAdbKey(),
	}
	m.AddChild(m.app, m.text)
	return m
}

func (m *Maatouch) Parse(cfg unit.Config) error {
	return m.ParseChildren(cfg)
}

func (m *Maatouch) Init(width, height, orientation int) error {
	m.Deinit()

	if err := m.app.Init(); err != nil {
		return err
	}
	pipe, err := m.app.Invoke()
	if err != nil {
		m.app.Deinit()
		return fmt.Errorf("failed to start maatouch: %w", err)
	}
	if err := m.start(pipe, width, height, orientation); err != nil {
		_ = pipe.Close()
		m.app.Deinit()
		return err
	}
	return nil
}

func (m *Maatouch) SetWH(width, height, orientation int) error {
	return m.resize(width, height, orientation)
}

// Deinit is safe to call from both the touch and the key role.
func (m *Maatouch) Deinit() {
	m.close()
	m.app.Deinit()
}

func (m *Maatouch) Click(x, y int) error { return m.click(x, y) }

func (m *Maatouch) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	return m.swipe(x1, y1, x2, y2, duration)
}

func (m *Maatouch) MultiSwipe(params []types.SwipeParam) error { return m.multiSwipe(params) }

func (m *Maatouch) TouchDown(contact, x, y int) error { return m.down(contact, x, y) }

func (m *Maatouch) TouchMove(contact, x, y int) error { return m.move(contact, x, y) }

func (m *Maatouch) TouchUp(contact int) error { return m.up(contact) }

func (m *Maatouch) PressKey(key int) error { return m.key(key) }

func (m *Maatouch) InputText(text string) error {
	if m.pipe == nil {
		return ErrNotInitialized
	}
	return m.text.InputText(text)
}

// Geometry returns the negotiated mapping.
func (m *Maatouch) Geometry() Geometry { return m.geometry }
