// Package controller composes the device units behind one connection.
package controller

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/input"
	"github.com/mobile-next/adbctl/screencap"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

// ErrNotConnected is returned by device calls before Connect.
var ErrNotConnected = errors.New("device is not connected")

// Manager owns the unit tree for one device: connection, device info,
// activity, screencap and input. Calls are serialized.
type Manager struct {
	mu sync.Mutex

	adbPath string
	serial  string
	opts    Options
	io      unit.IO

	tree       unit.Base
	connection *device.Connection
	info       *device.Info
	activity   *device.Activity
	screencap  screencap.Screencap
	touch      input.TouchInput
	key        input.KeyInput

	connected     bool
	uuid          string
	geometry      types.DeviceGeometry
	geometryStale bool
}

// New builds and parses the unit tree and binds it to io. It does not talk
// to the device; call Connect for that.
func New(adbPath, serial string, config []byte, opts Options, io unit.IO) (*Manager, error) {
	if adbPath == "" {
		return nil, fmt.Errorf("adb path is empty")
	}
	if serial == "" {
		return nil, fmt.Errorf("adb serial is empty")
	}

	cfg, err := unit.ParseConfig(config)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		adbPath:    adbPath,
		serial:     serial,
		opts:       opts,
		io:         io,
		connection: device.NewConnection(),
		info:       device.NewInfo(),
		activity:   device.NewActivity(),
	}

	m.screencap, err = screencap.New(opts.ScreencapMethod, m.info)
	if err != nil {
		return nil, err
	}
	m.touch, m.key, err = newInput(opts, m.info)
	if err != nil {
		return nil, err
	}

	m.tree.AddChild(m.connection, m.info, m.activity, m.screencap, m.touch)
	if !m.sharedInput() {
		m.tree.AddChild(m.key)
	}
	if err := m.tree.ParseChildren(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse controller config: %w", err)
	}
	m.tree.SetIO(io)
	m.tree.SetReplacement(unit.Replacement{
		unit.TokenAdb:       adbPath,
		unit.TokenAdbSerial: serial,
	})
	return m, nil
}

// newInput builds the touch and key backends. Roles that pick the same
// backend share one instance.
func newInput(opts Options, info *device.Info) (input.TouchInput, input.KeyInput, error) {
	var (
		touch    input.TouchInput
		maatouch *input.Maatouch
		auto     *input.AutoDetect
	)

	switch opts.TouchMethod {
	case input.TouchAutoDetect:
		auto = input.NewAutoDetect(info)
		touch = auto
	case input.TouchAdb:
		touch = input.NewAdbTap()
	case input.TouchMinitouch:
		touch = input.NewMinitouch(info)
	case input.TouchMaatouch:
		maatouch = input.NewMaatouch()
		touch = maatouch
	default:
		return nil, nil, fmt.Errorf("unsupported touch method %s", opts.TouchMethod)
	}

	switch opts.KeyMethod {
	case input.KeyAutoDetect:
		if auto != nil {
			return touch, auto, nil
		}
		return touch, input.NewAutoDetect(info), nil
	case input.KeyAdb:
		return touch, input.NewAdbKey(), nil
	case input.KeyMaatouch:
		if maatouch != nil {
			return touch, maatouch, nil
		}
		return touch, input.NewMaatouch(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported key method %s", opts.KeyMethod)
	}
}

func (m *Manager) sharedInput() bool {
	shared, ok := m.key.(input.TouchInput)
	return ok && shared == m.touch
}

func (m *Manager) Serial() string {
	return m.serial
}

// Connect attaches to the device, reads its identity and geometry, and
// initializes screencap and input.
func (m *Manager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		m.deinit()
	}

	start := time.Now()
	if err := m.connection.Connect(); err != nil {
		return err
	}

	uuid, err := m.info.RequestUUID()
	if err != nil {
		return err
	}
	geometry, err := m.info.RequestGeometry()
	if err != nil {
		return err
	}

	if err := m.screencap.Init(geometry.Width, geometry.Height); err != nil {
		return fmt.Errorf("failed to init screencap: %w", err)
	}
	if err := m.touch.Init(geometry.Width, geometry.Height, geometry.Orientation); err != nil {
		m.screencap.Deinit()
		return fmt.Errorf("failed to init touch input: %w", err)
	}
	if !m.sharedInput() {
		if err := m.key.Init(geometry.Width, geometry.Height, geometry.Orientation); err != nil {
			m.touch.Deinit()
			m.screencap.Deinit()
			return fmt.Errorf("failed to init key input: %w", err)
		}
	}

	m.uuid = uuid
	m.geometry = geometry
	m.geometryStale = false
	m.connected = true
	utils.Info("connected to %s (%s) %dx%d orientation %d in %s", m.serial, uuid, geometry.Width, geometry.Height, geometry.Orientation, time.Since(start))
	return nil
}

// KillServer stops the adb server. Every manager sharing it loses its
// connection.
func (m *Manager) KillServer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connection.KillServer()
}

func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Manager) UUID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return "", ErrNotConnected
	}
	return m.uuid, nil
}

// Info returns the identity and current geometry of the device.
func (m *Manager) Info() (types.DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return types.DeviceInfo{}, err
	}
	return types.DeviceInfo{Serial: m.serial, UUID: m.uuid, Geometry: m.geometry}, nil
}

func (m *Manager) Geometry() (types.DeviceGeometry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return types.DeviceGeometry{}, err
	}
	return m.geometry, nil
}

// refreshGeometry re-queries a stale geometry and resizes screencap and
// touch when it changed.
func (m *Manager) refreshGeometry() error {
	if !m.connected {
		return ErrNotConnected
	}
	if !m.geometryStale {
		return nil
	}

	geometry, err := m.info.RequestGeometry()
	if err != nil {
		return err
	}
	m.geometryStale = false
	if geometry == m.geometry {
		return nil
	}

	utils.Info("geometry changed from %dx%d/%d to %dx%d/%d", m.geometry.Width, m.geometry.Height, m.geometry.Orientation, geometry.Width, geometry.Height, geometry.Orientation)
	m.geometry = geometry
	if err := m.screencap.SetWH(geometry.Width, geometry.Height); err != nil {
		return fmt.Errorf("failed to resize screencap: %w", err)
	}
	if err := m.touch.SetWH(geometry.Width, geometry.Height, geometry.Orientation); err != nil {
		return fmt.Errorf("failed to resize touch input: %w", err)
	}
	return nil
}

// ScreencapMethod returns the configured strategy, or the race winner when
// the strategy is FastestWay. ok is false before a race has locked.
func (m *Manager) ScreencapMethod() (method screencap.Method, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fastest, isRace := m.screencap.(*screencap.FastestWay); isRace {
		return fastest.Locked()
	}
	return m.opts.ScreencapMethod, m.connected
}

func (m *Manager) Screencap() (*types.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return nil, err
	}
	return m.screencap.Screencap()
}

func (m *Manager) Click(x, y int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return err
	}
	return m.touch.Click(x, y)
}

func (m *Manager) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return err
	}
	return m.touch.Swipe(x1, y1, x2, y2, duration)
}

func (m *Manager) MultiSwipe(params []types.SwipeParam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return err
	}
	return m.touch.MultiSwipe(params)
}

func (m *Manager) TouchDown(contact, x, y int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return err
	}
	return m.touch.TouchDown(contact, x, y)
}

func (m *Manager) TouchMove(contact, x, y int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refreshGeometry(); err != nil {
		return err
	}
	return m.touch.TouchMove(contact, x, y)
}

func (m *Manager) TouchUp(contact int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	return m.touch.TouchUp(contact)
}

func (m *Manager) PressKey(key int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	return m.key.PressKey(key)
}

func (m *Manager) InputText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	return m.key.InputText(text)
}

// StartApp launches intent, a package or package/activity. The geometry is
// re-queried on the next call that depends on it.
func (m *Manager) StartApp(intent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	m.geometryStale = true
	return m.activity.StartApp(intent)
}

func (m *Manager) StopApp(intent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	m.geometryStale = true
	return m.activity.StopApp(intent)
}

// Deinit releases device side resources. The manager can Connect again.
func (m *Manager) Deinit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deinit()
}

func (m *Manager) deinit() {
	if !m.connected {
		return
	}
	m.screencap.Deinit()
	m.touch.Deinit()
	if !m.sharedInput() {
		m.key.Deinit()
	}
	m.connected = false
	utils.Verbose("released %s", m.serial)
}
