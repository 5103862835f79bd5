package commands

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mobile-next/adbctl/controller"
	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/transport"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
	"github.com/samber/lo"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// DeviceRequest identifies the device and the backends a command runs with.
// Empty method names keep the controller defaults.
type DeviceRequest struct {
	AdbPath    string `json:"adbPath,omitempty"`
	Serial     string `json:"serial"`
	ConfigPath string `json:"configPath,omitempty"`
	Screencap  string `json:"screencap,omitempty"`
	Touch      string `json:"touch,omitempty"`
	Key        string `json:"key,omitempty"`
}

var (
	registryMu sync.Mutex

	// managerRegistry holds the connected managers. It is set once at
	// startup via SetRegistry so main can release them on SIGINT/SIGTERM.
	managerRegistry *controller.Registry

	// newIO creates the transport for a new manager. Each manager owns its
	// socket, so the transport is never shared.
	newIO = func() unit.IO { return transport.NewProcessIO() }
)

// SetRegistry sets the registry commands connect managers into.
func SetRegistry(registry *controller.Registry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	managerRegistry = registry
}

// GetRegistry returns the current registry, creating a default one when
// SetRegistry was never called.
func GetRegistry() *controller.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()
	if managerRegistry == nil {
		managerRegistry = controller.NewRegistry(0)
	}
	return managerRegistry
}

// FindManager returns the connected manager for req.Serial, connecting a
// new one when none is registered. An empty serial selects the only online
// device.
func FindManager(req DeviceRequest) (*controller.Manager, error) {
	if req.Serial == "" {
		serial, err := autoSelect(req)
		if err != nil {
			return nil, err
		}
		req.Serial = serial
	}

	registry := GetRegistry()
	if m, ok := registry.Get(req.Serial); ok && m.Connected() {
		return m, nil
	}
	return connect(registry, req)
}

func (req DeviceRequest) adbPath() string {
	if req.AdbPath == "" {
		return "adb"
	}
	return req.AdbPath
}

func (req DeviceRequest) config() ([]byte, error) {
	if req.ConfigPath == "" {
		return controller.DefaultConfig, nil
	}
	data, err := os.ReadFile(req.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read controller config: %w", err)
	}
	return data, nil
}

// listDevices runs `adb devices` outside of any manager.
func listDevices(req DeviceRequest) ([]device.Entry, error) {
	data, err := req.config()
	if err != nil {
		return nil, err
	}
	cfg, err := unit.ParseConfig(data)
	if err != nil {
		return nil, err
	}

	conn := device.NewConnection()
	if err := conn.Parse(cfg); err != nil {
		return nil, err
	}
	conn.SetIO(newIO())
	conn.SetReplacement(unit.Replacement{unit.TokenAdb: req.adbPath()})
	return conn.Devices()
}

func autoSelect(req DeviceRequest) (string, error) {
	entries, err := listDevices(req)
	if err != nil {
		return "", fmt.Errorf("error getting devices: %w", err)
	}

	online := lo.Filter(entries, func(e device.Entry, _ int) bool { return e.Online() })
	switch len(online) {
	case 0:
		return "", fmt.Errorf("no online devices found")
	case 1:
		utils.Verbose("auto selected device %s", online[0].Serial)
		return online[0].Serial, nil
	default:
		serials := lo.Map(online, func(e device.Entry, _ int) string { return e.Serial })
		return "", fmt.Errorf("multiple devices found (%d), please specify --serial with one of: [%s]", len(online), strings.Join(serials, ", "))
	}
}

func connect(registry *controller.Registry, req DeviceRequest) (*controller.Manager, error) {
	config, err := req.config()
	if err != nil {
		return nil, err
	}

	opts, err := controller.ParseOptions(req.Screencap, req.Touch, req.Key)
	if err != nil {
		return nil, err
	}

	m, err := controller.New(req.adbPath(), req.Serial, config, opts, newIO())
	if err != nil {
		return nil, err
	}
	if err := m.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", req.Serial, err)
	}

	registry.Register(m)
	utils.Verbose("registered manager for %s", req.Serial)
	return m, nil
}
