package device

import (
	"fmt"
	"strings"

	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

var (
	defaultConnectArgv    = unit.NewArgv("{ADB}", "connect", "{ADB_SERIAL}")
	defaultGetStateArgv   = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "get-state")
	defaultKillServerArgv = unit.NewArgv("{ADB}", "kill-server")
	defaultDevicesArgv    = unit.NewArgv("{ADB}", "devices")
)

// Entry is one line of `adb devices`.
type Entry struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

func (e Entry) Online() bool {
	return e.State == "device"
}

// Connection attaches the adb server to the device.
type Connection struct {
	unit.Base

	connectArgv    unit.Argv
	getStateArgv   unit.Argv
	killServerArgv unit.Argv
	devicesArgv    unit.Argv
}

func NewConnection() *Connection {
	return &Connection{}
}

func (c *Connection) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "Connect", Default: defaultConnectArgv, Dest: &c.connectArgv},
		unit.CommandSpec{Name: "GetState", Default: defaultGetStateArgv, Dest: &c.getStateArgv},
		unit.CommandSpec{Name: "KillServer", Default: defaultKillServerArgv, Dest: &c.killServerArgv},
		unit.CommandSpec{Name: "Devices", Default: defaultDevicesArgv, Dest: &c.devicesArgv},
	)
}

// Connect runs `adb connect` for network serials and then checks the device state.
func (c *Connection) Connect() error {
	serial := c.Replacement()[unit.TokenAdbSerial]

	if IsNetworkSerial(serial) {
		output, err := c.Command(c.connectArgv, nil, false, unit.LongTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", serial, err)
		}
		if msg, failed := connectFailed(string(output)); failed {
			return fmt.Errorf("failed to connect to %s: %s", serial, msg)
		}
		utils.Verbose("adb connect %s: %s", serial, strings.TrimSpace(string(output)))
	}

	output, err := c.Command(c.getStateArgv, nil, false, unit.LongTimeout)
	if err != nil {
		return fmt.Errorf("device %s is not reachable: %w", serial, err)
	}
	state := strings.TrimSpace(string(output))
	if state != "device" {
		return fmt.Errorf("device %s is in state %q", serial, state)
	}
	return nil
}

func (c *Connection) KillServer() error {
	if _, err := c.Command(c.killServerArgv, nil, false, unit.LongTimeout); err != nil {
		return fmt.Errorf("failed to kill adb server: %w", err)
	}
	return nil
}

// Devices lists every device the adb server knows, in any state.
func (c *Connection) Devices() ([]Entry, error) {
	output, err := c.Command(c.devicesArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return parseDevices(string(output)), nil
}

// parseDevices skips the "List of devices attached" header and daemon
// notices.
func parseDevices(output string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 || strings.HasPrefix(parts[0], "*") || parts[0] == "List" {
			continue
		}
		entries = append(entries, Entry{Serial: parts[0], State: parts[1]})
	}
	return entries
}

// IsNetworkSerial reports whether serial names a host:port transport.
func IsNetworkSerial(serial string) bool {
	return strings.Contains(serial, ":") && !strings.HasPrefix(serial, "emulator-")
}

func connectFailed(output string) (string, bool) {
	lower := strings.ToLower(output)
	for _, marker := range []string{"unable", "cannot", "failed", "error", "refused"} {
		if strings.Contains(lower, marker) {
			return strings.TrimSpace(output), true
		}
	}
	return "", false
}
