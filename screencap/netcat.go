package screencap

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

const netcatTimeout = 2 * time.Second

var (
	defaultNetcatAddressArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "cat /proc/net/arp | grep : ")
	defaultRawByNetcatArgv   = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "exec-out", "screencap | nc -w 3 {NETCAT_ADDRESS} {NETCAT_PORT}")
)

// RawByNetcat has the device send raw `screencap` output over nc to a
// socket opened on the host, bypassing the adb shell stream.
type RawByNetcat struct {
	unit.Base
	helper Helper

	address    string
	port       int
	socketOpen bool

	addressArgv   unit.Argv
	screencapArgv unit.Argv
}

func NewRawByNetcat() *RawByNetcat {
	return &RawByNetcat{}
}

func (s *RawByNetcat) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "NetcatAddress", Default: defaultNetcatAddressArgv, Dest: &s.addressArgv},
		unit.CommandSpec{Name: "ScreencapRawByNetcat", Default: defaultRawByNetcatArgv, Dest: &s.screencapArgv},
	)
}

func (s *RawByNetcat) Init(width, height int) error {
	output, err := s.Command(s.addressArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return fmt.Errorf("failed to query netcat address: %w", err)
	}

	address, err := parseNetcatAddress(string(output))
	if err != nil {
		return err
	}

	host := socketHost(s.Replacement()[unit.TokenAdbSerial])
	port, err := s.IO().CreateSocket(host)
	if err != nil {
		return fmt.Errorf("failed to open netcat socket on %s: %w", host, err)
	}

	s.address = address
	s.port = port
	s.socketOpen = true
	utils.Verbose("netcat capture: device sends to %s:%d, listening on %s", address, port, host)
	return nil
}

func (s *RawByNetcat) SetWH(width, height int) error {
	return nil
}

func (s *RawByNetcat) Deinit() {
	if s.socketOpen {
		s.IO().CloseSocket()
		s.socketOpen = false
	}
}

func (s *RawByNetcat) Screencap() (*types.Frame, error) {
	if !s.socketOpen {
		return nil, ErrNotInitialized
	}

	output, err := s.Command(s.screencapArgv, unit.Replacement{
		unit.TokenNetcatAddress: s.address,
		unit.TokenNetcatPort:    strconv.Itoa(s.port),
	}, true, netcatTimeout)
	if err != nil {
		return nil, err
	}
	return s.helper.Process(output, DecodeRaw)
}

// parseNetcatAddress takes the first token of the first ARP table line.
func parseNetcatAddress(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if net.ParseIP(fields[0]) == nil {
			return "", fmt.Errorf("unexpected arp entry %q", strings.TrimSpace(line))
		}
		return fields[0], nil
	}
	return "", fmt.Errorf("device arp table has no entries")
}

// socketHost picks the local address to listen on: loopback for usb,
// emulator and loopback serials, every interface for a device on the network.
func socketHost(serial string) string {
	if !device.IsNetworkSerial(serial) {
		return "127.0.0.1"
	}

	host, _, err := net.SplitHostPort(serial)
	if err != nil {
		return "127.0.0.1"
	}
	if host == "localhost" {
		return "127.0.0.1"
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsLoopback() {
		return "127.0.0.1"
	}
	return "0.0.0.0"
}
