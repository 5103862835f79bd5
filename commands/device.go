package commands

import (
	"fmt"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/screencap"
	"github.com/mobile-next/adbctl/types"
)

// DevicesCommand lists the devices known to the adb server.
func DevicesCommand(req DeviceRequest) *CommandResponse {
	entries, err := listDevices(req)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error getting devices: %w", err))
	}
	if entries == nil {
		entries = []device.Entry{}
	}
	return NewSuccessResponse(map[string]interface{}{
		"devices": entries,
	})
}

// ConnectResponse reports the connected device and the screencap strategy
// in use.
type ConnectResponse struct {
	Device          types.DeviceInfo `json:"device"`
	ScreencapMethod string           `json:"screencapMethod,omitempty"`
}

// ConnectCommand connects to the device, reusing a live connection.
func ConnectCommand(req DeviceRequest) *CommandResponse {
	m, err := FindManager(req)
	if err != nil {
		return NewErrorResponse(err)
	}

	info, err := m.Info()
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error getting device info: %w", err))
	}

	response := ConnectResponse{Device: info}
	if method, ok := m.ScreencapMethod(); ok && method != screencap.MethodUnknown {
		response.ScreencapMethod = method.String()
	}
	return NewSuccessResponse(response)
}

// InfoCommand returns the identity and current geometry of the device.
func InfoCommand(req DeviceRequest) *CommandResponse {
	m, err := FindManager(req)
	if err != nil {
		return NewErrorResponse(err)
	}

	info, err := m.Info()
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error getting device info: %w", err))
	}
	return NewSuccessResponse(info)
}

// DisconnectCommand releases the manager for the device, if connected.
func DisconnectCommand(req DeviceRequest) *CommandResponse {
	if req.Serial == "" {
		return NewErrorResponse(fmt.Errorf("device serial is required"))
	}
	if !GetRegistry().Remove(req.Serial) {
		return NewErrorResponse(fmt.Errorf("device %s is not connected", req.Serial))
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Disconnected from %s", req.Serial),
	})
}

// KillServerCommand stops the adb server through the device's manager and
// drops every registered manager, since they all lost their connection.
func KillServerCommand(req DeviceRequest) *CommandResponse {
	m, err := FindManager(req)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := m.KillServer(); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to kill adb server: %w", err))
	}
	GetRegistry().CleanupAll()
	return NewSuccessResponse(map[string]interface{}{
		"message": "adb server stopped",
	})
}
