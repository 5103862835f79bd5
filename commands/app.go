package commands

import (
	"fmt"
)

// AppRequest represents the parameters for app-related commands. Intent is
// a package name or package/activity.
type AppRequest struct {
	DeviceRequest
	Intent string `json:"intent"`
}

// StartAppCommand launches an app on the specified device
func StartAppCommand(req AppRequest) *CommandResponse {
	if req.Intent == "" {
		return NewErrorResponse(fmt.Errorf("intent is required"))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := m.StartApp(req.Intent); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to start app on device %s: %w", req.Serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Started '%s' on device %s", req.Intent, req.Serial),
	})
}

// StopAppCommand force-stops an app on the specified device
func StopAppCommand(req AppRequest) *CommandResponse {
	if req.Intent == "" {
		return NewErrorResponse(fmt.Errorf("intent is required"))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := m.StopApp(req.Intent); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to stop app on device %s: %w", req.Serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Stopped '%s' on device %s", req.Intent, req.Serial),
	})
}
