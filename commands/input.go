package commands

import (
	"fmt"
	"time"

	"github.com/mobile-next/adbctl/types"
)

// TapRequest represents the parameters for a tap command
type TapRequest struct {
	DeviceRequest
	X int `json:"x"`
	Y int `json:"y"`
}

// SwipeRequest represents the parameters for a swipe command. Duration is
// in milliseconds; zero uses the backend default.
type SwipeRequest struct {
	DeviceRequest
	X1       int `json:"x1"`
	Y1       int `json:"y1"`
	X2       int `json:"x2"`
	Y2       int `json:"y2"`
	Duration int `json:"duration,omitempty"`
}

// MultiSwipeRequest represents the parameters for a multi-contact swipe.
type MultiSwipeRequest struct {
	DeviceRequest
	Swipes []types.SwipeParam `json:"swipes"`
}

// KeyRequest represents the parameters for a key press command
type KeyRequest struct {
	DeviceRequest
	KeyCode int `json:"keyCode"`
}

// TextRequest represents the parameters for a text input command
type TextRequest struct {
	DeviceRequest
	Text string `json:"text"`
}

// TapCommand taps the screen at (x, y).
func TapCommand(req TapRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := m.Click(req.X, req.Y); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to tap on device %s: %w", req.Serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Tapped on device %s at (%d,%d)", req.Serial, req.X, req.Y),
	})
}

// SwipeCommand swipes from (x1, y1) to (x2, y2).
func SwipeCommand(req SwipeRequest) *CommandResponse {
	if req.X1 < 0 || req.Y1 < 0 || req.X2 < 0 || req.Y2 < 0 {
		return NewErrorResponse(fmt.Errorf("coordinates must be non-negative, got (%d,%d) to (%d,%d)", req.X1, req.Y1, req.X2, req.Y2))
	}
	if req.Duration < 0 {
		return NewErrorResponse(fmt.Errorf("duration must be non-negative, got %d", req.Duration))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}
	duration := time.Duration(req.Duration) * time.Millisecond
	if err := m.Swipe(req.X1, req.Y1, req.X2, req.Y2, duration); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to swipe on device %s: %w", req.Serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Swiped on device %s from (%d,%d) to (%d,%d)", req.Serial, req.X1, req.Y1, req.X2, req.Y2),
	})
}

// MultiSwipeCommand runs several contacts on one timeline.
func MultiSwipeCommand(req MultiSwipeRequest) *CommandResponse {
	if len(req.Swipes) == 0 {
		return NewErrorResponse(fmt.Errorf("at least one swipe is required"))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := m.MultiSwipe(req.Swipes); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to multi swipe on device %s: %w", req.Serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Performed %d swipe(s) on device %s", len(req.Swipes), req.Serial),
	})
}

// KeyCommand presses an Android key code.
func KeyCommand(req KeyRequest) *CommandResponse {
	if req.KeyCode < 0 {
		return NewErrorResponse(fmt.Errorf("key code must be non-negative, got %d", req.KeyCode))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := m.PressKey(req.KeyCode); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to press key on device %s: %w", req.Serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Pressed key %d on device %s", req.KeyCode, req.Serial),
	})
}

// TextCommand types text into the focused field.
func TextCommand(req TextRequest) *CommandResponse {
	if req.Text == "" {
		return NewErrorResponse(fmt.Errorf("text is required"))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := m.InputText(req.Text); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to send text to device %s: %w", req.Serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Sent text to device %s", req.Serial),
	})
}
