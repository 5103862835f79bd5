package cli

import (
	"github.com/mobile-next/adbctl/commands"
	"github.com/mobile-next/adbctl/utils"
)

var (
	verbose bool

	// all commands
	hostConfigPath  string
	adbPath         string
	serial          string
	configPath      string
	screencapMethod string
	touchMethod     string
	keyMethod       string

	// loaded from hostConfigPath before any command runs
	hostConfig utils.HostConfig

	// for screenshot command
	screenshotOutputPath  string
	screenshotFormat      string
	screenshotJpegQuality int

	// for io swipe command
	swipeDuration int
)

// deviceRequest merges the flags over the host config.
func deviceRequest() commands.DeviceRequest {
	req := commands.DeviceRequest{
		AdbPath:    hostConfig.AdbPath,
		Serial:     hostConfig.Serial,
		ConfigPath: hostConfig.ConfigPath,
		Screencap:  hostConfig.Screencap,
		Touch:      hostConfig.Touch,
		Key:        hostConfig.Key,
	}
	override(&req.AdbPath, adbPath)
	override(&req.Serial, serial)
	override(&req.ConfigPath, configPath)
	override(&req.Screencap, screencapMethod)
	override(&req.Touch, touchMethod)
	override(&req.Key, keyMethod)
	return req
}

func override(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}
