package utils

import (
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const (
	HostConfigName = ".adbctl.ini"

	EnvAdbPath   = "MAA_ADB"
	EnvAdbSerial = "MAA_ADB_SERIAL"
)

// HostConfig holds the defaults a caller uses before flags are applied.
type HostConfig struct {
	AdbPath    string
	Serial     string
	ConfigPath string
	Screencap  string
	Touch      string
	Key        string
}

// DefaultHostConfigPath returns ~/.adbctl.ini, or "" without a home directory.
func DefaultHostConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, HostConfigName)
}

// LoadHostConfig reads the [adb] and [methods] sections of path, then applies
// MAA_ADB and MAA_ADB_SERIAL on top. A missing file is not an error.
//
//	[adb]
//	path = /opt/platform-tools/adb
//	serial = emulator-5554
//	config = ~/maa/adb.json
//
//	[methods]
//	screencap = fastest
//	touch = maatouch
//	key = auto
func LoadHostConfig(path string) (HostConfig, error) {
	cfg := HostConfig{AdbPath: "adb"}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			file, err := ini.Load(path)
			if err != nil {
				return cfg, err
			}
			adb := file.Section("adb")
			cfg.AdbPath = adb.Key("path").MustString(cfg.AdbPath)
			cfg.Serial = adb.Key("serial").String()
			cfg.ConfigPath = expandHome(adb.Key("config").String())

			methods := file.Section("methods")
			cfg.Screencap = methods.Key("screencap").String()
			cfg.Touch = methods.Key("touch").String()
			cfg.Key = methods.Key("key").String()
		} else {
			Verbose("host config %s not found", path)
		}
	}

	if v := os.Getenv(EnvAdbPath); v != "" {
		cfg.AdbPath = v
	}
	if v := os.Getenv(EnvAdbSerial); v != "" {
		cfg.Serial = v
	}
	return cfg, nil
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
