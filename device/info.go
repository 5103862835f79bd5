package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
)

var (
	defaultUUIDArgv        = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "settings get secure android_id")
	defaultResolutionArgv  = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", `dumpsys window displays | grep -o -E cur=+[^\ ]+ | grep -o -E [0-9]+`)
	defaultOrientationArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "dumpsys input | grep SurfaceOrientation | grep -m 1 -o -E [0-9]")
	defaultAbilistArgv     = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "getprop ro.product.cpu.abilist")
	defaultSDKArgv         = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "getprop ro.build.version.sdk")
)

// Info queries identity, screen geometry and platform facts from the device.
type Info struct {
	unit.Base

	uuidArgv        unit.Argv
	resolutionArgv  unit.Argv
	orientationArgv unit.Argv
	abilistArgv     unit.Argv
	sdkArgv         unit.Argv
}

func NewInfo() *Info {
	return &Info{}
}

func (i *Info) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "UUID", Default: defaultUUIDArgv, Dest: &i.uuidArgv},
		unit.CommandSpec{Name: "Resolution", Default: defaultResolutionArgv, Dest: &i.resolutionArgv},
		unit.CommandSpec{Name: "Orientation", Default: defaultOrientationArgv, Dest: &i.orientationArgv},
		unit.CommandSpec{Name: "Abilist", Default: defaultAbilistArgv, Dest: &i.abilistArgv},
		unit.CommandSpec{Name: "SDK", Default: defaultSDKArgv, Dest: &i.sdkArgv},
	)
}

func (i *Info) RequestUUID() (string, error) {
	output, err := i.Command(i.uuidArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to request uuid: %w", err)
	}

	uuid := strings.TrimSpace(string(output))
	if uuid == "" {
		return "", fmt.Errorf("device returned an empty uuid")
	}
	return uuid, nil
}

// RequestResolution returns the current (rotated) screen size.
func (i *Info) RequestResolution() (int, int, error) {
	output, err := i.Command(i.resolutionArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to request resolution: %w", err)
	}
	return parseResolution(string(output))
}

func (i *Info) RequestOrientation() (int, error) {
	output, err := i.Command(i.orientationArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to request orientation: %w", err)
	}
	return parseOrientation(string(output))
}

// RequestGeometry queries resolution and orientation together.
func (i *Info) RequestGeometry() (types.DeviceGeometry, error) {
	width, height, err := i.RequestResolution()
	if err != nil {
		return types.DeviceGeometry{}, err
	}
	orientation, err := i.RequestOrientation()
	if err != nil {
		return types.DeviceGeometry{}, err
	}
	return types.DeviceGeometry{Width: width, Height: height, Orientation: orientation}, nil
}

// RequestAbilist returns the supported ABIs, preferred first.
func (i *Info) RequestAbilist() ([]string, error) {
	output, err := i.Command(i.abilistArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to request abilist: %w", err)
	}

	var abis []string
	for _, abi := range strings.Split(strings.TrimSpace(string(output)), ",") {
		if abi = strings.TrimSpace(abi); abi != "" {
			abis = append(abis, abi)
		}
	}
	if len(abis) == 0 {
		return nil, fmt.Errorf("device reported no abi")
	}
	return abis, nil
}

func (i *Info) RequestSDK() (int, error) {
	output, err := i.Command(i.sdkArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to request sdk: %w", err)
	}

	sdk, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0, fmt.Errorf("invalid sdk version %q: %w", strings.TrimSpace(string(output)), err)
	}
	return sdk, nil
}

// parseResolution takes the first two integers of output, e.g. "1080\n1920\n1080\n1794".
func parseResolution(output string) (int, int, error) {
	fields := strings.Fields(output)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected resolution output %q", output)
	}

	width, errW := strconv.Atoi(fields[0])
	height, errH := strconv.Atoi(fields[1])
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("unexpected resolution output %q", output)
	}
	return width, height, nil
}

func parseOrientation(output string) (int, error) {
	s := strings.TrimSpace(output)
	orientation, err := strconv.Atoi(s)
	if err != nil || orientation < 0 || orientation > 3 {
		return 0, fmt.Errorf("unexpected orientation output %q", s)
	}
	return orientation, nil
}
