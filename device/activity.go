package device

import (
	"fmt"
	"strings"

	"github.com/mobile-next/adbctl/unit"
)

var (
	defaultStartAppArgv        = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "am start -n {INTENT}")
	defaultStartAppPackageArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "monkey -p {INTENT} -c android.intent.category.LAUNCHER 1")
	defaultStopAppArgv         = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "am force-stop {INTENT}")
)

// Activity starts and stops applications.
type Activity struct {
	unit.Base

	startAppArgv        unit.Argv
	startAppPackageArgv unit.Argv
	stopAppArgv         unit.Argv
}

func NewActivity() *Activity {
	return &Activity{}
}

func (a *Activity) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "StartApp", Default: defaultStartAppArgv, Dest: &a.startAppArgv},
		unit.CommandSpec{Name: "StartAppPackage", Default: defaultStartAppPackageArgv, Dest: &a.startAppPackageArgv},
		unit.CommandSpec{Name: "StopApp", Default: defaultStopAppArgv, Dest: &a.stopAppArgv},
	)
}

// StartApp launches intent, either "package/activity" or a bare package name.
func (a *Activity) StartApp(intent string) error {
	if intent == "" {
		return fmt.Errorf("intent is required")
	}

	argv := a.startAppArgv
	if !strings.Contains(intent, "/") {
		argv = a.startAppPackageArgv
	}

	if _, err := a.Command(argv, unit.Replacement{unit.TokenIntent: intent}, false, unit.DefaultTimeout); err != nil {
		return fmt.Errorf("failed to start %s: %w", intent, err)
	}
	return nil
}

// StopApp force-stops the package of intent.
func (a *Activity) StopApp(intent string) error {
	if intent == "" {
		return fmt.Errorf("intent is required")
	}

	pkg, _, _ := strings.Cut(intent, "/")
	if _, err := a.Command(a.stopAppArgv, unit.Replacement{unit.TokenIntent: pkg}, false, unit.DefaultTimeout); err != nil {
		return fmt.Errorf("failed to stop %s: %w", pkg, err)
	}
	return nil
}
