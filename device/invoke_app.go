package device

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

var (
	defaultPushServerArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "push", "{APP_SRC}", "/data/local/tmp/{APP_WORKING_FILE}")
	defaultInvokeAppArgv  = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "export CLASSPATH=/data/local/tmp/{APP_WORKING_FILE}; app_process /data/local/tmp {PACKAGE_NAME}")
)

// AppPrebuilt locates a dex/apk on the host and names its entry class.
type AppPrebuilt struct {
	Root    string `json:"root"`
	File    string `json:"file"`
	Package string `json:"package"`
}

// InvokeApp pushes a jar/apk and runs it through app_process.
type InvokeApp struct {
	unit.Base

	name           string
	prebuilt       AppPrebuilt
	appWorkingFile string

	pushServerArgv unit.Argv
	invokeAppArgv  unit.Argv
	removeFileArgv unit.Argv
}

func NewInvokeApp(name string) *InvokeApp {
	return &InvokeApp{name: name}
}

func (a *InvokeApp) Parse(cfg unit.Config) error {
	if err := cfg.PrebuiltSection(a.name, &a.prebuilt); err != nil {
		return err
	}
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "PushServer", Default: defaultPushServerArgv, Dest: &a.pushServerArgv},
		unit.CommandSpec{Name: "InvokeApp", Default: defaultInvokeAppArgv, Dest: &a.invokeAppArgv},
		unit.CommandSpec{Name: "RemoveFile", Default: defaultRemoveFileArgv, Dest: &a.removeFileArgv},
	)
}

// Init pushes the app under a fresh working name.
func (a *InvokeApp) Init() error {
	if a.prebuilt.Root == "" || a.prebuilt.Package == "" {
		return fmt.Errorf("no prebuilt configured for %s", a.name)
	}

	file := a.prebuilt.File
	if file == "" {
		file = a.name
	}
	src := filepath.Join(a.prebuilt.Root, file)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%s prebuilt missing: %w", a.name, err)
	}

	a.appWorkingFile = fmt.Sprintf("%s_%s", a.name, uuid.NewString()[:8])
	extra := unit.Replacement{
		unit.TokenAppSrc:         src,
		unit.TokenAppWorkingFile: a.appWorkingFile,
	}
	if _, err := a.Command(a.pushServerArgv, extra, false, pushTimeout); err != nil {
		a.appWorkingFile = ""
		return fmt.Errorf("failed to push %s: %w", a.name, err)
	}
	return nil
}

// Invoke starts the app as a persistent pipe session.
func (a *InvokeApp) Invoke() (unit.Pipe, error) {
	if a.appWorkingFile == "" {
		return nil, fmt.Errorf("%s is not initialized", a.name)
	}
	return a.Interactive(a.invokeAppArgv, unit.Replacement{
		unit.TokenAppWorkingFile: a.appWorkingFile,
		unit.TokenPackageName:    a.prebuilt.Package,
	})
}

// Deinit removes the pushed app. Safe to call more than once.
func (a *InvokeApp) Deinit() {
	if a.appWorkingFile == "" {
		return
	}
	if _, err := a.Command(a.removeFileArgv, unit.Replacement{unit.TokenTempFile: a.appWorkingFile}, false, unit.DefaultTimeout); err != nil {
		utils.Verbose("failed to remove %s: %v", a.appWorkingFile, err)
	}
	a.appWorkingFile = ""
}
