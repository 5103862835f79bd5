package device

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
	"github.com/samber/lo"
)

const pushTimeout = 60 * time.Second

var (
	defaultPushBinArgv    = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "push", "{BIN_PATH}", "/data/local/tmp/{BIN_WORKING_FILE}")
	defaultPushLibArgv    = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "push", "{LIB_PATH}", "/data/local/tmp/{LIB_WORKING_FILE}")
	defaultChmodBinArgv   = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "chmod 700 /data/local/tmp/{BIN_WORKING_FILE}")
	defaultInvokeBinArgv  = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "export LD_LIBRARY_PATH=/data/local/tmp/; /data/local/tmp/{BIN_WORKING_FILE} {BIN_EXTRA_PARAMS} 2>&1")
	defaultRemoveFileArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "rm -f /data/local/tmp/{TEMP_FILE}")
)

// Prebuilt locates per-ABI device binaries on the host:
//
//	<root>/<arch>/bin/<name>
//	<root>/<arch>/lib/android-<sdk>/<name>.so
type Prebuilt struct {
	Root string   `json:"root"`
	Arch []string `json:"arch"`
	SDK  []int    `json:"sdk"`
}

// SelectArch returns the first device abi accepted by candidates. An empty
// candidate list accepts the device's preferred abi.
func SelectArch(abilist, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return lo.First(abilist)
	}
	return lo.Find(abilist, func(abi string) bool {
		return lo.Contains(candidates, abi)
	})
}

// SelectSDK returns the highest candidate not above the device sdk.
func SelectSDK(deviceSDK int, candidates []int) (int, bool) {
	sorted := append([]int(nil), candidates...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	return lo.Find(sorted, func(sdk int) bool {
		return sdk <= deviceSDK
	})
}

// InvokeBin pushes a prebuilt executable matching the device abi and runs it
// under the remote shell.
type InvokeBin struct {
	unit.Base

	name    string
	withLib bool
	info    *Info

	prebuilt       Prebuilt
	binWorkingFile string

	pushBinArgv    unit.Argv
	pushLibArgv    unit.Argv
	chmodBinArgv   unit.Argv
	invokeBinArgv  unit.Argv
	removeFileArgv unit.Argv
}

// NewInvokeBin creates a helper for the prebuilt section name. With withLib
// the matching <name>.so for the device sdk is pushed as well.
func NewInvokeBin(name string, withLib bool, info *Info) *InvokeBin {
	b := &InvokeBin{name: name, withLib: withLib, info: info}
	if info != nil {
		b.AddChild(info)
	}
	return b
}

func (b *InvokeBin) Parse(cfg unit.Config) error {
	if err := b.ParseChildren(cfg); err != nil {
		return err
	}
	if err := cfg.PrebuiltSection(b.name, &b.prebuilt); err != nil {
		return err
	}
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "PushBin", Default: defaultPushBinArgv, Dest: &b.pushBinArgv},
		unit.CommandSpec{Name: "PushLib", Default: defaultPushLibArgv, Dest: &b.pushLibArgv},
		unit.CommandSpec{Name: "ChmodBin", Default: defaultChmodBinArgv, Dest: &b.chmodBinArgv},
		unit.CommandSpec{Name: "InvokeBin", Default: defaultInvokeBinArgv, Dest: &b.invokeBinArgv},
		unit.CommandSpec{Name: "RemoveFile", Default: defaultRemoveFileArgv, Dest: &b.removeFileArgv},
	)
}

// Init selects, pushes and chmods the binary (and library).
func (b *InvokeBin) Init() (err error) {
	if b.prebuilt.Root == "" {
		return fmt.Errorf("no prebuilt root configured for %s", b.name)
	}

	abilist, err := b.info.RequestAbilist()
	if err != nil {
		return err
	}
	arch, ok := SelectArch(abilist, b.prebuilt.Arch)
	if !ok {
		return fmt.Errorf("no %s prebuilt for abi %v", b.name, abilist)
	}

	binPath := filepath.Join(b.prebuilt.Root, arch, "bin", b.name)
	if _, err := os.Stat(binPath); err != nil {
		return fmt.Errorf("%s prebuilt missing: %w", b.name, err)
	}

	b.binWorkingFile = fmt.Sprintf("%s_%s", b.name, uuid.NewString()[:8])
	defer func() {
		if err != nil {
			b.Deinit()
		}
	}()

	extra := unit.Replacement{
		unit.TokenBinPath:        binPath,
		unit.TokenBinWorkingFile: b.binWorkingFile,
	}

	if _, err := b.Command(b.pushBinArgv, extra, false, pushTimeout); err != nil {
		return fmt.Errorf("failed to push %s: %w", b.name, err)
	}
	if _, err := b.Command(b.chmodBinArgv, extra, false, unit.DefaultTimeout); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", b.name, err)
	}

	if b.withLib {
		if err := b.pushLib(arch); err != nil {
			return err
		}
	}

	utils.Verbose("%s ready as /data/local/tmp/%s (%s)", b.name, b.binWorkingFile, arch)
	return nil
}

func (b *InvokeBin) pushLib(arch string) error {
	deviceSDK, err := b.info.RequestSDK()
	if err != nil {
		return err
	}
	sdk, ok := SelectSDK(deviceSDK, b.prebuilt.SDK)
	if !ok {
		return fmt.Errorf("no %s library for sdk %d", b.name, deviceSDK)
	}

	libPath := filepath.Join(b.prebuilt.Root, arch, "lib", "android-"+strconv.Itoa(sdk), b.name+".so")
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("%s library missing: %w", b.name, err)
	}

	extra := unit.Replacement{
		unit.TokenLibPath:        libPath,
		unit.TokenLibWorkingFile: b.name + ".so",
	}
	if _, err := b.Command(b.pushLibArgv, extra, false, pushTimeout); err != nil {
		return fmt.Errorf("failed to push %s library: %w", b.name, err)
	}
	return nil
}

func (b *InvokeBin) invokeExtra(params string) unit.Replacement {
	return unit.Replacement{
		unit.TokenBinWorkingFile: b.binWorkingFile,
		unit.TokenBinExtraParams: params,
	}
}

// Invoke starts the binary as a persistent pipe session.
func (b *InvokeBin) Invoke(params string) (unit.Pipe, error) {
	if b.binWorkingFile == "" {
		return nil, fmt.Errorf("%s is not initialized", b.name)
	}
	return b.Interactive(b.invokeBinArgv, b.invokeExtra(params))
}

// InvokeOnce runs the binary to completion and returns its output.
func (b *InvokeBin) InvokeOnce(params string, timeout time.Duration) ([]byte, error) {
	if b.binWorkingFile == "" {
		return nil, fmt.Errorf("%s is not initialized", b.name)
	}
	return b.Command(b.invokeBinArgv, b.invokeExtra(params), false, timeout)
}

// Deinit removes the pushed binary. Safe to call more than once.
func (b *InvokeBin) Deinit() {
	if b.binWorkingFile == "" {
		return
	}
	if _, err := b.Command(b.removeFileArgv, unit.Replacement{unit.TokenTempFile: b.binWorkingFile}, false, unit.DefaultTimeout); err != nil {
		utils.Verbose("failed to remove %s: %v", b.binWorkingFile, err)
	}
	b.binWorkingFile = ""
}
