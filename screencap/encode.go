package screencap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

var (
	defaultRawWithGzipArgv  = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "exec-out", "screencap | gzip -1")
	defaultEncodeArgv       = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "exec-out", "screencap -p")
	defaultEncodeToFileArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "screencap -p > /data/local/tmp/{TEMP_FILE}")
	defaultPullFileArgv     = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "pull", "/data/local/tmp/{TEMP_FILE}", "{DST_PATH}")
	defaultRemoveFileArgv   = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "rm -f /data/local/tmp/{TEMP_FILE}")
)

// RawWithGzip pipes raw `screencap` output through gzip on the device.
type RawWithGzip struct {
	unit.Base
	helper Helper

	screencapArgv unit.Argv
}

func NewRawWithGzip() *RawWithGzip {
	return &RawWithGzip{}
}

func (s *RawWithGzip) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(unit.CommandSpec{Name: "ScreencapRawWithGzip", Default: defaultRawWithGzipArgv, Dest: &s.screencapArgv})
}

func (s *RawWithGzip) Init(width, height int) error {
	return nil
}

func (s *RawWithGzip) SetWH(width, height int) error {
	return nil
}

func (s *RawWithGzip) Deinit() {}

func (s *RawWithGzip) Screencap() (*types.Frame, error) {
	output, err := s.Command(s.screencapArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	return s.helper.Process(output, DecodeGzip)
}

// Encode reads `screencap -p` PNG output from exec-out.
type Encode struct {
	unit.Base
	helper Helper

	screencapArgv unit.Argv
}

func NewEncode() *Encode {
	return &Encode{}
}

func (s *Encode) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(unit.CommandSpec{Name: "ScreencapEncode", Default: defaultEncodeArgv, Dest: &s.screencapArgv})
}

func (s *Encode) Init(width, height int) error {
	return nil
}

func (s *Encode) SetWH(width, height int) error {
	return nil
}

func (s *Encode) Deinit() {}

func (s *Encode) Screencap() (*types.Frame, error) {
	output, err := s.Command(s.screencapArgv, nil, false, unit.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	return s.helper.Process(output, DecodePNG)
}

// EncodeToFile writes a PNG on the device and pulls it to a host temp file,
// which is binary safe on every transport.
type EncodeToFile struct {
	unit.Base

	tempFile string
	dstPath  string

	screencapArgv  unit.Argv
	pullArgv       unit.Argv
	removeFileArgv unit.Argv
}

func NewEncodeToFile() *EncodeToFile {
	return &EncodeToFile{}
}

func (s *EncodeToFile) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "ScreencapEncodeToFile", Default: defaultEncodeToFileArgv, Dest: &s.screencapArgv},
		unit.CommandSpec{Name: "PullFile", Default: defaultPullFileArgv, Dest: &s.pullArgv},
		unit.CommandSpec{Name: "RemoveFile", Default: defaultRemoveFileArgv, Dest: &s.removeFileArgv},
	)
}

func (s *EncodeToFile) Init(width, height int) error {
	id := uuid.NewString()
	s.tempFile = fmt.Sprintf("adbctl_%s.png", id)
	s.dstPath = filepath.Join(os.TempDir(), fmt.Sprintf("adbctl-%s.png", id))
	return nil
}

func (s *EncodeToFile) SetWH(width, height int) error {
	return nil
}

func (s *EncodeToFile) Deinit() {
	if s.tempFile == "" {
		return
	}
	if _, err := s.Command(s.removeFileArgv, unit.Replacement{unit.TokenTempFile: s.tempFile}, false, unit.DefaultTimeout); err != nil {
		utils.Verbose("failed to remove %s: %v", s.tempFile, err)
	}
	_ = os.Remove(s.dstPath)
	s.tempFile = ""
	s.dstPath = ""
}

func (s *EncodeToFile) Screencap() (*types.Frame, error) {
	if s.tempFile == "" {
		return nil, ErrNotInitialized
	}

	extra := unit.Replacement{
		unit.TokenTempFile: s.tempFile,
		unit.TokenDstPath:  s.dstPath,
	}
	if _, err := s.Command(s.screencapArgv, extra, false, unit.DefaultTimeout); err != nil {
		return nil, err
	}
	if _, err := s.Command(s.pullArgv, extra, false, unit.DefaultTimeout); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.dstPath)
	_ = os.Remove(s.dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pulled screencap: %w", err)
	}
	return DecodePNG(data)
}
