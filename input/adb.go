package input

import (
	"strconv"
	"strings"
	"time"

	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
)

var (
	defaultClickArgv     = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "input tap {X} {Y}")
	defaultSwipeArgv     = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "input swipe {X1} {Y1} {X2} {Y2} {DURATION}")
	defaultPressKeyArgv  = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "input keyevent {KEY}")
	defaultInputTextArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "input text {TEXT}")
)

// AdbTap taps and swipes through `adb shell input`. It has no notion of
// contacts, so the low level touch calls are unsupported.
type AdbTap struct {
	unit.Base

	clickArgv unit.Argv
	swipeArgv unit.Argv
}

func NewAdbTap() *AdbTap {
	return &AdbTap{}
}

func (a *AdbTap) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "Click", Default: defaultClickArgv, Dest: &a.clickArgv},
		unit.CommandSpec{Name: "Swipe", Default: defaultSwipeArgv, Dest: &a.swipeArgv},
	)
}

func (a *AdbTap) Init(width, height, orientation int) error {
	return nil
}

func (a *AdbTap) SetWH(width, height, orientation int) error {
	return nil
}

func (a *AdbTap) Deinit() {}

func (a *AdbTap) Click(x, y int) error {
	_, err := a.Command(a.clickArgv, unit.Replacement{
		unit.TokenX: strconv.Itoa(x),
		unit.TokenY: strconv.Itoa(y),
	}, false, unit.DefaultTimeout)
	return err
}

func (a *AdbTap) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	if duration <= 0 {
		duration = DefaultSwipeDuration
	}
	_, err := a.Command(a.swipeArgv, unit.Replacement{
		unit.TokenX1:       strconv.Itoa(x1),
		unit.TokenY1:       strconv.Itoa(y1),
		unit.TokenX2:       strconv.Itoa(x2),
		unit.TokenY2:       strconv.Itoa(y2),
		unit.TokenDuration: strconv.FormatInt(duration.Milliseconds(), 10),
	}, false, unit.DefaultTimeout)
	return err
}

func (a *AdbTap) MultiSwipe(params []types.SwipeParam) error {
	return ErrUnsupported
}

func (a *AdbTap) TouchDown(contact, x, y int) error {
	return ErrUnsupported
}

func (a *AdbTap) TouchMove(contact, x, y int) error {
	return ErrUnsupported
}

func (a *AdbTap) TouchUp(contact int) error {
	return ErrUnsupported
}

// AdbKey sends key events and text through `adb shell input`.
type AdbKey struct {
	unit.Base

	pressKeyArgv  unit.Argv
	inputTextArgv unit.Argv
}

func NewAdbKey() *AdbKey {
	return &AdbKey{}
}

func (a *AdbKey) Parse(cfg unit.Config) error {
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "PressKey", Default: defaultPressKeyArgv, Dest: &a.pressKeyArgv},
		unit.CommandSpec{Name: "InputText", Default: defaultInputTextArgv, Dest: &a.inputTextArgv},
	)
}

func (a *AdbKey) Init(width, height, orientation int) error {
	return nil
}

func (a *AdbKey) Deinit() {}

func (a *AdbKey) PressKey(key int) error {
	_, err := a.Command(a.pressKeyArgv, unit.Replacement{unit.TokenKey: strconv.Itoa(key)}, false, unit.DefaultTimeout)
	return err
}

func (a *AdbKey) InputText(text string) error {
	_, err := a.Command(a.inputTextArgv, unit.Replacement{unit.TokenText: escapeInputText(text)}, false, unit.DefaultTimeout)
	return err
}

var inputTextEscaper = strings.NewReplacer(
	" ", "%s",
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"`", "\\`",
	"$", `\$`,
	"&", `\&`,
	"|", `\|`,
	";", `\;`,
	"<", `\<`,
	">", `\>`,
	"(", `\(`,
	")", `\)`,
	"*", `\*`,
	"~", `\~`,
)

// escapeInputText prepares text for `input text` under the remote shell,
// which reads %s as a space.
func escapeInputText(text string) string {
	return inputTextEscaper.Replace(text)
}
