package input

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/unit/unittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bind(t *testing.T, u unit.Unit, io unit.IO, config string) {
	t.Helper()
	cfg, err := unit.ParseConfig([]byte(config))
	require.NoError(t, err)
	require.NoError(t, u.Parse(cfg))
	u.SetIO(io)
	u.SetReplacement(unit.Replacement{unit.TokenAdb: "adb", unit.TokenAdbSerial: "emulator-5554"})
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("bin"), 0o755))
}

func prebuiltConfig(t *testing.T) string {
	root := filepath.ToSlash(t.TempDir())
	writeFile(t, filepath.Join(root, "x86_64", "bin", "minitouch"))
	writeFile(t, filepath.Join(root, "maatouch"))
	return `{"command": {}, "prebuilt": {
		"minitouch": {"root": "` + root + `", "arch": ["x86_64"]},
		"maatouch": {"root": "` + root + `", "package": "com.shxyke.MaaTouch.App"}}}`
}

func TestParseMethods(t *testing.T) {
	touch, err := ParseTouchMethod("MiniTouch")
	require.NoError(t, err)
	assert.Equal(t, TouchMinitouch, touch)

	touch, err = ParseTouchMethod("")
	require.NoError(t, err)
	assert.Equal(t, TouchAutoDetect, touch)

	_, err = ParseTouchMethod("scrcpy")
	assert.Error(t, err)

	key, err := ParseKeyMethod("maatouch")
	require.NoError(t, err)
	assert.Equal(t, KeyMaatouch, key)
	assert.Equal(t, "adb", KeyAdb.String())

	_, err = ParseKeyMethod("minitouch")
	assert.Error(t, err)
}

func TestAdbTap(t *testing.T) {
	io := unittest.NewFakeIO().On("input", "", nil)
	a := NewAdbTap()
	bind(t, a, io, `{"command": {}}`)

	require.NoError(t, a.Init(1280, 720, 0))
	require.NoError(t, a.Click(10, 20))
	require.NoError(t, a.Swipe(1, 2, 3, 4, 0))
	require.NoError(t, a.Swipe(1, 2, 3, 4, 750*time.Millisecond))

	calls := io.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"adb", "-s", "emulator-5554", "shell", "input tap 10 20"}, calls[0].Argv)
	assert.Equal(t, "input swipe 1 2 3 4 200", calls[1].Argv[4])
	assert.Equal(t, "input swipe 1 2 3 4 750", calls[2].Argv[4])

	assert.ErrorIs(t, a.TouchDown(0, 1, 1), ErrUnsupported)
	assert.ErrorIs(t, a.TouchMove(0, 1, 1), ErrUnsupported)
	assert.ErrorIs(t, a.TouchUp(0), ErrUnsupported)
	assert.ErrorIs(t, a.MultiSwipe([]types.SwipeParam{{}}), ErrUnsupported)
}

func TestAdbTap_ConfiguredCommand(t *testing.T) {
	io := unittest.NewFakeIO().On("tap", "", nil)
	a := NewAdbTap()
	bind(t, a, io, `{"command": {"Click": ["{ADB}", "-s", "{ADB_SERIAL}", "shell", "input touchscreen tap {X} {Y}"]}}`)

	require.NoError(t, a.Click(5, 6))
	assert.Equal(t, "input touchscreen tap 5 6", io.Calls()[0].Argv[4])
}

func TestAdbKey(t *testing.T) {
	io := unittest.NewFakeIO().On("input", "", nil)
	k := NewAdbKey()
	bind(t, k, io, `{"command": {}}`)

	require.NoError(t, k.PressKey(4))
	require.NoError(t, k.InputText("hello world"))

	calls := io.Calls()
	assert.Equal(t, "input keyevent 4", calls[0].Argv[4])
	assert.Equal(t, "input text hello%sworld", calls[1].Argv[4])
}

func TestAdbKey_InputTextLiteralBraces(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"{HELLO}", "input text {HELLO}"},
		{"{ADB_SERIAL}", "input text {ADB_SERIAL}"},
		{"json {a:1}", "input text json%s{a:1}"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			io := unittest.NewFakeIO().On("input", "", nil)
			k := NewAdbKey()
			bind(t, k, io, `{"command": {}}`)

			require.NoError(t, k.InputText(tt.text))
			calls := io.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.want, calls[0].Argv[4])
		})
	}
}

func TestAdbKey_DeviceError(t *testing.T) {
	io := unittest.NewFakeIO().On("input", "", errors.New("device offline"))
	k := NewAdbKey()
	bind(t, k, io, `{"command": {}}`)
	assert.Error(t, k.PressKey(3))
}

func Test_escapeInputText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"two words", "two%swords"},
		{"a&b;c", `a\&b\;c`},
		{`it's "quoted"`, `it\'s%s\"quoted\"`},
		{"$HOME", `\$HOME`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeInputText(tt.in))
		})
	}
}

func TestMinitouch_Lifecycle(t *testing.T) {
	pipe := unittest.NewFakePipe(negotiation)
	io := unittest.NewFakeIO().
		On("abilist", "x86_64\n", nil).
		On("push", "1 file pushed", nil).
		On("chmod", "", nil).
		On("rm -f", "", nil).
		OnInteractive("LD_LIBRARY_PATH", func([]string) (unit.Pipe, error) { return pipe, nil })

	m := NewMinitouch(device.NewInfo())
	bind(t, m, io, prebuiltConfig(t))
	m.sleep = func(time.Duration) {}

	assert.ErrorIs(t, m.Click(1, 1), ErrNotInitialized)

	require.NoError(t, m.Init(1280, 720, 1))
	assert.Contains(t, io.Interactives()[0][4], " -i 2>&1")
	assert.Equal(t, 2560, m.Geometry().TouchWidth)

	require.NoError(t, m.Click(640, 360))
	assert.Equal(t, "d 0 720 1280 50\nc\nu 0\nc\n", pipe.Written())

	require.NoError(t, m.SetWH(720, 1280, 0))
	assert.Equal(t, 1440, m.Geometry().TouchWidth)

	m.Deinit()
	m.Deinit()
	assert.Equal(t, 1, pipe.Closed())
	assert.Len(t, io.CallsMatching("rm -f"), 1)
}

func TestMinitouch_NegotiationFailure(t *testing.T) {
	pipe := unittest.NewFakePipe("minitouch: unable to open device\n")
	io := unittest.NewFakeIO().
		On("abilist", "x86_64\n", nil).
		On("push", "1 file pushed", nil).
		On("chmod", "", nil).
		On("rm -f", "", nil).
		OnInteractive("LD_LIBRARY_PATH", func([]string) (unit.Pipe, error) { return pipe, nil })

	m := NewMinitouch(device.NewInfo())
	bind(t, m, io, prebuiltConfig(t))

	assert.Error(t, m.Init(1280, 720, 0))
	assert.Equal(t, 1, pipe.Closed())
	assert.Len(t, io.CallsMatching("rm -f"), 1, "pushed binary is removed again")
}

func TestMaatouch_Lifecycle(t *testing.T) {
	pipe := unittest.NewFakePipe(negotiation)
	io := unittest.NewFakeIO().
		On("push", "1 file pushed", nil).
		On("rm -f", "", nil).
		On("input text", "", nil).
		OnInteractive("app_process", func([]string) (unit.Pipe, error) { return pipe, nil })

	m := NewMaatouch()
	bind(t, m, io, prebuiltConfig(t))

	assert.ErrorIs(t, m.InputText("x"), ErrNotInitialized)

	require.NoError(t, m.Init(1280, 720, 1))
	require.NoError(t, m.Click(100, 50))
	require.NoError(t, m.PressKey(26))
	assert.Equal(t, "d 0 200 100 50\nc\nu 0\nc\nk 26 d\nc\nk 26 u\nc\n", pipe.Written())

	require.NoError(t, m.InputText("ok"))
	assert.Len(t, io.CallsMatching("input text ok"), 1)

	m.Deinit()
	m.Deinit()
	assert.Equal(t, 1, pipe.Closed())
}
