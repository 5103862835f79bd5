package unit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"array of strings", `["{ADB}", "-s", "{ADB_SERIAL}"]`, []string{"{ADB}", "-s", "{ADB_SERIAL}"}, false},
		{"empty array", `[]`, []string{}, false},
		{"object", `{"a": "b"}`, nil, true},
		{"string", `"adb"`, nil, true},
		{"number element", `["adb", 1]`, nil, true},
		{"nested array element", `["adb", ["x"]]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := ParseArgv(json.RawMessage(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, argv.Raw())
		})
	}
}

func TestArgvGenerate(t *testing.T) {
	argv := NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "shell", "input swipe {X1} {Y1} {X2} {Y2} {DURATION}", "{X1}{X1}")
	r := Replacement{
		TokenAdb:       "adb",
		TokenAdbSerial: "127.0.0.1:5555",
		TokenX1:        "10",
		TokenY1:        "20",
		TokenX2:        "30",
		TokenY2:        "40",
	}

	got := argv.Generate(r)
	assert.Equal(t, []string{"adb", "-s", "127.0.0.1:5555", "shell", "input swipe 10 20 30 40 {DURATION}", "1010"}, got)
	assert.Equal(t, []string{"{DURATION}"}, argv.Unresolved(r))

	// generating again from the output changes nothing
	again := NewArgv(got...).Generate(r)
	assert.Equal(t, got, again)

	// the template itself is not modified
	assert.Equal(t, "{ADB}", argv.Raw()[0])
}

func TestArgvGenerate_LeavesUnknownTokens(t *testing.T) {
	argv := NewArgv("{ADB}", "{UNKNOWN}", "awk '{print $1}'")
	r := Replacement{TokenAdb: "adb"}
	got := argv.Generate(r)
	assert.Equal(t, []string{"adb", "{UNKNOWN}", "awk '{print $1}'"}, got)
	assert.Equal(t, []string{"{UNKNOWN}"}, argv.Unresolved(r))
}

func TestArgvUnresolved_TemplateOnly(t *testing.T) {
	tests := []struct {
		name     string
		argv     Argv
		r        Replacement
		expected []string
	}{
		{"braces in a value", NewArgv("{ADB}", "shell", "input text {TEXT}"), Replacement{TokenAdb: "adb", TokenText: "{HELLO}"}, nil},
		{"shell expansion", NewArgv("{ADB}", "shell", "ls ${HOME}/{TEMP_FILE}"), Replacement{TokenAdb: "adb", TokenTempFile: "a.png"}, nil},
		{"empty value resolves", NewArgv("{BIN_EXTRA_PARAMS}"), Replacement{TokenBinExtraParams: ""}, nil},
		{"missing token", NewArgv("{ADB}", "-s", "{ADB_SERIAL}"), Replacement{TokenAdb: "adb"}, []string{"{ADB_SERIAL}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.argv.Unresolved(tt.r))
		})
	}
}

func TestReplacementMerge(t *testing.T) {
	base := Replacement{"{A}": "1", "{B}": "2"}

	t.Run("override is right biased", func(t *testing.T) {
		m := base.Clone()
		m.Merge(Replacement{"{B}": "3", "{C}": "4"}, true)
		m.Merge(Replacement{"{C}": "5", "{D}": "6"}, true)

		single := base.Clone()
		combined := Replacement{"{B}": "3", "{C}": "4"}
		combined.Merge(Replacement{"{C}": "5", "{D}": "6"}, true)
		single.Merge(combined, true)

		assert.Equal(t, single, m)
		assert.Equal(t, Replacement{"{A}": "1", "{B}": "3", "{C}": "5", "{D}": "6"}, m)
	})

	t.Run("additive keeps existing", func(t *testing.T) {
		m := base.Clone()
		m.Merge(Replacement{"{B}": "3", "{C}": "4"}, false)
		assert.Equal(t, Replacement{"{A}": "1", "{B}": "2", "{C}": "4"}, m)
	})

	t.Run("with does not mutate", func(t *testing.T) {
		out := base.With(Replacement{"{A}": "9"})
		assert.Equal(t, "9", out["{A}"])
		assert.Equal(t, "1", base["{A}"])
	})
}
