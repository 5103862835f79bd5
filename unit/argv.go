package unit

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Well-known replacement tokens.
const (
	TokenAdb            = "{ADB}"
	TokenAdbSerial      = "{ADB_SERIAL}"
	TokenX              = "{X}"
	TokenY              = "{Y}"
	TokenX1             = "{X1}"
	TokenY1             = "{Y1}"
	TokenX2             = "{X2}"
	TokenY2             = "{Y2}"
	TokenDuration       = "{DURATION}"
	TokenIntent         = "{INTENT}"
	TokenKey            = "{KEY}"
	TokenText           = "{TEXT}"
	TokenNetcatAddress  = "{NETCAT_ADDRESS}"
	TokenNetcatPort     = "{NETCAT_PORT}"
	TokenTempFile       = "{TEMP_FILE}"
	TokenDstPath        = "{DST_PATH}"
	TokenBinPath        = "{BIN_PATH}"
	TokenBinWorkingFile = "{BIN_WORKING_FILE}"
	TokenBinExtraParams = "{BIN_EXTRA_PARAMS}"
	TokenLibPath        = "{LIB_PATH}"
	TokenLibWorkingFile = "{LIB_WORKING_FILE}"
	TokenAppSrc         = "{APP_SRC}"
	TokenAppWorkingFile = "{APP_WORKING_FILE}"
	TokenPackageName    = "{PACKAGE_NAME}"
	TokenForwardPort    = "{FORWARD_PORT}"
	TokenLocalSocket    = "{LOCAL_SOCKET}"
)

var tokenPattern = regexp.MustCompile(`\{[A-Z][A-Z0-9_]*\}`)

// Argv is an ordered command template. It is immutable once parsed.
type Argv struct {
	args []string
}

// NewArgv builds a template from literal elements.
func NewArgv(args ...string) Argv {
	return Argv{args: append([]string(nil), args...)}
}

// ParseArgv parses a JSON array of strings into a template.
func ParseArgv(data json.RawMessage) (Argv, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Argv{}, fmt.Errorf("command template is not an array: %w", err)
	}

	args := make([]string, 0, len(raw))
	for i, elem := range raw {
		var s string
		if err := json.Unmarshal(elem, &s); err != nil {
			return Argv{}, fmt.Errorf("command template element %d is not a string: %s", i, string(elem))
		}
		args = append(args, s)
	}

	return Argv{args: args}, nil
}

// Len returns the number of template elements.
func (a Argv) Len() int {
	return len(a.args)
}

// Raw returns a copy of the unsubstituted template.
func (a Argv) Raw() []string {
	out := make([]string, len(a.args))
	copy(out, a.args)
	return out
}

// Generate substitutes every token of r into every element. Tokens that are
// not in r are left as-is.
func (a Argv) Generate(r Replacement) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		pairs = append(pairs, k, r[k])
	}
	replacer := strings.NewReplacer(pairs...)

	out := make([]string, len(a.args))
	for i, s := range a.args {
		out[i] = replacer.Replace(s)
	}
	return out
}

// Unresolved returns the template tokens r has no value for. Shell
// expansions such as ${HOME} are not tokens. Values substituted into the
// template are never inspected.
func (a Argv) Unresolved(r Replacement) []string {
	var found []string
	for _, s := range a.args {
		for _, loc := range tokenPattern.FindAllStringIndex(s, -1) {
			if loc[0] > 0 && s[loc[0]-1] == '$' {
				continue
			}
			token := s[loc[0]:loc[1]]
			if _, ok := r[token]; !ok {
				found = append(found, token)
			}
		}
	}
	return found
}
