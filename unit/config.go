package unit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoCommandSection is returned when the config has no "command" object.
var ErrNoCommandSection = errors.New(`config has no "command" object`)

// Config is the controller JSON configuration consumed by every unit's Parse.
//
//	{
//	  "command":  {"Click": ["{ADB}", "-s", "{ADB_SERIAL}", "shell", "input tap {X} {Y}"]},
//	  "prebuilt": {"minitouch": {"root": "./minitouch", "arch": ["x86_64", "arm64-v8a"]}}
//	}
type Config struct {
	Commands map[string]json.RawMessage `json:"command"`
	Prebuilt map[string]json.RawMessage `json:"prebuilt"`
}

// ParseConfig decodes a JSON object into a Config. An empty input yields an
// empty Config, which every unit then rejects for lacking "command".
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse controller config: %w", err)
	}
	return cfg, nil
}

// Command returns the template registered under name, or def if the
// "command" object does not carry that key.
func (c Config) Command(name string, def Argv) (Argv, error) {
	if c.Commands == nil {
		return Argv{}, ErrNoCommandSection
	}

	raw, ok := c.Commands[name]
	if !ok {
		return def, nil
	}

	argv, err := ParseArgv(raw)
	if err != nil {
		return Argv{}, fmt.Errorf("command %s: %w", name, err)
	}
	return argv, nil
}

// PrebuiltSection decodes prebuilt.<name> into v. A missing section leaves v untouched.
func (c Config) PrebuiltSection(name string, v interface{}) error {
	raw, ok := c.Prebuilt[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("prebuilt %s: %w", name, err)
	}
	return nil
}

// CommandSpec binds a command name and its default to a destination template.
type CommandSpec struct {
	Name    string
	Default Argv
	Dest    *Argv
}

// ParseCommands resolves every spec against c, stopping at the first failure.
func (c Config) ParseCommands(specs ...CommandSpec) error {
	for _, s := range specs {
		argv, err := c.Command(s.Name, s.Default)
		if err != nil {
			return err
		}
		*s.Dest = argv
	}
	return nil
}
