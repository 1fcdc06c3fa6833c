// Package config provides tack's configuration: a TOML file in the
// workspace root with hot-reload, merged with settings the editor pushes
// via workspace/didChangeConfiguration. Reads are lock-free snapshots.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/tidwall/gjson"
)

// WorkspaceModeOpenFilesOnly is the only workspace mode tack has: nothing
// is indexed unless it is open in an editor buffer.
const WorkspaceModeOpenFilesOnly = "openFilesOnly"

// Command is an argument vector. In TOML it may be written either as an
// array of tokens or as a single shell-quoted string.
type Command []string

// UnmarshalTOML accepts both forms.
func (c *Command) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		tokens, err := shellquote.Split(val)
		if err != nil {
			return fmt.Errorf("splitting command %q: %w", val, err)
		}
		*c = tokens
		return nil
	case []interface{}:
		tokens := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("command element %v is not a string", item)
			}
			tokens = append(tokens, s)
		}
		*c = tokens
		return nil
	default:
		return fmt.Errorf("command must be a string or an array of strings, got %T", v)
	}
}

// Config is the read-only configuration snapshot threaded through the
// session. Mutation happens only by swapping a whole new value into the
// Store.
type Config struct {
	WorkspaceMode string  `toml:"workspaceMode"`
	CheckOnSave   bool    `toml:"checkOnSave"`
	CheckCommand  Command `toml:"checkCommand"`
	LogLevel      string  `toml:"logLevel"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		WorkspaceMode: WorkspaceModeOpenFilesOnly,
		CheckOnSave:   true,
		CheckCommand:  Command{"cargo", "check", "-q", "--message-format=json"},
		LogLevel:      "warn",
	}
}

// Validate rejects values the rest of the server cannot act on.
func (c *Config) Validate() error {
	if c.WorkspaceMode != "" && !strings.EqualFold(c.WorkspaceMode, WorkspaceModeOpenFilesOnly) {
		return fmt.Errorf("unsupported workspaceMode %q", c.WorkspaceMode)
	}
	if len(c.CheckCommand) == 0 {
		return fmt.Errorf("checkCommand must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("unknown logLevel %q", c.LogLevel)
	}
	return nil
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// ApplySettings returns a copy of c updated from an editor settings blob.
// Settings may be nested under a "tack" key or sit at the top level; absent
// keys keep their current values, malformed ones are ignored.
func (c Config) ApplySettings(settings []byte) Config {
	root := gjson.ParseBytes(settings)
	if inner := root.Get("tack"); inner.IsObject() {
		root = inner
	}

	if mode := root.Get("workspaceMode"); mode.Type == gjson.String {
		if strings.EqualFold(mode.String(), WorkspaceModeOpenFilesOnly) {
			c.WorkspaceMode = WorkspaceModeOpenFilesOnly
		}
	}

	if check := root.Get("checkOnSave"); check.IsBool() {
		c.CheckOnSave = check.Bool()
	}

	if cmd := root.Get("checkCommand"); cmd.IsArray() {
		var tokens Command
		for _, item := range cmd.Array() {
			if item.Type == gjson.String {
				tokens = append(tokens, item.String())
			}
		}
		if len(tokens) > 0 {
			c.CheckCommand = tokens
		}
	}

	if level := root.Get("logLevel"); level.Type == gjson.String {
		switch strings.ToLower(level.String()) {
		case "error", "warn", "info", "debug":
			c.LogLevel = strings.ToLower(level.String())
		}
	}

	return c
}
