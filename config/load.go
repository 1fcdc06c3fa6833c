package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileName is the workspace-root config file tack looks for.
const FileName = ".tack.toml"

// Load reads a TOML config file over the given defaults. A missing file is
// not an error: the defaults are returned unchanged.
func Load(path string, defaults Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaults
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return defaults, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return defaults, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}
