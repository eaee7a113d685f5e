package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LocalFile is the config file looked up in the working directory.
const LocalFile = "autotex.yaml"

// Load builds the effective config: defaults, then the config file, then
// flag overrides. f must already be parsed.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	path := f.ConfigPath
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", path)
		}
	}

	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists where Load looks for a config file when none is given.
func SearchPaths() []string {
	return []string{
		filepath.Join(".", LocalFile),
		filepath.Join(ConfigDir(), "config.yaml"),
	}
}

func findConfigFile() string {
	for _, path := range SearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user autotex config directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "autotex")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "autotex")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autotex")
	}
	return filepath.Join(home, ".config", "autotex")
}

// loadFromFile merges the YAML file at path into cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
