package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SaveTo writes the effective config to path as YAML, with the view
// registry spelled out so it can be edited and loaded back.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	out := *c
	out.Views = c.ViewRegistry()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
