// Package config handles texturing configuration loading and management.
package config

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/autotex/internal/views"
)

// Config holds all pipeline settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Textures TextureConfig  `yaml:"textures"`
	// Views replaces the built-in top/side registry when non-empty.
	Views []views.ViewConfig `yaml:"views,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	ContinueOnBindFailure bool   `yaml:"continue_on_bind_failure"` // Keep going when a texture fails to bind
	StatusMessage         string `yaml:"status_message"`           // Message written to the success status file
}

// TextureConfig holds texture loading settings.
type TextureConfig struct {
	MaxSize int `yaml:"max_size"` // Longest edge in pixels, 0 = keep original size
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Pipeline: PipelineConfig{
			ContinueOnBindFailure: false,
			StatusMessage:         "texturing completed successfully",
		},
		Textures: TextureConfig{
			MaxSize: 0,
		},
	}
}

// ViewRegistry returns the configured views, or the built-in registry.
func (c *Config) ViewRegistry() []views.ViewConfig {
	if len(c.Views) > 0 {
		return c.Views
	}
	return views.Default()
}

// Validate rejects settings the pipeline cannot run with. Camera
// intrinsics are checked later, once defaults are filled in.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Textures.MaxSize < 0 {
		return errors.Errorf("textures.max_size must not be negative, got %d", c.Textures.MaxSize)
	}
	for _, v := range c.Views {
		if err := v.Selection.Validate(); err != nil {
			return errors.Wrapf(err, "view %q", v.Name)
		}
	}
	return nil
}
