package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/autotex/internal/views"
)

const bottomViewYAML = `
logging:
  level: debug
  log_file: texturing.log
pipeline:
  continue_on_bind_failure: true
  status_message: done
textures:
  max_size: 1024
views:
  - name: Camera_Bottom
    camera:
      location: [0, 0, -16]
      rotation: {x: 3.14159265, y: 0, z: 0}
    material_name: Material_Bottom
    texture: bottom.png
    selection:
      axis: 2
      find_max: false
      epsilon: 0.5
      normal_direction: [0, 0, -1]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autotex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func parsedFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	f := NewFlags("autotex", io.Discard)
	_, err := f.Parse(append(args, Separator))
	require.NoError(t, err)
	return f
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.LogFile)
	assert.False(t, cfg.Pipeline.ContinueOnBindFailure)
	assert.NotEmpty(t, cfg.Pipeline.StatusMessage)
	assert.Zero(t, cfg.Textures.MaxSize)
	assert.Len(t, cfg.ViewRegistry(), 2)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	cfg := Default()
	require.NoError(t, loadFromFile(cfg, writeConfig(t, bottomViewYAML)))

	assert.Equal(t, LoggingConfig{Level: "debug", LogFile: "texturing.log"}, cfg.Logging)
	assert.Equal(t, PipelineConfig{ContinueOnBindFailure: true, StatusMessage: "done"}, cfg.Pipeline)
	assert.Equal(t, 1024, cfg.Textures.MaxSize)

	reg := cfg.ViewRegistry()
	require.Len(t, reg, 1)
	v := reg[0]
	assert.Equal(t, "Camera_Bottom", v.Name)
	assert.Equal(t, "bottom.png", v.Texture)
	assert.Equal(t, -16.0, v.Camera.Location[2])
	assert.False(t, v.Selection.FindMax)
	assert.Equal(t, -1.0, v.Selection.NormalDirection[2])

	// intrinsics were omitted and are filled on resolve
	resolved, err := views.Resolve(reg, nil)
	require.NoError(t, err)
	assert.Equal(t, views.DefaultIntrinsics(), resolved[0].Intrinsics)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "textures:\n  max_size: not a number\n  invalid syntax here\n")
		assert.Error(t, loadFromFile(Default(), path))
	})
	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, loadFromFile(Default(), filepath.Join(t.TempDir(), "absent.yaml")))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"warning level", func(c *Config) { c.Logging.Level = "warning" }, false},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"negative max size", func(c *Config) { c.Textures.MaxSize = -1 }, true},
		{"bad selection axis", func(c *Config) {
			c.Views = views.Default()
			c.Views[1].Selection.Axis = 3
		}, true},
		{"negative epsilon", func(c *Config) {
			c.Views = views.Default()
			c.Views[0].Selection.Epsilon = -0.1
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	assert.NotEmpty(t, dir)
	assert.Equal(t, "autotex", filepath.Base(dir))
}

func TestSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	paths := SearchPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, LocalFile, filepath.Base(paths[0]))
	assert.Equal(t, filepath.Join(ConfigDir(), "config.yaml"), paths[1])
}

func TestFindConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))

	assert.Empty(t, findConfigFile())

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("user config dir does not follow XDG_CONFIG_HOME")
	}
	user := filepath.Join(ConfigDir(), "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(user), 0o755))
	require.NoError(t, os.WriteFile(user, []byte("textures:\n  max_size: 64\n"), 0o644))
	assert.Equal(t, user, findConfigFile())

	// the working directory wins over the user config
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalFile), []byte("textures:\n  max_size: 512\n"), 0o644))
	assert.Equal(t, filepath.Join(".", LocalFile), findConfigFile())
}

func TestFlagsParse(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantPos []string
		wantErr error
		verify  func(t *testing.T, f *Flags)
	}{
		{
			name:    "positional only",
			args:    []string{"--", "model.ply", "top.png", "side.png", "out.glb"},
			wantPos: []string{"model.ply", "top.png", "side.png", "out.glb"},
		},
		{
			name:    "flags before separator",
			args:    []string{"-debug", "-max-texture-size", "256", "--", "m.obj", "t.png", "s.png", "o.glb", "log.txt"},
			wantPos: []string{"m.obj", "t.png", "s.png", "o.glb", "log.txt"},
			verify: func(t *testing.T, f *Flags) {
				assert.True(t, f.Debug)
				assert.Equal(t, 256, f.MaxTextureSize)
			},
		},
		{
			name:    "host arguments are ignored after separator",
			args:    []string{"--", "-debug"},
			wantPos: []string{"-debug"},
			verify: func(t *testing.T, f *Flags) {
				assert.False(t, f.Debug)
			},
		},
		{
			name:    "missing separator",
			args:    []string{"model.ply", "top.png"},
			wantErr: ErrNoSeparator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlags("autotex", io.Discard)
			pos, err := f.Parse(tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, pos)
			if tt.verify != nil {
				tt.verify(t, f)
			}
		})
	}
}

func TestLoadPriority(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: warn\ntextures:\n  max_size: 2048\n")

	cfg, err := Load(parsedFlags(t, "-config", path, "-max-texture-size", "512"))
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Textures.MaxSize, "flag overrides file")
	assert.Equal(t, "warn", cfg.Logging.Level, "file overrides default")
}

func TestLoadDebugFlag(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: error\n")

	cfg, err := Load(parsedFlags(t, "-config", path, "-debug", "-continue-on-bind-failure"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Pipeline.ContinueOnBindFailure)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"broken yaml":   "views: [unclosed",
		"unknown level": "logging:\n  level: chatty\n",
		"negative size": "textures:\n  max_size: -5\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(parsedFlags(t, "-config", writeConfig(t, body)))
			assert.Error(t, err)
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "autotex.yaml")

	cfg := Default()
	cfg.Pipeline.ContinueOnBindFailure = true
	require.NoError(t, cfg.SaveTo(path))

	loaded := Default()
	require.NoError(t, loadFromFile(loaded, path))
	assert.True(t, loaded.Pipeline.ContinueOnBindFailure)
	require.Len(t, loaded.Views, 2, "default registry is written out")
	assert.Equal(t, views.Default()[0].Camera, loaded.Views[0].Camera)
	assert.Equal(t, views.Default()[1].Selection, loaded.Views[1].Selection)
}
