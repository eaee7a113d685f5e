package config

import (
	"errors"
	"flag"
	"io"
)

// Separator splits flags from the positional pipeline arguments.
const Separator = "--"

// ErrNoSeparator is returned when the argument list lacks Separator.
var ErrNoSeparator = errors.New("argument separator '--' not found")

// Flags holds command-line overrides.
type Flags struct {
	ConfigPath            string
	Debug                 bool
	ContinueOnBindFailure bool
	MaxTextureSize        int
	DumpConfig            string

	fs *flag.FlagSet
}

// NewFlags registers the flags on a fresh FlagSet.
func NewFlags(name string, output io.Writer) *Flags {
	f := &Flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.SetOutput(output)
	f.fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	f.fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	f.fs.BoolVar(&f.ContinueOnBindFailure, "continue-on-bind-failure", false, "Keep processing views when a texture fails to bind")
	f.fs.IntVar(&f.MaxTextureSize, "max-texture-size", 0, "Downscale textures whose longest edge exceeds this many pixels")
	f.fs.StringVar(&f.DumpConfig, "dump-config", "", "Write the effective config to this path")
	return f
}

// Parse parses the flags before Separator and returns the arguments after it.
func (f *Flags) Parse(args []string) ([]string, error) {
	sep := -1
	for i, a := range args {
		if a == Separator {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, ErrNoSeparator
	}
	if err := f.fs.Parse(args[:sep]); err != nil {
		return nil, err
	}
	return args[sep+1:], nil
}

// PrintDefaults writes flag help to the FlagSet output.
func (f *Flags) PrintDefaults() {
	f.fs.PrintDefaults()
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.ContinueOnBindFailure {
		cfg.Pipeline.ContinueOnBindFailure = true
	}
	if f.MaxTextureSize > 0 {
		cfg.Textures.MaxSize = f.MaxTextureSize
	}
}
