// Package config handles nic.toml configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "nic.toml"

// Config holds settings for running a program. Command line
// flags that are set explicitly take precedence over it.
type Config struct {
	Run   Run   `toml:"run"`
	Paint Paint `toml:"paint"`
	Amp   Amp   `toml:"amp"`

	// Path is the file the configuration was read from (set at load time).
	Path string `toml:"-"`
}

// Run configures the console.
//
// Patch lists memory cells to set before the program runs, as
// "addr=value" pairs separated by commas. Mem, if set, is the address
// of a memory cell to print once the program halts.
type Run struct {
	Input  []int64 `toml:"input"`
	Buffer int     `toml:"buffer"`
	Trace  bool    `toml:"trace"`
	Patch  string  `toml:"patch"`
	Mem    *int    `toml:"mem"`
}

// Paint configures the hull painting robot.
type Paint struct {
	Start int64  `toml:"start"`
	PNG   string `toml:"png"`
	Scale int    `toml:"scale"`

	// Enabled reports whether the file has a [paint] table.
	Enabled bool `toml:"-"`
}

// Amp configures the amplifier phase search.
// Phases is either a range such as "5-9" or a list such as "0,1,2,3,4".
type Amp struct {
	Phases   string `toml:"phases"`
	Feedback bool   `toml:"feedback"`
}

// DefaultScale is the number of pixels per panel in hull images.
const DefaultScale = 8

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{Paint: Paint{Scale: DefaultScale}}
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, keys[0].String())
	}
	c.Paint.Enabled = md.IsDefined("paint")
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Run.Buffer < 0 {
		return fmt.Errorf("run.buffer is %d, must not be negative", c.Run.Buffer)
	}
	if m := c.Run.Mem; m != nil && *m < 0 {
		return fmt.Errorf("run.mem is %d, must not be negative", *m)
	}
	if s := c.Paint.Start; s != 0 && s != 1 {
		return fmt.Errorf("paint.start is %d, must be 0 or 1", s)
	}
	if c.Paint.Scale < 1 {
		return errors.New("paint.scale must be at least 1")
	}
	return nil
}

// FindAndLoad walks up from startDir to find a nic.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}
