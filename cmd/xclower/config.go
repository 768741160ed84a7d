package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"xclower/internal/trace"
	"xclower/internal/types"
)

const configFileName = "xclower.toml"

type config struct {
	Target   targetConfig   `toml:"target"`
	Lowering loweringConfig `toml:"lowering"`
	Cache    cacheConfig    `toml:"cache"`
	Trace    traceConfig    `toml:"trace"`

	// path is where the config came from; empty for defaults.
	path string
}

type targetConfig struct {
	IntWidth     int `toml:"int_width"`
	LongWidth    int `toml:"long_width"`
	PointerWidth int `toml:"pointer_width"`
	DoubleWidth  int `toml:"double_width"`
	// MaxAlign caps aggregate alignment in bytes; 0 packs.
	MaxAlign int `toml:"max_align"`
}

type loweringConfig struct {
	MaxTemplateDepth int `toml:"max_template_depth"`
	Jobs             int `toml:"jobs"`
}

type cacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type traceConfig struct {
	Level string `toml:"level"`
}

func defaultConfig() config {
	dm := types.DefaultDataModel()
	return config{
		Target: targetConfig{
			IntWidth:     int(dm.IntWidth),
			LongWidth:    int(dm.LongWidth),
			PointerWidth: int(dm.PointerWidth),
			DoubleWidth:  int(dm.DoubleWidth),
		},
		Lowering: loweringConfig{MaxTemplateDepth: 32},
		Trace:    traceConfig{Level: "off"},
	}
}

const defaultConfigText = `# xclower configuration

[target]
int_width = 16        # plain int / unsigned
long_width = 32
pointer_width = 16
double_width = 32
max_align = 0         # 0 packs aggregates

[lowering]
max_template_depth = 32
jobs = 0              # 0 = GOMAXPROCS

[cache]
enabled = false
dir = ""              # default $XDG_CACHE_HOME/xclower

[trace]
level = "off"
`

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig reads explicit, or the nearest xclower.toml above startDir.
// Missing files yield the defaults; keys absent from a file keep them.
func loadConfig(explicit, startDir string) (config, error) {
	cfg := defaultConfig()
	path := explicit
	if path == "" {
		found, ok, err := findConfig(startDir)
		if err != nil || !ok {
			return cfg, err
		}
		path = found
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.path = path
	if err := cfg.validate(); err != nil {
		return config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c config) validate() error {
	for name, w := range map[string]int{
		"int_width": c.Target.IntWidth, "long_width": c.Target.LongWidth,
		"pointer_width": c.Target.PointerWidth, "double_width": c.Target.DoubleWidth,
	} {
		switch w {
		case 8, 16, 32, 64:
		default:
			return fmt.Errorf("[target].%s must be 8, 16, 32 or 64, got %d", name, w)
		}
	}
	if c.Target.MaxAlign < 0 || c.Target.MaxAlign&(c.Target.MaxAlign-1) != 0 {
		return fmt.Errorf("[target].max_align must be 0 or a power of two, got %d", c.Target.MaxAlign)
	}
	if c.Lowering.MaxTemplateDepth < 0 {
		return fmt.Errorf("[lowering].max_template_depth must not be negative")
	}
	if c.Lowering.Jobs < 0 {
		return fmt.Errorf("[lowering].jobs must not be negative")
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	return nil
}

func (c config) model() types.DataModel {
	return types.DataModel{
		IntWidth:     types.Width(c.Target.IntWidth),     //nolint:gosec // validated
		LongWidth:    types.Width(c.Target.LongWidth),    //nolint:gosec // validated
		PointerWidth: types.Width(c.Target.PointerWidth), //nolint:gosec // validated
		DoubleWidth:  types.Width(c.Target.DoubleWidth),  //nolint:gosec // validated
	}
}
