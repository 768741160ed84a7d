package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfigTextMatchesDefaults(t *testing.T) {
	var cfg config
	if _, err := toml.Decode(defaultConfigText, &cfg); err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if cfg != defaultConfig() {
		t.Fatalf("template decodes to %+v, defaults are %+v", cfg, defaultConfig())
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("template does not validate: %v", err)
	}
}

func TestLoadConfigSearchesUpwards(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, configFileName), "[target]\nint_width = 32\n\n[lowering]\njobs = 3\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig("", nested)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.path != filepath.Join(root, configFileName) {
		t.Fatalf("path = %q", cfg.path)
	}
	if cfg.Target.IntWidth != 32 || cfg.Lowering.Jobs != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// keys missing from the file keep their defaults
	if cfg.Target.LongWidth != 32 || cfg.Target.PointerWidth != 16 || cfg.Lowering.MaxTemplateDepth != 32 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if m := cfg.model(); m.IntWidth != 32 || m.PointerWidth != 16 {
		t.Fatalf("model = %+v", m)
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "[cache]\nenabled = true\ndir = \"/tmp/xc\"\n\n[trace]\nlevel = \"detail\"\n")

	cfg, err := loadConfig(path, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Dir != "/tmp/xc" || cfg.Trace.Level != "detail" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"width", "[target]\nlong_width = 24\n", "long_width must be 8, 16, 32 or 64"},
		{"align", "[target]\nmax_align = 3\n", "power of two"},
		{"jobs", "[lowering]\njobs = -1\n", "jobs must not be negative"},
		{"depth", "[lowering]\nmax_template_depth = -2\n", "max_template_depth"},
		{"trace", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"syntax", "[target\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), configFileName)
			writeFile(t, path, tc.body)
			_, err := loadConfig(path, "")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestInitWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	root := newTestRoot(initCmd)
	root.SetArgs([]string{"init", dir})
	if err := root.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := loadConfig("", dir)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := defaultConfig()
	want.path = filepath.Join(dir, configFileName)
	if cfg != want {
		t.Fatalf("init wrote %+v", cfg)
	}

	root.SetArgs([]string{"init", dir})
	if err := root.Execute(); err == nil {
		t.Fatal("second init without --force should fail")
	}
}
