package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helloquad.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Fatalf("Load() = %+v, want defaults %+v", cfg, want)
	}
	b, err := cfg.GraphicsBackend()
	if err != nil || b != metadata.GraphicsBackendVulkan {
		t.Fatalf("GraphicsBackend() = %v, %v; want vulkan", b, err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[application]
name = "Quad"
width = 800

[renderer]
backend = "opengles"
vsync = false
depth_format = "d24_unorm_s8_uint"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Application.Name != "Quad" || cfg.Application.Width != 800 {
		t.Errorf("application = %+v", cfg.Application)
	}
	if cfg.Application.Height != 720 {
		t.Errorf("height = %d, want default 720", cfg.Application.Height)
	}
	if cfg.Renderer.VSync {
		t.Error("vsync = true, want false")
	}
	if !cfg.Renderer.PreferDepthRangeZeroToOne {
		t.Error("prefer_depth_range_zero_to_one lost its default")
	}
	b, _ := cfg.GraphicsBackend()
	if b != metadata.GraphicsBackendOpenGLES {
		t.Errorf("backend = %v, want opengles", b)
	}
	f, _ := cfg.DepthFormat()
	if f != metadata.PixelFormatD24UNormS8UInt {
		t.Errorf("depth format = %v, want D24UNormS8UInt", f)
	}
	opts := cfg.DeviceOptions()
	if opts.ApplicationName != "Quad" || opts.ResourceBindingModel != metadata.ResourceBindingModelImproved {
		t.Errorf("DeviceOptions() = %+v", opts)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "[renderer]\nbackend = \"glide\"\n"},
		{"unknown depth format", "[renderer]\ndepth_format = \"d16\"\n"},
		{"bad log level", "[log]\nlevel = \"loud\"\n"},
		{"zero width", "[application]\nwidth = 0\n"},
		{"unknown key", "[renderer]\nshadows = true\n"},
		{"syntax", "[renderer\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestUnsupportedButKnownBackendParses(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[renderer]\nbackend = \"metal\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b, _ := cfg.GraphicsBackend(); b != metadata.GraphicsBackendMetal {
		t.Fatalf("backend = %v, want metal", b)
	}
}
