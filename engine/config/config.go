// Package config loads the application configuration from a TOML file.
package config

import (
	"bytes"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "helloquad.toml"

type Config struct {
	Application Application `toml:"application"`
	Renderer    Renderer    `toml:"renderer"`
	Assets      Assets      `toml:"assets"`
	Log         Log         `toml:"log"`
}

type Application struct {
	Name   string `toml:"name"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	PosX   uint32 `toml:"pos_x"`
	PosY   uint32 `toml:"pos_y"`
}

type Renderer struct {
	// Backend is "vulkan" or "opengles". Vulkan falls back to OpenGL ES when
	// the host cannot run it.
	Backend                           string `toml:"backend"`
	VSync                             bool   `toml:"vsync"`
	Debug                             bool   `toml:"debug"`
	DepthFormat                       string `toml:"depth_format"`
	PreferDepthRangeZeroToOne         bool   `toml:"prefer_depth_range_zero_to_one"`
	PreferStandardClipSpaceYDirection bool   `toml:"prefer_standard_clip_space_y_direction"`
}

type Assets struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type Log struct {
	Level string `toml:"level"`
}

func Default() *Config {
	return &Config{
		Application: Application{
			Name:   "Hello Quad",
			Width:  1280,
			Height: 720,
			PosX:   100,
			PosY:   100,
		},
		Renderer: Renderer{
			Backend:                           metadata.GraphicsBackendVulkan.String(),
			VSync:                             true,
			PreferDepthRangeZeroToOne:         true,
			PreferStandardClipSpaceYDirection: true,
		},
		Assets: Assets{
			Dir:   "assets",
			Watch: false,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogDebug("config file %s not found, using defaults", path)
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML data into cfg. Keys missing from data keep their
// current values. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return errors.Wrapf(core.ErrInvalidConfig, "line %d column %d: %s", row, col, derr.Error())
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return errors.Wrapf(core.ErrInvalidConfig, "%s", serr.String())
		}
		return errors.Wrap(core.ErrInvalidConfig, err.Error())
	}
	return nil
}

// Validate checks every field that has a restricted set of values.
func (c *Config) Validate() error {
	if _, err := c.GraphicsBackend(); err != nil {
		return err
	}
	if _, err := c.DepthFormat(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(core.ErrInvalidConfig, "log level %q", c.Log.Level)
	}
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return errors.Wrapf(core.ErrInvalidConfig, "window size %dx%d", c.Application.Width, c.Application.Height)
	}
	return nil
}

// GraphicsBackend returns the configured backend. Backends that exist but
// cannot drive a surface, such as Metal, parse fine and are rejected later
// by the surface view.
func (c *Config) GraphicsBackend() (metadata.GraphicsBackend, error) {
	b, err := metadata.ParseGraphicsBackend(c.Renderer.Backend)
	if err != nil {
		return 0, errors.Wrap(core.ErrInvalidConfig, err.Error())
	}
	return b, nil
}

func (c *Config) DepthFormat() (metadata.PixelFormat, error) {
	f, err := metadata.ParseDepthFormat(c.Renderer.DepthFormat)
	if err != nil {
		return metadata.PixelFormatUndefined, errors.Wrap(core.ErrInvalidConfig, err.Error())
	}
	return f, nil
}

// DeviceOptions builds the graphics device options for the renderer section.
func (c *Config) DeviceOptions() metadata.GraphicsDeviceOptions {
	return metadata.GraphicsDeviceOptions{
		ApplicationName:                   c.Application.Name,
		Debug:                             c.Renderer.Debug,
		PreferDepthRangeZeroToOne:         c.Renderer.PreferDepthRangeZeroToOne,
		PreferStandardClipSpaceYDirection: c.Renderer.PreferStandardClipSpaceYDirection,
		ResourceBindingModel:              metadata.ResourceBindingModelImproved,
	}
}
