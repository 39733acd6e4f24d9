package engine

import (
	"github.com/spaghettifunk/helloquad/engine/config"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel string
	// Preferred graphics backend. Vulkan falls back to OpenGL ES.
	Backend       metadata.GraphicsBackend
	DeviceOptions metadata.GraphicsDeviceOptions
	DepthFormat   metadata.PixelFormat
	VSync         bool
}

// NewApplicationConfig validates cfg and derives the application settings
// from it.
func NewApplicationConfig(cfg *config.Config) (*ApplicationConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := cfg.GraphicsBackend()
	if err != nil {
		return nil, err
	}
	depth, err := cfg.DepthFormat()
	if err != nil {
		return nil, err
	}
	return &ApplicationConfig{
		StartPosX:     cfg.Application.PosX,
		StartPosY:     cfg.Application.PosY,
		StartWidth:    cfg.Application.Width,
		StartHeight:   cfg.Application.Height,
		Name:          cfg.Application.Name,
		LogLevel:      cfg.Log.Level,
		Backend:       backend,
		DeviceOptions: cfg.DeviceOptions(),
		DepthFormat:   depth,
		VSync:         cfg.Renderer.VSync,
	}, nil
}
