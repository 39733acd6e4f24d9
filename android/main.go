//go:build android

// Command android is the Android activity. Build it with
// `mage build:android`.
package main

import (
	"context"

	"github.com/spaghettifunk/helloquad/engine"
	"github.com/spaghettifunk/helloquad/engine/assets"
	"github.com/spaghettifunk/helloquad/engine/config"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/platform"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"github.com/spaghettifunk/helloquad/quad"
	"golang.org/x/mobile/app"

	_ "github.com/spaghettifunk/helloquad/engine/renderer/gles"
)

func main() {
	app.Main(func(a app.App) {
		if err := run(a); err != nil {
			core.LogFatal("helloquad: %v", err)
		}
	})
}

func run(a app.App) error {
	cfg := config.Default()
	// x/mobile owns an EGL context, Vulkan has no surface to bind to.
	cfg.Renderer.Backend = metadata.GraphicsBackendOpenGLES.String()
	cfg.Renderer.DepthFormat = "d24_unorm_s8_uint"
	cfg.Assets.Dir = ""
	appConfig, err := engine.NewApplicationConfig(cfg)
	if err != nil {
		return err
	}

	// The shaders directory is not packaged, the embedded sources are used.
	am := assets.NewAssetManager(cfg.Assets.Dir)
	game, err := quad.NewQuadGame(appConfig, am)
	if err != nil {
		return err
	}
	e, err := engine.New(game.Game, platform.NewMobile(a))
	if err != nil {
		return err
	}
	return e.Run(context.Background())
}
