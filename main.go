// Command helloquad opens a desktop window and draws the quad with Vulkan,
// or OpenGL ES when Vulkan is not available.
package main

import (
	"context"
	"flag"

	"github.com/spaghettifunk/helloquad/engine"
	"github.com/spaghettifunk/helloquad/engine/assets"
	"github.com/spaghettifunk/helloquad/engine/config"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/platform"
	"github.com/spaghettifunk/helloquad/quad"
	"github.com/xlab/closer"

	_ "github.com/spaghettifunk/helloquad/engine/renderer/gles"
	_ "github.com/spaghettifunk/helloquad/engine/renderer/vulkan"
)

func main() {
	defer closer.Close()

	configPath := flag.String("config", config.DefaultPath, "path of the TOML configuration file")
	backend := flag.String("backend", "", "graphics backend: vulkan or opengles")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		closer.Fatalln(err)
	}
	if *backend != "" {
		cfg.Renderer.Backend = *backend
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	appConfig, err := engine.NewApplicationConfig(cfg)
	if err != nil {
		closer.Fatalln(err)
	}
	if err := core.SetLogLevel(appConfig.LogLevel); err != nil {
		closer.Fatalln(err)
	}

	am := assets.NewAssetManager(cfg.Assets.Dir)
	if err := am.Initialize(cfg.Assets.Watch); err != nil {
		closer.Fatalln(err)
	}
	game, err := quad.NewQuadGame(appConfig, am)
	if err != nil {
		closer.Fatalln(err)
	}

	host, err := platform.NewDesktop(platform.DesktopOptions{
		Name:   appConfig.Name,
		X:      appConfig.StartPosX,
		Y:      appConfig.StartPosY,
		Width:  appConfig.StartWidth,
		Height: appConfig.StartHeight,
		VSync:  appConfig.VSync,
	})
	if err != nil {
		closer.Fatalln(err)
	}

	e, err := engine.New(game.Game, host)
	if err != nil {
		_ = host.Shutdown()
		closer.Fatalln(err)
	}

	// A signal stops the engine and waits for the device to be released.
	done := make(chan struct{})
	closer.Bind(func() {
		e.Shutdown()
		<-done
	})

	err = e.Run(context.Background())
	close(done)
	if err != nil {
		core.LogError("engine stopped with an error: %v", err)
		closer.Fatalln(err)
	}
}
