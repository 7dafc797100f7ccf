package main

import (
	"flag"
	"log"
	"runtime"

	"github.com/gekko3d/marcher"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "marcher.yaml", "Path to the YAML config file")
	envMap := flag.String("envmap", "", "Environment map image, overrides the config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	width := flag.Int("width", 0, "Window width, overrides the config")
	height := flag.Int("height", 0, "Window height, overrides the config")
	flag.Parse()

	cfg, err := marcher.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *envMap != "" {
		cfg.EnvMap = *envMap
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	cfg.Debug = cfg.Debug || *debug

	marcher.NewAppBuilder().
		UseStates(marcher.StateRunning, marcher.StateShutdown).
		UseModule(marcher.LoggingModule{Prefix: "marcher", Debug: cfg.Debug}).
		UseModule(marcher.TimeModule{}).
		UseModule(marcher.NewPlatformWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)).
		UseModule(marcher.InputModule{}).
		UseModule(marcher.CameraModule{Config: cfg.Camera}).
		UseModule(marcher.PhysicsModule{Gravity: marcher.DefaultGravity, Period: cfg.PhysicsPeriod()}).
		UseModule(marcher.AssetServerModule{}).
		UseModule(marcher.LightsModule{}).
		UseModule(marcher.CharacterModule{Avatar: marcher.DefaultAvatar()}).
		UseModule(marcher.SphereModule{}).
		UseModule(cfg.March.Raymarch()).
		UseModule(marcher.SceneModule{}).
		UseModule(marcher.EnvMapModule{Path: cfg.EnvMap, Workers: 1}).
		UseModule(marcher.StatsModule{}).
		UseModule(marcher.RendererModule{MotionBlur: cfg.MotionBlur}).
		Build().
		Run()
}
