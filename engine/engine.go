package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lwjglgamedev/vulkanbook-go/engine/assets"
	"github.com/lwjglgamedev/vulkanbook-go/engine/config"
	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	"github.com/lwjglgamedev/vulkanbook-go/engine/platform"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/components"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/shadows"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
	"github.com/lwjglgamedev/vulkanbook-go/engine/systems"
)

// defaultFOVRadians is the vertical field of view the default camera
// starts with (60 degrees).
const defaultFOVRadians = 1.0471976

// shaderMaxLights is the light array bound the built-in lighting shaders
// are compiled with.
const shaderMaxLights = 10

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Engine owns the window, the renderer and the resource systems, and runs
// the fixed-update render loop.
type Engine struct {
	currentStage Stage
	appConfig    *ApplicationConfig
	cfg          config.Config
	game         Game

	platform *platform.Platform
	renderer *renderer.Renderer

	TextureSystem  *systems.TextureSystem
	MeshSystem     *systems.MeshSystem
	MaterialSystem *systems.MaterialSystem
	PipelineSystem *systems.PipelineSystem
	Camera         *components.Camera

	shaderWatcher *assets.ShaderWatcher

	isRunning bool
	width     uint32
	height    uint32
	clock     *core.Clock
	lastTime  float64
}

func New(appConfig *ApplicationConfig, game Game) (*Engine, error) {
	core.SetLogLevel(appConfig.LogLevel)

	cfg, err := config.Load(appConfig.PropertiesPath)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if cfg.ShadowCascades != shadows.ShaderCascadeCount {
		return nil, fmt.Errorf("shadow_cascades is %d but the built-in shaders are compiled for %d cascades",
			cfg.ShadowCascades, shadows.ShaderCascadeCount)
	}
	if cfg.MaxLights != shaderMaxLights {
		return nil, fmt.Errorf("max_lights is %d but the built-in shaders are compiled for %d lights",
			cfg.MaxLights, shaderMaxLights)
	}

	p, err := platform.New()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		appConfig:    appConfig,
		cfg:          cfg,
		game:         game,
		platform:     p,
		clock:        core.NewClock(),
		isRunning:    false,
		width:        appConfig.StartWidth,
		height:       appConfig.StartHeight,
	}, nil
}

// Config exposes the loaded engine properties. Read-only after New.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Renderer exposes the render frontend so the game can build pipelines and
// record draws.
func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

// Platform exposes the window for input polling.
func (e *Engine) Platform() *platform.Platform {
	return e.platform
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := e.platform.Startup(e.appConfig.Name,
		e.appConfig.StartPosX, e.appConfig.StartPosY,
		e.width, e.height); err != nil {
		return err
	}

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	e.renderer = renderer.New(e.platform, &e.cfg)
	if err := e.renderer.Initialize(e.appConfig.Name, e.width, e.height); err != nil {
		return err
	}
	e.platform.OnResize(e.onResized)

	e.TextureSystem = systems.NewTextureSystem(e.renderer, e.cfg.DefaultTexturePath)
	e.MeshSystem = systems.NewMeshSystem(e.renderer)
	materials, err := systems.NewMaterialSystem(e.renderer, e.TextureSystem, e.cfg.MaxMaterials)
	if err != nil {
		return err
	}
	e.MaterialSystem = materials
	e.PipelineSystem = systems.NewPipelineSystem(func(p *vulkan.VulkanPipeline) {
		p.Destroy(e.renderer.Context())
	})

	e.Camera = components.NewCamera()
	e.Camera.SetPerspective(defaultFOVRadians, float32(e.width)/float32(e.height), 0.1, 100.0)

	if e.appConfig.ShaderDir != "" {
		watcher, err := assets.NewShaderWatcher(e.appConfig.ShaderDir)
		if err != nil {
			// Hot reload is a development aid; its absence is not fatal.
			core.LogWarn("shader hot reload disabled: %s", err)
		} else {
			e.shaderWatcher = watcher
		}
	}

	if err := e.game.Init(e); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the loop: poll input every iteration, tick the game at the
// configured UPS, render as fast as presentation allows.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	timePerUpdate := 1000.0 / float64(e.cfg.UPS)
	var updateAccum float64

	for e.isRunning && !e.platform.ShouldClose() {
		e.platform.PumpMessages()
		e.drainShaderChanges()

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		deltaMillis := (currentTime - e.lastTime) * 1000.0
		e.lastTime = currentTime
		updateAccum += deltaMillis / timePerUpdate

		if err := e.game.Input(e, deltaMillis); err != nil {
			core.LogError("Game input failed, shutting down.")
			e.isRunning = false
			break
		}

		for updateAccum >= 1 {
			if err := e.game.Update(e, timePerUpdate); err != nil {
				core.LogError("Game update failed, shutting down.")
				e.isRunning = false
				break
			}
			updateAccum--
		}
		if !e.isRunning {
			break
		}

		if err := e.renderFrame(deltaMillis); err != nil {
			core.LogError("Frame render failed, shutting down: %s", err)
			e.isRunning = false
			break
		}

		core.MetricsUpdate(deltaMillis / 1000.0)
	}

	return e.Shutdown()
}

func (e *Engine) renderFrame(deltaMillis float64) error {
	cmd, err := e.renderer.BeginFrame()
	if err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			// Window resized or minimized; nothing to render this iteration.
			return nil
		}
		return err
	}

	if err := e.game.Render(e, cmd, deltaMillis); err != nil {
		return err
	}

	return e.renderer.EndFrame()
}

// Stop requests a clean exit; the loop finishes the current iteration.
func (e *Engine) Stop() {
	e.isRunning = false
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	if e.shaderWatcher != nil {
		e.shaderWatcher.Close()
		e.shaderWatcher = nil
	}

	// Nothing may still be in flight when resources go away.
	if e.renderer != nil {
		e.renderer.Drain()
	}

	if e.game != nil {
		if err := e.game.Cleanup(); err != nil {
			core.LogError("game cleanup failed: %s", err)
		}
	}

	// Dependency order: pipelines first, then GPU resources, then the
	// device itself.
	if e.PipelineSystem != nil {
		e.PipelineSystem.Cleanup()
	}
	if e.MaterialSystem != nil {
		e.MaterialSystem.Cleanup()
	}
	if e.MeshSystem != nil {
		e.MeshSystem.Cleanup()
	}
	if e.TextureSystem != nil {
		e.TextureSystem.Cleanup()
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			return err
		}
	}
	return e.platform.Shutdown()
}

func (e *Engine) onResized(width, height uint32) {
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	e.renderer.OnResize(width, height)
	if width > 0 && height > 0 && e.Camera != nil {
		e.Camera.SetAspect(float32(width) / float32(height))
	}
}

// drainShaderChanges invalidates pipelines whose compiled shaders changed
// on disk; the next GetOrCreate rebuilds them.
func (e *Engine) drainShaderChanges() {
	if e.shaderWatcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-e.shaderWatcher.Changed:
			if !ok {
				e.shaderWatcher = nil
				return
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if err := e.PipelineSystem.Invalidate(name); err != nil {
				core.LogWarn("could not invalidate pipeline %s: %s", name, err)
			}
		default:
			return
		}
	}
}
