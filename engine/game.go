package engine

import (
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
)

// Game is the capability the engine requires from an application. The
// engine owns the loop and the GPU; the game supplies content and reacts
// to the fixed-rate ticks.
type Game interface {
	// Init runs once, after the renderer and resource systems are up but
	// before the first frame. Load meshes, materials and textures here.
	Init(e *Engine) error
	// Input runs every loop iteration, before any pending update ticks.
	Input(e *Engine, deltaMillis float64) error
	// Update runs at the configured updates-per-second rate; it may run
	// zero or several times per rendered frame.
	Update(e *Engine, deltaMillis float64) error
	// Render records the frame's draw commands into cmd. The render pass
	// is already begun; viewport and scissor are set.
	Render(e *Engine, cmd *vulkan.VulkanCommandBuffer, deltaMillis float64) error
	// Cleanup runs once during shutdown, after the GPU has drained but
	// before the resource systems are torn down.
	Cleanup() error
}
