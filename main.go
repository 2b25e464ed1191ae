/*
This is a small demo application that uses the engine package to render a
textured spinning cube.
*/
package main

import (
	"github.com/lwjglgamedev/vulkanbook-go/engine"
	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	"github.com/lwjglgamedev/vulkanbook-go/testbed"
)

func main() {
	game := testbed.NewTestGame()

	eng, err := engine.New(&engine.ApplicationConfig{
		StartPosX:      100,
		StartPosY:      100,
		StartWidth:     1280,
		StartHeight:    720,
		Name:           "Vulkan Book",
		LogLevel:       core.DebugLevel,
		PropertiesPath: "eng.toml",
		ShaderDir:      "shaders",
	}, game)
	if err != nil {
		panic(err)
	}

	if err := eng.Initialize(); err != nil {
		panic(err)
	}

	// Run blocks until the window closes or the game stops the loop, and
	// shuts the engine down on the way out.
	if err := eng.Run(); err != nil {
		panic(err)
	}
}
