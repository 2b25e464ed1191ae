// Package testbed is a small sample application exercising the engine:
// a textured spinning cube with a free camera.
package testbed

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine"
	"github.com/lwjglgamedev/vulkanbook-go/engine/assets"
	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/metadata"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
	"github.com/lwjglgamedev/vulkanbook-go/engine/systems"
)

const (
	moveSpeed  = 0.005 // units per millisecond
	mouseSense = 0.005

	scenePipeline = "scene"
)

type TestGame struct {
	engine   *engine.Engine
	cube     *systems.MeshResource
	pipeline *vulkan.VulkanPipeline
	stages   []*vulkan.ShaderStage

	angle      float32
	lastMouseX float64
	lastMouseY float64
}

func NewTestGame() *TestGame {
	return &TestGame{}
}

func (g *TestGame) Init(e *engine.Engine) error {
	core.LogDebug("TestGame init...")
	g.engine = e

	material := metadata.NewMaterial("cube-material", mgl32.Vec4{1, 1, 1, 1})
	material.TexturePath = "assets/textures/crate.png"
	if _, err := e.MaterialSystem.RegisterMaterial(material); err != nil {
		return err
	}

	cube, err := e.MeshSystem.CreateMesh(cubeMeshData(material.ID))
	if err != nil {
		return err
	}
	g.cube = cube

	pipeline, err := e.PipelineSystem.GetOrCreate(scenePipeline, func() (*vulkan.VulkanPipeline, error) {
		return g.buildScenePipeline(e)
	})
	if err != nil {
		return err
	}
	g.pipeline = pipeline

	e.Camera.SetPosition(mgl32.Vec3{0, 0, 4})
	return nil
}

func (g *TestGame) buildScenePipeline(e *engine.Engine) (*vulkan.VulkanPipeline, error) {
	ctx := e.Renderer().Context()

	vertCode, err := assets.LoadShaderCode("shaders/scene_vert.spv")
	if err != nil {
		return nil, err
	}
	fragCode, err := assets.LoadShaderCode("shaders/scene_frag.spv")
	if err != nil {
		return nil, err
	}

	vert, err := vulkan.NewShaderStage(ctx, vertCode, vk.ShaderStageVertexBit, nil)
	if err != nil {
		return nil, err
	}
	frag, err := vulkan.NewShaderStage(ctx, fragCode, vk.ShaderStageFragmentBit, nil)
	if err != nil {
		vert.Destroy(ctx)
		return nil, err
	}
	g.stages = []*vulkan.ShaderStage{vert, frag}

	// Interleaved layout: position, normal, tangent, bitangent, uv.
	attributes := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 12},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 24},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 36},
		{Location: 4, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 48},
	}

	return vulkan.NewPipelineBuilder(e.Renderer().MainRenderpass()).
		WithVertexInput(systems.VertexStrideBytes, attributes).
		WithStage(vert).
		WithStage(frag).
		WithPushConstantRange(vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, 64).
		WithDepth(true, true).
		Build(ctx)
}

func (g *TestGame) Input(e *engine.Engine, deltaMillis float64) error {
	window := e.Platform().Window
	camera := e.Camera

	move := float32(deltaMillis) * moveSpeed
	if window.GetKey(glfw.KeyW) == glfw.Press {
		camera.MoveForward(move)
	}
	if window.GetKey(glfw.KeyS) == glfw.Press {
		camera.MoveBackward(move)
	}
	if window.GetKey(glfw.KeyA) == glfw.Press {
		camera.MoveLeft(move)
	}
	if window.GetKey(glfw.KeyD) == glfw.Press {
		camera.MoveRight(move)
	}
	if window.GetKey(glfw.KeyEscape) == glfw.Press {
		e.Stop()
	}

	x, y := window.GetCursorPos()
	if window.GetMouseButton(glfw.MouseButtonRight) == glfw.Press {
		camera.Yaw(float32(x-g.lastMouseX) * mouseSense)
		camera.Pitch(float32(y-g.lastMouseY) * mouseSense)
	}
	g.lastMouseX = x
	g.lastMouseY = y

	return nil
}

func (g *TestGame) Update(e *engine.Engine, deltaMillis float64) error {
	g.angle += float32(deltaMillis) * 0.001
	return nil
}

func (g *TestGame) Render(e *engine.Engine, cmd *vulkan.VulkanCommandBuffer, deltaMillis float64) error {
	camera := e.Camera

	model := mgl32.HomogRotate3DY(g.angle).Mul4(mgl32.HomogRotate3DX(g.angle * 0.7))
	mvp := camera.Projection().Mul4(camera.View()).Mul4(model)

	if err := g.pipeline.Bind(cmd, vk.PipelineBindPointGraphics); err != nil {
		return err
	}

	vk.CmdPushConstants(cmd.Handle, g.pipeline.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, 64, unsafe.Pointer(&mvp[0]))

	buffers := g.cube.Buffers
	vk.CmdBindVertexBuffers(cmd.Handle, 0, 1,
		[]vk.Buffer{buffers.Vertices.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd.Handle, buffers.Indices.Handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cmd.Handle, buffers.IndexCount, 1, 0, 0, 0)

	return nil
}

func (g *TestGame) Cleanup() error {
	// The pipeline itself belongs to the pipeline system; only the shader
	// modules are ours to release.
	ctx := g.engine.Renderer().Context()
	for _, s := range g.stages {
		s.Destroy(ctx)
	}
	g.stages = nil
	return nil
}

// cubeMeshData returns a unit cube with per-face normals and UVs.
func cubeMeshData(materialID string) *metadata.MeshData {
	positions := []float32{
		// front
		-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
		// back
		1, -1, -1, -1, -1, -1, -1, 1, -1, 1, 1, -1,
		// left
		-1, -1, -1, -1, -1, 1, -1, 1, 1, -1, 1, -1,
		// right
		1, -1, 1, 1, -1, -1, 1, 1, -1, 1, 1, 1,
		// top
		-1, 1, 1, 1, 1, 1, 1, 1, -1, -1, 1, -1,
		// bottom
		-1, -1, -1, 1, -1, -1, 1, -1, 1, -1, -1, 1,
	}
	normals := []float32{
		0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1,
		0, 0, -1, 0, 0, -1, 0, 0, -1, 0, 0, -1,
		-1, 0, 0, -1, 0, 0, -1, 0, 0, -1, 0, 0,
		1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0,
		0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0,
		0, -1, 0, 0, -1, 0, 0, -1, 0, 0, -1, 0,
	}
	texCoords := make([]float32, 0, 6*4*2)
	for face := 0; face < 6; face++ {
		texCoords = append(texCoords, 0, 1, 1, 1, 1, 0, 0, 0)
	}
	indices := make([]uint32, 0, 6*6)
	for face := uint32(0); face < 6; face++ {
		base := face * 4
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return &metadata.MeshData{
		ID:         "cube",
		MaterialID: materialID,
		Positions:  positions,
		Normals:    normals,
		TexCoords:  texCoords,
		Indices:    indices,
	}
}
