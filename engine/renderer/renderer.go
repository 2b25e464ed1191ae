package renderer

import (
	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine/config"
	"github.com/lwjglgamedev/vulkanbook-go/engine/platform"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
)

// Renderer is the frontend the engine talks to. It owns the Vulkan
// backend and adapts it to the resource Backend interface.
type Renderer struct {
	backend *vulkan.VulkanRenderer
}

func New(p *platform.Platform, cfg *config.Config) *Renderer {
	return &Renderer{
		backend: vulkan.New(p, cfg),
	}
}

func (r *Renderer) Initialize(appName string, width, height uint32) error {
	return r.backend.Initialize(appName, width, height)
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

func (r *Renderer) OnResize(width, height uint32) {
	r.backend.Resized(width, height)
}

// BeginFrame opens the frame and returns the command buffer to record
// into. Callers must treat core.ErrSwapchainBooting as "skip this frame".
func (r *Renderer) BeginFrame() (*vulkan.VulkanCommandBuffer, error) {
	return r.backend.BeginFrame()
}

func (r *Renderer) EndFrame() error {
	return r.backend.EndFrame()
}

// Drain blocks until the GPU has finished all in-flight frames. Required
// before destroying resources a frame may still reference.
func (r *Renderer) Drain() {
	if r.backend.FrameSync != nil {
		r.backend.FrameSync.Drain()
	}
}

// Context exposes the device context for pipeline and shader creation.
func (r *Renderer) Context() *vulkan.VulkanContext {
	return r.backend.Context()
}

// MainRenderpass returns the swapchain render pass pipelines target.
func (r *Renderer) MainRenderpass() *vulkan.VulkanRenderpass {
	return r.backend.MainRenderpass
}

// FrameNumber returns the number of frames presented so far.
func (r *Renderer) FrameNumber() uint64 {
	return r.backend.FrameNumber
}

// Backend interface implementation.

func (r *Renderer) UploadMesh(vertices []float32, indices []uint32, weights []float32) (*MeshBuffers, error) {
	ctx := r.backend.Context()

	vb, err := vulkan.UploadDeviceLocal(ctx, vulkan.Float32ToBytes(vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, err
	}
	ib, err := vulkan.UploadDeviceLocal(ctx, vulkan.Uint32ToBytes(indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		vb.Destroy(ctx)
		return nil, err
	}

	// Skinning data lives in a storage buffer so compute passes can read it.
	var wb *vulkan.GpuBuffer
	if len(weights) > 0 {
		wb, err = vulkan.UploadDeviceLocal(ctx, vulkan.Float32ToBytes(weights), vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
		if err != nil {
			vb.Destroy(ctx)
			ib.Destroy(ctx)
			return nil, err
		}
	}

	return &MeshBuffers{
		Vertices:   vb,
		Indices:    ib,
		Weights:    wb,
		IndexCount: uint32(len(indices)),
	}, nil
}

func (r *Renderer) DestroyMesh(mesh *MeshBuffers) {
	if mesh == nil {
		return
	}
	ctx := r.backend.Context()
	if mesh.Vertices != nil {
		mesh.Vertices.Destroy(ctx)
	}
	if mesh.Indices != nil {
		mesh.Indices.Destroy(ctx)
	}
	if mesh.Weights != nil {
		mesh.Weights.Destroy(ctx)
	}
}

func (r *Renderer) UploadTexture(width, height uint32, pixels []byte) (*Texture2D, error) {
	texture, err := vulkan.TextureCreate(r.backend.Context(), width, height, pixels)
	if err != nil {
		return nil, err
	}
	return &Texture2D{Texture: texture, Width: width, Height: height}, nil
}

func (r *Renderer) DestroyTexture(texture *Texture2D) {
	if texture == nil || texture.Texture == nil {
		return
	}
	texture.Texture.TextureDestroy(r.backend.Context())
}

func (r *Renderer) CreateStorageBuffer(size uint64) (*vulkan.GpuBuffer, error) {
	return vulkan.NewGpuBuffer(
		r.backend.Context(),
		vk.DeviceSize(size),
		vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
}

func (r *Renderer) WriteBuffer(buffer *vulkan.GpuBuffer, offset uint64, data []byte) error {
	return buffer.LoadData(r.backend.Context(), vk.DeviceSize(offset), data)
}

func (r *Renderer) DestroyBuffer(buffer *vulkan.GpuBuffer) {
	if buffer != nil {
		buffer.Destroy(r.backend.Context())
	}
}
