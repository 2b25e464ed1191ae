package renderer

import (
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
)

// MeshBuffers is the GPU residency of one mesh: device-local vertex and
// index buffers plus the index count the draw call needs. Weights is only
// populated for skinned meshes.
type MeshBuffers struct {
	Vertices   *vulkan.GpuBuffer
	Indices    *vulkan.GpuBuffer
	Weights    *vulkan.GpuBuffer
	IndexCount uint32
}

// Texture2D is an uploaded sampled image.
type Texture2D struct {
	Texture *vulkan.VulkanTexture
	Width   uint32
	Height  uint32
}

// Backend is the narrow surface resource systems use to move data to the
// GPU. The production implementation is the renderer; tests substitute
// an in-memory fake.
type Backend interface {
	// UploadMesh moves interleaved vertex data and indices into
	// device-local buffers through a staging copy. A non-empty weights
	// slice additionally uploads a skinning buffer.
	UploadMesh(vertices []float32, indices []uint32, weights []float32) (*MeshBuffers, error)
	DestroyMesh(mesh *MeshBuffers)

	// UploadTexture creates a sampled image from tightly packed RGBA
	// pixels.
	UploadTexture(width, height uint32, pixels []byte) (*Texture2D, error)
	DestroyTexture(texture *Texture2D)

	// CreateStorageBuffer allocates a host-visible buffer, used for
	// material and light tables that update per frame.
	CreateStorageBuffer(size uint64) (*vulkan.GpuBuffer, error)
	WriteBuffer(buffer *vulkan.GpuBuffer, offset uint64, data []byte) error
	DestroyBuffer(buffer *vulkan.GpuBuffer)
}
