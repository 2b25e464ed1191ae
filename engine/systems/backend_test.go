package systems

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
)

// fakeBackend records uploads in memory so the resource systems can be
// exercised without a device.
type fakeBackend struct {
	uploadedMeshes    [][]float32
	uploadedWeights   [][]float32
	destroyedMeshes   int
	uploadedTextures  int
	destroyedTextures int
	buffers           map[*vulkan.GpuBuffer][]byte

	failUploads bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{buffers: map[*vulkan.GpuBuffer][]byte{}}
}

func (f *fakeBackend) UploadMesh(vertices []float32, indices []uint32, weights []float32) (*renderer.MeshBuffers, error) {
	if f.failUploads {
		return nil, fmt.Errorf("upload rejected")
	}
	f.uploadedMeshes = append(f.uploadedMeshes, vertices)
	f.uploadedWeights = append(f.uploadedWeights, weights)
	buffers := &renderer.MeshBuffers{
		Vertices:   &vulkan.GpuBuffer{},
		Indices:    &vulkan.GpuBuffer{},
		IndexCount: uint32(len(indices)),
	}
	if len(weights) > 0 {
		buffers.Weights = &vulkan.GpuBuffer{}
	}
	return buffers, nil
}

func (f *fakeBackend) DestroyMesh(mesh *renderer.MeshBuffers) {
	f.destroyedMeshes++
}

func (f *fakeBackend) UploadTexture(width, height uint32, pixels []byte) (*renderer.Texture2D, error) {
	if f.failUploads {
		return nil, fmt.Errorf("upload rejected")
	}
	f.uploadedTextures++
	return &renderer.Texture2D{Width: width, Height: height}, nil
}

func (f *fakeBackend) DestroyTexture(texture *renderer.Texture2D) {
	f.destroyedTextures++
}

func (f *fakeBackend) CreateStorageBuffer(size uint64) (*vulkan.GpuBuffer, error) {
	buffer := &vulkan.GpuBuffer{Size: vk.DeviceSize(size)}
	f.buffers[buffer] = make([]byte, size)
	return buffer, nil
}

func (f *fakeBackend) WriteBuffer(buffer *vulkan.GpuBuffer, offset uint64, data []byte) error {
	backing, ok := f.buffers[buffer]
	if !ok {
		return fmt.Errorf("unknown buffer")
	}
	if offset+uint64(len(data)) > uint64(len(backing)) {
		return fmt.Errorf("write past end of buffer")
	}
	copy(backing[offset:], data)
	return nil
}

func (f *fakeBackend) DestroyBuffer(buffer *vulkan.GpuBuffer) {
	delete(f.buffers, buffer)
}
