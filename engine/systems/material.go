package systems

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/metadata"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/vulkan"
)

// MaterialRecordBytes is the packed size of one material in the GPU
// buffer: a vec4 diffuse colour, three int32 texture indices and one
// int32 of padding to keep 16-byte alignment.
const MaterialRecordBytes = 32

// MaterialSystem registers materials, resolves their textures and keeps
// the packed GPU material table up to date. Material index positions are
// stable for the life of the system; shaders address the table by the
// index stored with each mesh.
type MaterialSystem struct {
	mu        sync.Mutex
	backend   renderer.Backend
	textures  *TextureSystem
	materials []metadata.Material
	byID      map[string]int
	buffer    *vulkan.GpuBuffer
	capacity  int
	cleaned   bool
}

func NewMaterialSystem(backend renderer.Backend, textures *TextureSystem, maxMaterials int) (*MaterialSystem, error) {
	buffer, err := backend.CreateStorageBuffer(uint64(maxMaterials) * MaterialRecordBytes)
	if err != nil {
		return nil, err
	}
	return &MaterialSystem{
		backend:  backend,
		textures: textures,
		byID:     map[string]int{},
		buffer:   buffer,
		capacity: maxMaterials,
	}, nil
}

// RegisterMaterial resolves the material's textures, assigns it a stable
// table index and writes its packed record to the GPU. Registering an id
// twice returns the existing index.
func (msys *MaterialSystem) RegisterMaterial(material metadata.Material) (int, error) {
	msys.mu.Lock()
	defer msys.mu.Unlock()

	if msys.cleaned {
		return 0, fmt.Errorf("material system already cleaned up")
	}
	if idx, ok := msys.byID[material.ID]; ok {
		return idx, nil
	}
	if len(msys.materials) >= msys.capacity {
		return 0, fmt.Errorf("material table full (%d)", msys.capacity)
	}

	if material.TexturePath != "" {
		idx, err := msys.textures.TextureIndex(material.TexturePath)
		if err != nil {
			return 0, err
		}
		material.DiffuseTextureIdx = idx
	}
	if material.NormalMapPath != "" {
		idx, err := msys.textures.TextureIndex(material.NormalMapPath)
		if err != nil {
			return 0, err
		}
		material.NormalTextureIdx = idx
	}
	if material.MetalRoughPath != "" {
		idx, err := msys.textures.TextureIndex(material.MetalRoughPath)
		if err != nil {
			return 0, err
		}
		material.MetalRoughIdx = idx
	}

	if err := material.CheckIndices(msys.textures.TextureCount()); err != nil {
		return 0, err
	}

	idx := len(msys.materials)
	msys.materials = append(msys.materials, material)
	msys.byID[material.ID] = idx

	record := PackMaterial(&material)
	if err := msys.backend.WriteBuffer(msys.buffer, uint64(idx)*MaterialRecordBytes, record); err != nil {
		return 0, err
	}
	return idx, nil
}

// MaterialIndex looks up the table index of a registered material.
func (msys *MaterialSystem) MaterialIndex(id string) (int, bool) {
	msys.mu.Lock()
	defer msys.mu.Unlock()
	idx, ok := msys.byID[id]
	return idx, ok
}

// Material returns a copy of a registered material by table index.
func (msys *MaterialSystem) Material(idx int) (metadata.Material, bool) {
	msys.mu.Lock()
	defer msys.mu.Unlock()
	if idx < 0 || idx >= len(msys.materials) {
		return metadata.Material{}, false
	}
	return msys.materials[idx], true
}

// MaterialCount reports how many materials are registered.
func (msys *MaterialSystem) MaterialCount() int {
	msys.mu.Lock()
	defer msys.mu.Unlock()
	return len(msys.materials)
}

// Buffer exposes the GPU material table for descriptor binding.
func (msys *MaterialSystem) Buffer() *vulkan.GpuBuffer {
	return msys.buffer
}

// Cleanup frees the material table. Textures belong to the texture
// system and are not destroyed here.
func (msys *MaterialSystem) Cleanup() {
	msys.mu.Lock()
	defer msys.mu.Unlock()
	if msys.cleaned {
		return
	}
	msys.cleaned = true
	msys.backend.DestroyBuffer(msys.buffer)
	msys.buffer = nil
	msys.materials = nil
	msys.byID = nil
}

// PackMaterial serializes one material record: diffuse RGBA as four
// float32 followed by the three texture indices and an int32 of padding,
// all little-endian.
func PackMaterial(m *metadata.Material) []byte {
	record := make([]byte, MaterialRecordBytes)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(record[i*4:], math.Float32bits(m.DiffuseColor[i]))
	}
	binary.LittleEndian.PutUint32(record[16:], uint32(m.DiffuseTextureIdx))
	binary.LittleEndian.PutUint32(record[20:], uint32(m.NormalTextureIdx))
	binary.LittleEndian.PutUint32(record[24:], uint32(m.MetalRoughIdx))
	// record[28:32] stays zero padding.
	return record
}
