package systems

import (
	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/metadata"
)

// Floats per vertex in the interleaved layout: position(3), normal(3),
// tangent(3), bitangent(3), texcoord(2).
const VertexFloats = 14

// VertexStrideBytes is the byte stride of one interleaved vertex.
const VertexStrideBytes = VertexFloats * 4

// MeshResource is a mesh resident on the GPU.
type MeshResource struct {
	ID         string
	MaterialID string
	Buffers    *renderer.MeshBuffers
}

// MeshSystem uploads validated mesh data and tracks the resulting GPU
// buffers by mesh id.
type MeshSystem struct {
	backend renderer.Backend
	cache   *ResourceCache[*MeshResource]
}

func NewMeshSystem(backend renderer.Backend) *MeshSystem {
	ms := &MeshSystem{backend: backend}
	ms.cache = NewResourceCache[*MeshResource](func(m *MeshResource) {
		backend.DestroyMesh(m.Buffers)
	})
	return ms
}

// InterleaveVertices packs mesh attributes into the engine vertex layout.
// Missing optional attributes are zero-filled so every mesh shares one
// pipeline vertex input state.
func InterleaveVertices(data *metadata.MeshData) []float32 {
	vertexCount := data.VertexCount()
	out := make([]float32, vertexCount*VertexFloats)

	at := func(src []float32, i, components, c int) float32 {
		if len(src) == 0 {
			return 0
		}
		return src[i*components+c]
	}

	for i := 0; i < vertexCount; i++ {
		base := i * VertexFloats
		for c := 0; c < 3; c++ {
			out[base+c] = data.Positions[i*3+c]
			out[base+3+c] = at(data.Normals, i, 3, c)
			out[base+6+c] = at(data.Tangents, i, 3, c)
			out[base+9+c] = at(data.BiTangents, i, 3, c)
		}
		out[base+12] = at(data.TexCoords, i, 2, 0)
		out[base+13] = at(data.TexCoords, i, 2, 1)
	}
	return out
}

// InterleaveWeights packs skinning data as four weights followed by four
// joint indices per vertex, indices stored as float32 the way the skinning
// shader reads them. Returns nil for unskinned meshes.
func InterleaveWeights(data *metadata.MeshData) []float32 {
	if !data.HasAnimation() {
		return nil
	}
	vertexCount := data.VertexCount()
	out := make([]float32, vertexCount*8)
	for i := 0; i < vertexCount; i++ {
		base := i * 8
		for c := 0; c < 4; c++ {
			out[base+c] = data.Weights[i*4+c]
			out[base+4+c] = float32(data.JointIDs[i*4+c])
		}
	}
	return out
}

// CreateMesh validates, interleaves and uploads a mesh. A mesh with an
// empty ID gets a generated one. Re-creating an existing id returns the
// resident resource.
func (ms *MeshSystem) CreateMesh(data *metadata.MeshData) (*MeshResource, error) {
	if data.ID == "" {
		data.ID = core.NewID()
	}
	if err := data.Check(); err != nil {
		return nil, err
	}

	return ms.cache.GetOrCreate(data.ID, func() (*MeshResource, error) {
		vertices := InterleaveVertices(data)
		buffers, err := ms.backend.UploadMesh(vertices, data.Indices, InterleaveWeights(data))
		if err != nil {
			return nil, err
		}
		core.LogDebug("Mesh %s uploaded: %d vertices, %d indices.", data.ID, data.VertexCount(), len(data.Indices))
		return &MeshResource{
			ID:         data.ID,
			MaterialID: data.MaterialID,
			Buffers:    buffers,
		}, nil
	})
}

// GetMesh returns a resident mesh by id.
func (ms *MeshSystem) GetMesh(id string) (*MeshResource, bool) {
	return ms.cache.Get(id)
}

// RemoveMesh frees one mesh.
func (ms *MeshSystem) RemoveMesh(id string) error {
	return ms.cache.Remove(id)
}

// MeshCount reports resident meshes.
func (ms *MeshSystem) MeshCount() int {
	return ms.cache.Len()
}

// Cleanup frees every mesh once.
func (ms *MeshSystem) Cleanup() {
	ms.cache.Cleanup()
}
