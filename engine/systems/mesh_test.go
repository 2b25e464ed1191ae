package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/metadata"
)

func TestInterleaveVerticesFullAttributes(t *testing.T) {
	data := &metadata.MeshData{
		ID:         "quad",
		Positions:  []float32{1, 2, 3, 4, 5, 6},
		Normals:    []float32{0, 1, 0, 0, 0, 1},
		Tangents:   []float32{1, 0, 0, 0, 1, 0},
		BiTangents: []float32{0, 0, 1, 1, 0, 0},
		TexCoords:  []float32{0.25, 0.75, 0.5, 1.0},
		Indices:    []uint32{0, 1},
	}

	out := InterleaveVertices(data)
	require.Len(t, out, 2*VertexFloats)

	assert.Equal(t, []float32{
		1, 2, 3, 0, 1, 0, 1, 0, 0, 0, 0, 1, 0.25, 0.75,
	}, out[:VertexFloats])
	assert.Equal(t, []float32{
		4, 5, 6, 0, 0, 1, 0, 1, 0, 1, 0, 0, 0.5, 1.0,
	}, out[VertexFloats:])
}

func TestInterleaveVerticesZeroFillsMissingAttributes(t *testing.T) {
	data := &metadata.MeshData{
		ID:        "bare",
		Positions: []float32{7, 8, 9},
		Indices:   []uint32{0},
	}

	out := InterleaveVertices(data)
	require.Len(t, out, VertexFloats)
	assert.Equal(t, []float32{7, 8, 9}, out[:3])
	for i := 3; i < VertexFloats; i++ {
		assert.Zero(t, out[i])
	}
}

func TestCreateMeshValidatesAndUploads(t *testing.T) {
	backend := newFakeBackend()
	ms := NewMeshSystem(backend)

	mesh, err := ms.CreateMesh(&metadata.MeshData{
		ID:         "tri",
		MaterialID: "stone",
		Positions:  []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:    []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "tri", mesh.ID)
	assert.Equal(t, "stone", mesh.MaterialID)
	assert.Equal(t, uint32(3), mesh.Buffers.IndexCount)
	assert.NotNil(t, mesh.Buffers.Vertices)
	assert.NotNil(t, mesh.Buffers.Indices)
	assert.Nil(t, mesh.Buffers.Weights)
	require.Len(t, backend.uploadedMeshes, 1)
	assert.Len(t, backend.uploadedMeshes[0], 3*VertexFloats)

	// Same id resolves to the resident mesh, no second upload.
	again, err := ms.CreateMesh(&metadata.MeshData{
		ID:        "tri",
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	assert.Same(t, mesh, again)
	assert.Len(t, backend.uploadedMeshes, 1)
}

func TestInterleaveWeights(t *testing.T) {
	unskinned := &metadata.MeshData{
		Positions: []float32{0, 0, 0},
		Indices:   []uint32{0},
	}
	assert.Nil(t, InterleaveWeights(unskinned))

	skinned := &metadata.MeshData{
		Positions: []float32{0, 0, 0},
		Indices:   []uint32{0},
		Weights:   []float32{0.5, 0.3, 0.2, 0},
		JointIDs:  []int32{2, 7, 1, 0},
	}
	out := InterleaveWeights(skinned)
	assert.Equal(t, []float32{0.5, 0.3, 0.2, 0, 2, 7, 1, 0}, out)
}

func TestCreateMeshSkinnedUploadsWeights(t *testing.T) {
	backend := newFakeBackend()
	ms := NewMeshSystem(backend)

	mesh, err := ms.CreateMesh(&metadata.MeshData{
		ID:        "skinned",
		Positions: []float32{0, 0, 0},
		Indices:   []uint32{0},
		Weights:   []float32{1, 0, 0, 0},
		JointIDs:  []int32{3, 0, 0, 0},
	})
	require.NoError(t, err)
	assert.NotNil(t, mesh.Buffers.Weights)
	require.Len(t, backend.uploadedWeights, 1)
	assert.Equal(t, []float32{1, 0, 0, 0, 3, 0, 0, 0}, backend.uploadedWeights[0])

	// Unskinned meshes carry no weight buffer.
	plain, err := ms.CreateMesh(&metadata.MeshData{
		ID:        "plain",
		Positions: []float32{0, 0, 0},
		Indices:   []uint32{0},
	})
	require.NoError(t, err)
	assert.Nil(t, plain.Buffers.Weights)
}

func TestCreateMeshRejectsMalformedInput(t *testing.T) {
	backend := newFakeBackend()
	ms := NewMeshSystem(backend)

	_, err := ms.CreateMesh(&metadata.MeshData{
		ID:      "empty",
		Indices: []uint32{0},
	})
	assert.Error(t, err)

	_, err = ms.CreateMesh(&metadata.MeshData{
		ID:        "no-indices",
		Positions: []float32{0, 0, 0},
	})
	assert.Error(t, err)
	assert.Empty(t, backend.uploadedMeshes)
}

func TestCreateMeshGeneratesID(t *testing.T) {
	ms := NewMeshSystem(newFakeBackend())

	mesh, err := ms.CreateMesh(&metadata.MeshData{
		Positions: []float32{0, 0, 0},
		Indices:   []uint32{0},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, mesh.ID)
}

func TestMeshSystemCleanupDestroysAll(t *testing.T) {
	backend := newFakeBackend()
	ms := NewMeshSystem(backend)

	for _, id := range []string{"a", "b"} {
		_, err := ms.CreateMesh(&metadata.MeshData{
			ID:        id,
			Positions: []float32{0, 0, 0},
			Indices:   []uint32{0},
		})
		require.NoError(t, err)
	}

	ms.Cleanup()
	assert.Equal(t, 2, backend.destroyedMeshes)
	assert.Equal(t, 0, ms.MeshCount())
}
