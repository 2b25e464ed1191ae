package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validMeshData() *MeshData {
	return &MeshData{
		ID:        "quad",
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		TexCoords: []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Indices:   []uint32{0, 1, 2, 2, 3, 0},
	}
}

func TestMeshDataCheck(t *testing.T) {
	assert.NoError(t, validMeshData().Check())

	m := validMeshData()
	m.Positions = nil
	assert.Error(t, m.Check(), "empty positions")

	m = validMeshData()
	m.Positions = m.Positions[:5]
	assert.Error(t, m.Check(), "positions not xyz triples")

	m = validMeshData()
	m.Indices = nil
	assert.Error(t, m.Check(), "empty indices")

	m = validMeshData()
	m.Normals = m.Normals[:6]
	assert.Error(t, m.Check(), "normal count mismatch")

	m = validMeshData()
	m.TexCoords = m.TexCoords[:2]
	assert.Error(t, m.Check(), "texcoord count mismatch")
}

func TestMeshDataSkinningInvariants(t *testing.T) {
	m := validMeshData()
	m.Weights = make([]float32, 16)
	assert.Error(t, m.Check(), "weights without joint ids")

	m.JointIDs = make([]int32, 16)
	assert.NoError(t, m.Check())
	assert.True(t, m.HasAnimation())

	m.Weights = m.Weights[:8]
	assert.Error(t, m.Check(), "weight count mismatch")
}

func TestMeshDataVertexCount(t *testing.T) {
	assert.Equal(t, 4, validMeshData().VertexCount())
	assert.False(t, validMeshData().HasAnimation())
}
