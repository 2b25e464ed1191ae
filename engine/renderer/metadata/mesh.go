package metadata

import "fmt"

// MeshData is the raw, CPU-side description of a mesh as supplied by an
// external loader. All slices are flat: positions are xyz triples, texture
// coordinates uv pairs, weights and joint indices come in groups of four
// per vertex. The engine consumes this as-is; it never parses model files.
type MeshData struct {
	ID         string
	MaterialID string
	Positions  []float32
	Normals    []float32
	Tangents   []float32
	BiTangents []float32
	TexCoords  []float32
	Indices    []uint32
	Weights    []float32
	JointIDs   []int32
}

// HasAnimation reports whether per-vertex skinning data is present.
func (m *MeshData) HasAnimation() bool {
	return len(m.Weights) > 0 && len(m.JointIDs) > 0
}

// Check validates the mesh data before any GPU allocation happens, so a
// malformed mesh is reported instead of producing a partial upload.
func (m *MeshData) Check() error {
	if len(m.Positions) == 0 || len(m.Positions)%3 != 0 {
		return fmt.Errorf("mesh %q: positions must be non-empty xyz triples, got %d floats", m.ID, len(m.Positions))
	}
	if len(m.Indices) == 0 {
		return fmt.Errorf("mesh %q: index list must not be empty", m.ID)
	}
	vertexCount := len(m.Positions) / 3
	if len(m.Normals) != 0 && len(m.Normals) != vertexCount*3 {
		return fmt.Errorf("mesh %q: normal count %d does not match vertex count %d", m.ID, len(m.Normals)/3, vertexCount)
	}
	if len(m.TexCoords) != 0 && len(m.TexCoords) != vertexCount*2 {
		return fmt.Errorf("mesh %q: texcoord count %d does not match vertex count %d", m.ID, len(m.TexCoords)/2, vertexCount)
	}
	if (len(m.Weights) > 0) != (len(m.JointIDs) > 0) {
		return fmt.Errorf("mesh %q: weights and joint indices must be supplied together", m.ID)
	}
	if len(m.Weights) != 0 && len(m.Weights) != vertexCount*4 {
		return fmt.Errorf("mesh %q: weight count %d does not match vertex count %d", m.ID, len(m.Weights)/4, vertexCount)
	}
	return nil
}

// VertexCount returns the number of vertices described by the positions.
func (m *MeshData) VertexCount() int {
	return len(m.Positions) / 3
}
