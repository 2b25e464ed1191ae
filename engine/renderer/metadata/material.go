package metadata

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// NoTexture marks a material channel that has no texture bound. Shaders
// receive it verbatim and fall back to the diffuse colour.
const NoTexture int32 = -1

// Material is an immutable description of a surface. The texture fields are
// indices into the texture array bound alongside the GPU material buffer,
// assigned by the material system when the material is registered.
type Material struct {
	ID                string
	DiffuseColor      mgl32.Vec4
	TexturePath       string
	NormalMapPath     string
	MetalRoughPath    string
	DiffuseTextureIdx int32
	NormalTextureIdx  int32
	MetalRoughIdx     int32
}

// NewMaterial returns a material with every texture channel unbound.
func NewMaterial(id string, diffuse mgl32.Vec4) Material {
	return Material{
		ID:                id,
		DiffuseColor:      diffuse,
		DiffuseTextureIdx: NoTexture,
		NormalTextureIdx:  NoTexture,
		MetalRoughIdx:     NoTexture,
	}
}

// CheckIndices verifies that every assigned texture index points inside a
// texture array of the given size. This is the invariant the draw-time
// material buffer depends on; a bad index renders garbage, it does not fail.
func (m *Material) CheckIndices(textureCount int) error {
	for _, idx := range []int32{m.DiffuseTextureIdx, m.NormalTextureIdx, m.MetalRoughIdx} {
		if idx == NoTexture {
			continue
		}
		if idx < 0 || int(idx) >= textureCount {
			return fmt.Errorf("material %q: texture index %d outside texture array of size %d", m.ID, idx, textureCount)
		}
	}
	return nil
}
