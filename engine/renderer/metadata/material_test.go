package metadata

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewMaterialUnboundChannels(t *testing.T) {
	m := NewMaterial("m", mgl32.Vec4{1, 0, 0, 1})
	assert.Equal(t, NoTexture, m.DiffuseTextureIdx)
	assert.Equal(t, NoTexture, m.NormalTextureIdx)
	assert.Equal(t, NoTexture, m.MetalRoughIdx)
}

func TestCheckIndices(t *testing.T) {
	m := NewMaterial("m", mgl32.Vec4{})
	assert.NoError(t, m.CheckIndices(0), "unbound channels need no textures")

	m.DiffuseTextureIdx = 2
	assert.NoError(t, m.CheckIndices(3))
	assert.Error(t, m.CheckIndices(2), "index past array end")

	m.DiffuseTextureIdx = -5
	assert.Error(t, m.CheckIndices(3), "negative non-sentinel index")
}
