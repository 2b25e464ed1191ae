package systems

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/metadata"
)

func TestPackMaterialLayout(t *testing.T) {
	m := metadata.NewMaterial("m", mgl32.Vec4{0.5, 0.25, 1.0, 1.0})
	m.DiffuseTextureIdx = 3
	m.NormalTextureIdx = metadata.NoTexture
	m.MetalRoughIdx = 7

	record := PackMaterial(&m)
	require.Len(t, record, MaterialRecordBytes)

	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(record[0:])))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(record[4:])))
	assert.Equal(t, float32(1.0), math.Float32frombits(binary.LittleEndian.Uint32(record[8:])))
	assert.Equal(t, float32(1.0), math.Float32frombits(binary.LittleEndian.Uint32(record[12:])))

	assert.Equal(t, int32(3), int32(binary.LittleEndian.Uint32(record[16:])))
	assert.Equal(t, metadata.NoTexture, int32(binary.LittleEndian.Uint32(record[20:])))
	assert.Equal(t, int32(7), int32(binary.LittleEndian.Uint32(record[24:])))
	assert.Equal(t, []byte{0, 0, 0, 0}, record[28:32])
}

func newMaterialFixture(t *testing.T) (*fakeBackend, *TextureSystem, *MaterialSystem) {
	t.Helper()
	dir := t.TempDir()
	defaultPath := writeTestPNG(t, dir, "default.png", 2, 2)

	backend := newFakeBackend()
	textures := NewTextureSystem(backend, defaultPath)
	materials, err := NewMaterialSystem(backend, textures, 4)
	require.NoError(t, err)
	return backend, textures, materials
}

func TestRegisterMaterialAssignsStableIndices(t *testing.T) {
	_, _, materials := newMaterialFixture(t)

	first, err := materials.RegisterMaterial(metadata.NewMaterial("red", mgl32.Vec4{1, 0, 0, 1}))
	require.NoError(t, err)
	second, err := materials.RegisterMaterial(metadata.NewMaterial("green", mgl32.Vec4{0, 1, 0, 1}))
	require.NoError(t, err)

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	// Re-registering returns the existing slot.
	again, err := materials.RegisterMaterial(metadata.NewMaterial("red", mgl32.Vec4{}))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 2, materials.MaterialCount())
}

func TestRegisterMaterialResolvesTextures(t *testing.T) {
	backend, textures, materials := newMaterialFixture(t)
	dir := t.TempDir()
	crate := writeTestPNG(t, dir, "crate.png", 4, 4)

	m := metadata.NewMaterial("crate", mgl32.Vec4{1, 1, 1, 1})
	m.TexturePath = crate

	idx, err := materials.RegisterMaterial(m)
	require.NoError(t, err)

	stored, ok := materials.Material(idx)
	require.True(t, ok)
	wantIdx, err := textures.TextureIndex(crate)
	require.NoError(t, err)
	assert.Equal(t, wantIdx, stored.DiffuseTextureIdx)
	assert.Equal(t, metadata.NoTexture, stored.NormalTextureIdx)
	assert.Equal(t, 1, backend.uploadedTextures)
}

func TestRegisterMaterialWritesPackedRecord(t *testing.T) {
	backend, _, materials := newMaterialFixture(t)

	m := metadata.NewMaterial("blue", mgl32.Vec4{0, 0, 1, 1})
	idx, err := materials.RegisterMaterial(m)
	require.NoError(t, err)

	backing := backend.buffers[materials.Buffer()]
	record := backing[idx*MaterialRecordBytes : (idx+1)*MaterialRecordBytes]
	assert.Equal(t, PackMaterial(&m), record)
}

func TestRegisterMaterialCapacity(t *testing.T) {
	_, _, materials := newMaterialFixture(t)

	for i, id := range []string{"a", "b", "c", "d"} {
		idx, err := materials.RegisterMaterial(metadata.NewMaterial(id, mgl32.Vec4{}))
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	_, err := materials.RegisterMaterial(metadata.NewMaterial("overflow", mgl32.Vec4{}))
	assert.Error(t, err)
}

func TestRegisterMaterialMissingTextureFails(t *testing.T) {
	_, _, materials := newMaterialFixture(t)

	m := metadata.NewMaterial("broken", mgl32.Vec4{})
	m.TexturePath = "does-not-exist.png"
	_, err := materials.RegisterMaterial(m)
	assert.Error(t, err)
	assert.Equal(t, 0, materials.MaterialCount())
}

func TestMaterialSystemCleanup(t *testing.T) {
	backend, _, materials := newMaterialFixture(t)

	materials.Cleanup()
	materials.Cleanup()
	assert.Empty(t, backend.buffers)

	_, err := materials.RegisterMaterial(metadata.NewMaterial("late", mgl32.Vec4{}))
	assert.Error(t, err)
}
