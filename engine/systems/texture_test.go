package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestNormalizeTexturePath(t *testing.T) {
	ts := NewTextureSystem(newFakeBackend(), "default.png")

	assert.Equal(t, "default.png", ts.NormalizeTexturePath(""))
	assert.Equal(t, "default.png", ts.NormalizeTexturePath("   "))
	assert.Equal(t, "crate.png", ts.NormalizeTexturePath(" crate.png "))
}

func TestGetTextureUploadsOnceAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeTestPNG(t, dir, "default.png", 4, 4)
	cratePath := writeTestPNG(t, dir, "crate.png", 8, 8)

	backend := newFakeBackend()
	ts := NewTextureSystem(backend, defaultPath)

	crate, err := ts.GetTexture(cratePath)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), crate.Width)

	again, err := ts.GetTexture(cratePath)
	require.NoError(t, err)
	assert.Same(t, crate, again)
	assert.Equal(t, 1, backend.uploadedTextures)

	// Empty, whitespace and explicit default paths all resolve to the
	// one cached default texture.
	fallback, err := ts.GetTexture("")
	require.NoError(t, err)
	assert.Equal(t, uint32(4), fallback.Width)

	blank, err := ts.GetTexture("   ")
	require.NoError(t, err)
	assert.Same(t, fallback, blank)

	explicit, err := ts.GetTexture(defaultPath)
	require.NoError(t, err)
	assert.Same(t, fallback, explicit)

	assert.Equal(t, 2, ts.TextureCount())
	assert.Equal(t, 2, backend.uploadedTextures)
}

func TestTextureIndexIsStable(t *testing.T) {
	dir := t.TempDir()
	a := writeTestPNG(t, dir, "a.png", 2, 2)
	b := writeTestPNG(t, dir, "b.png", 2, 2)

	ts := NewTextureSystem(newFakeBackend(), a)

	idxA, err := ts.TextureIndex(a)
	require.NoError(t, err)
	idxB, err := ts.TextureIndex(b)
	require.NoError(t, err)
	assert.Equal(t, int32(0), idxA)
	assert.Equal(t, int32(1), idxB)

	// Re-requesting keeps the original assignment.
	idxA2, err := ts.TextureIndex(a)
	require.NoError(t, err)
	assert.Equal(t, idxA, idxA2)

	textures := ts.Textures()
	require.Len(t, textures, 2)
}

func TestGetTextureMissingFileFails(t *testing.T) {
	ts := NewTextureSystem(newFakeBackend(), "nope.png")
	_, err := ts.GetTexture("also-missing.png")
	assert.Error(t, err)
	assert.Equal(t, 0, ts.TextureCount())
}

func TestTextureSystemCleanup(t *testing.T) {
	dir := t.TempDir()
	a := writeTestPNG(t, dir, "a.png", 2, 2)

	backend := newFakeBackend()
	ts := NewTextureSystem(backend, a)
	_, err := ts.GetTexture(a)
	require.NoError(t, err)

	ts.Cleanup()
	assert.Equal(t, 1, backend.destroyedTextures)
	assert.Empty(t, ts.Textures())
}
