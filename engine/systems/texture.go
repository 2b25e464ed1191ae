package systems

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer"
)

// TextureSystem decodes image files and caches their GPU uploads by
// normalized path. Each unique texture also gets a stable index into the
// texture array bound at draw time; materials store these indices.
type TextureSystem struct {
	backend     renderer.Backend
	cache       *ResourceCache[*renderer.Texture2D]
	defaultPath string

	mu      sync.Mutex
	indices map[string]int32
	ordered []string
}

func NewTextureSystem(backend renderer.Backend, defaultPath string) *TextureSystem {
	ts := &TextureSystem{
		backend:     backend,
		defaultPath: strings.TrimSpace(defaultPath),
		indices:     map[string]int32{},
	}
	ts.cache = NewResourceCache[*renderer.Texture2D](backend.DestroyTexture)
	return ts
}

// NormalizeTexturePath trims whitespace and substitutes the default path
// for empty requests, so "" and "  " share a cache slot with the default
// texture.
func (ts *TextureSystem) NormalizeTexturePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ts.defaultPath
	}
	return path
}

// GetTexture returns the cached texture for path, uploading it on first
// use.
func (ts *TextureSystem) GetTexture(path string) (*renderer.Texture2D, error) {
	key := ts.NormalizeTexturePath(path)
	texture, err := ts.cache.GetOrCreate(key, func() (*renderer.Texture2D, error) {
		width, height, pixels, err := decodeRGBA(key)
		if err != nil {
			return nil, err
		}
		core.LogDebug("Uploading texture %s (%dx%d).", key, width, height)
		return ts.backend.UploadTexture(width, height, pixels)
	})
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	if _, ok := ts.indices[key]; !ok {
		ts.indices[key] = int32(len(ts.ordered))
		ts.ordered = append(ts.ordered, key)
	}
	ts.mu.Unlock()

	return texture, nil
}

// TextureIndex uploads the texture if needed and returns its stable
// position in the texture array.
func (ts *TextureSystem) TextureIndex(path string) (int32, error) {
	if _, err := ts.GetTexture(path); err != nil {
		return 0, err
	}
	key := ts.NormalizeTexturePath(path)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	idx, ok := ts.indices[key]
	if !ok {
		return 0, fmt.Errorf("texture %s has no assigned index", key)
	}
	return idx, nil
}

// Textures returns the resident textures in index order, for descriptor
// array binding.
func (ts *TextureSystem) Textures() []*renderer.Texture2D {
	ts.mu.Lock()
	keys := append([]string(nil), ts.ordered...)
	ts.mu.Unlock()

	out := make([]*renderer.Texture2D, 0, len(keys))
	for _, key := range keys {
		if t, ok := ts.cache.Get(key); ok {
			out = append(out, t)
		}
	}
	return out
}

// TextureCount reports how many textures are resident.
func (ts *TextureSystem) TextureCount() int {
	return ts.cache.Len()
}

// Cleanup destroys every cached texture once.
func (ts *TextureSystem) Cleanup() {
	ts.cache.Cleanup()
	ts.mu.Lock()
	ts.indices = nil
	ts.ordered = nil
	ts.mu.Unlock()
}

func decodeRGBA(path string) (uint32, uint32, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("opening texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decoding texture %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return uint32(bounds.Dx()), uint32(bounds.Dy()), rgba.Pix, nil
}
