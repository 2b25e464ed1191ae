package assets

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
)

// spirvMagic is the first word of every valid SPIR-V module.
const spirvMagic = 0x07230203

// LoadShaderCode reads a compiled SPIR-V file and validates its framing
// before it ever reaches the driver.
func LoadShaderCode(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading shader %s: %w", path, err)
	}
	if err := CheckSpirv(code); err != nil {
		return nil, fmt.Errorf("shader %s: %w", path, err)
	}
	return code, nil
}

// CheckSpirv verifies the word alignment and magic number of a SPIR-V
// blob.
func CheckSpirv(code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return fmt.Errorf("SPIR-V length %d is not a positive multiple of 4", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != spirvMagic {
		return fmt.Errorf("bad SPIR-V magic 0x%08x", magic)
	}
	return nil
}

// ShaderWatcher reports shader files changing on disk so pipelines can
// be rebuilt without restarting.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	// Changed receives the path of each modified shader file.
	Changed chan string
	done    chan struct{}
}

// NewShaderWatcher watches dir recursively-enough for a flat shader
// directory; only .spv files are reported.
func NewShaderWatcher(dir string) (*ShaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating shader watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching shader dir %s: %w", dir, err)
	}

	sw := &ShaderWatcher{
		watcher: watcher,
		Changed: make(chan string, 8),
		done:    make(chan struct{}),
	}
	go sw.run()
	return sw, nil
}

func (sw *ShaderWatcher) run() {
	defer close(sw.Changed)
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".spv" {
				continue
			}
			core.LogInfo("Shader changed on disk: %s", event.Name)
			select {
			case sw.Changed <- event.Name:
			default:
				// Drop if nobody drained the previous notification.
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("Shader watcher error: %s", err)
		}
	}
}

// Close stops watching. The Changed channel is closed afterwards.
func (sw *ShaderWatcher) Close() error {
	close(sw.done)
	return sw.watcher.Close()
}
