package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirvBlob(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestCheckSpirv(t *testing.T) {
	assert.NoError(t, CheckSpirv(spirvBlob(spirvMagic, 0x00010000, 1, 0, 0)))

	assert.Error(t, CheckSpirv(nil), "empty blob")
	assert.Error(t, CheckSpirv([]byte{0x03, 0x02, 0x23}), "not word aligned")
	assert.Error(t, CheckSpirv(spirvBlob(0xdeadbeef)), "bad magic")
}

func TestLoadShaderCode(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.spv")
	require.NoError(t, os.WriteFile(good, spirvBlob(spirvMagic, 0x00010000), 0o644))
	code, err := LoadShaderCode(good)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	bad := filepath.Join(dir, "bad.spv")
	require.NoError(t, os.WriteFile(bad, []byte("not spirv"), 0o644))
	_, err = LoadShaderCode(bad)
	assert.Error(t, err)

	_, err = LoadShaderCode(filepath.Join(dir, "missing.spv"))
	assert.Error(t, err)
}
