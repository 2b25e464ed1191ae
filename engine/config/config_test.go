package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Check())
	assert.Equal(t, 2, cfg.FramesInFlight)
	assert.Equal(t, 3, cfg.RequestedImages)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eng.toml")
	require.NoError(t, os.WriteFile(path, []byte(
		"ups = 60\nvsync = false\nmax_materials = 32\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.UPS)
	assert.False(t, cfg.VSync)
	assert.Equal(t, 32, cfg.MaxMaterials)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().ShadowCascades, cfg.ShadowCascades)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eng.toml")
	require.NoError(t, os.WriteFile(path, []byte("frames_in_flight = 0\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(
		"frames_in_flight = 4\nrequested_images = 2\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not valid toml ==\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestCheckCrossFieldInvariants(t *testing.T) {
	cfg := Default()
	cfg.ShadowCascades = 0
	assert.Error(t, cfg.Check())

	cfg = Default()
	cfg.ShadowMapSize = 0
	assert.Error(t, cfg.Check())

	cfg = Default()
	cfg.MaxMaterials = 0
	assert.Error(t, cfg.Check())
}
