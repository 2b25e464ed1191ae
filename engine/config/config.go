package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config carries every tunable the engine consumes. It is loaded once at
// process start and passed by reference afterwards; nothing re-reads it
// mid-run and nothing mutates it.
type Config struct {
	UPS                int     `toml:"ups"`
	Validate           bool    `toml:"validate"`
	RequestedImages    int     `toml:"requested_images"`
	FramesInFlight     int     `toml:"frames_in_flight"`
	VSync              bool    `toml:"vsync"`
	DefaultTexturePath string  `toml:"default_texture_path"`
	MaxMaterials       int     `toml:"max_materials"`
	MaxLights          int     `toml:"max_lights"`
	ShadowCascades     int     `toml:"shadow_cascades"`
	ShadowMapSize      int     `toml:"shadow_map_size"`
	ShadowBias         float32 `toml:"shadow_bias"`
	ShadowPCF          bool    `toml:"shadow_pcf"`
	FXAA               bool    `toml:"fxaa"`
}

// Default returns the configuration used when no file overrides are present.
func Default() Config {
	return Config{
		UPS:                30,
		Validate:           false,
		RequestedImages:    3,
		FramesInFlight:     2,
		VSync:              true,
		DefaultTexturePath: "assets/textures/default.png",
		MaxMaterials:       500,
		MaxLights:          10,
		ShadowCascades:     3,
		ShadowMapSize:      2048,
		ShadowBias:         0.0005,
		ShadowPCF:          false,
		FXAA:               true,
	}
}

// Load reads a TOML properties file on top of the defaults. A missing file
// is not an error; invalid values are.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading engine properties %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing engine properties %s: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Check verifies the cross-field invariants the renderer depends on.
func (c Config) Check() error {
	if c.FramesInFlight < 1 {
		return fmt.Errorf("frames_in_flight must be >= 1, got %d", c.FramesInFlight)
	}
	if c.RequestedImages < c.FramesInFlight {
		return fmt.Errorf("requested_images (%d) must be >= frames_in_flight (%d)",
			c.RequestedImages, c.FramesInFlight)
	}
	if c.ShadowCascades < 1 {
		return fmt.Errorf("shadow_cascades must be >= 1, got %d", c.ShadowCascades)
	}
	if c.ShadowMapSize < 1 {
		return fmt.Errorf("shadow_map_size must be >= 1, got %d", c.ShadowMapSize)
	}
	if c.MaxMaterials < 1 {
		return fmt.Errorf("max_materials must be >= 1, got %d", c.MaxMaterials)
	}
	return nil
}
