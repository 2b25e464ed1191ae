package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(3, 5, 10))
	assert.Equal(t, 10, Clamp(12, 5, 10))
	assert.Equal(t, 7, Clamp(7, 5, 10))
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint32(0), AlignUp(uint32(0), uint32(16)))
	assert.Equal(t, uint32(16), AlignUp(uint32(1), uint32(16)))
	assert.Equal(t, uint32(16), AlignUp(uint32(16), uint32(16)))
	assert.Equal(t, uint32(32), AlignUp(uint32(17), uint32(16)))
	assert.Equal(t, uint64(192), AlignUp(uint64(129), uint64(64)))
}
