package vulkan

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecializationConstantsPacking(t *testing.T) {
	sc := NewSpecializationConstants().
		AddUint32(0, 3).
		AddFloat32(1, 0.0005).
		AddBool(2, true).
		AddBool(3, false)

	require.Len(t, sc.Data, 16)
	require.Len(t, sc.Entries, 4)

	for i, e := range sc.Entries {
		assert.Equal(t, uint32(i), e.ID)
		assert.Equal(t, uint32(i*4), e.Offset)
		assert.Equal(t, uint32(4), e.Size)
	}

	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(sc.Data[0:]))
	assert.Equal(t, float32(0.0005), math.Float32frombits(binary.LittleEndian.Uint32(sc.Data[4:])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(sc.Data[8:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(sc.Data[12:]))
}

func TestSpecializationConstantsInfo(t *testing.T) {
	empty := NewSpecializationConstants()
	assert.Nil(t, empty.Info())

	sc := NewSpecializationConstants().AddUint32(7, 42)
	info := sc.Info()
	require.NotNil(t, info)
	assert.Equal(t, uint32(1), info.MapEntryCount)
	assert.Equal(t, uint64(4), info.DataSize)
	assert.Equal(t, uint32(7), info.PMapEntries[0].ConstantID)
}
