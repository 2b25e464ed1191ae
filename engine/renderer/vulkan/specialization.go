package vulkan

import (
	"encoding/binary"
	"math"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// SpecEntry describes one specialization constant inside the packed data
// blob.
type SpecEntry struct {
	ID     uint32
	Offset uint32
	Size   uint32
}

// SpecializationConstants packs constant values into the layout consumed
// by vkSpecializationInfo. Entries are laid out in insertion order with
// natural 4-byte packing.
type SpecializationConstants struct {
	Data    []byte
	Entries []SpecEntry
}

func NewSpecializationConstants() *SpecializationConstants {
	return &SpecializationConstants{}
}

func (sc *SpecializationConstants) add(id uint32, value [4]byte) *SpecializationConstants {
	sc.Entries = append(sc.Entries, SpecEntry{
		ID:     id,
		Offset: uint32(len(sc.Data)),
		Size:   4,
	})
	sc.Data = append(sc.Data, value[:]...)
	return sc
}

func (sc *SpecializationConstants) AddUint32(id uint32, value uint32) *SpecializationConstants {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return sc.add(id, buf)
}

func (sc *SpecializationConstants) AddFloat32(id uint32, value float32) *SpecializationConstants {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(value))
	return sc.add(id, buf)
}

// AddBool stores the value as a VkBool32.
func (sc *SpecializationConstants) AddBool(id uint32, value bool) *SpecializationConstants {
	var v uint32
	if value {
		v = 1
	}
	return sc.AddUint32(id, v)
}

// Info builds the SpecializationInfo referencing the packed blob, or nil
// when no constants were added.
func (sc *SpecializationConstants) Info() *vk.SpecializationInfo {
	if len(sc.Entries) == 0 {
		return nil
	}
	entries := make([]vk.SpecializationMapEntry, len(sc.Entries))
	for i, e := range sc.Entries {
		entries[i] = vk.SpecializationMapEntry{
			ConstantID: e.ID,
			Offset:     e.Offset,
			Size:       uint64(e.Size),
		}
	}
	return &vk.SpecializationInfo{
		MapEntryCount: uint32(len(entries)),
		PMapEntries:   entries,
		DataSize:      uint64(len(sc.Data)),
		PData:         unsafe.Pointer(&sc.Data[0]),
	}
}
