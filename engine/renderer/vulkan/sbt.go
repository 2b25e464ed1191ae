package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
	emath "github.com/lwjglgamedev/vulkanbook-go/engine/math"
)

// GroupHandleProperties carries the device limits governing shader group
// handle placement in a binding table.
type GroupHandleProperties struct {
	// Size of one group handle in bytes.
	HandleSize uint32
	// Required alignment of each record within a region.
	HandleAlignment uint32
	// Required alignment of each region's base address.
	BaseAlignment uint32
}

func (p GroupHandleProperties) check() error {
	if p.HandleSize == 0 || p.HandleAlignment == 0 || p.BaseAlignment == 0 {
		return fmt.Errorf("invalid group handle properties %+v", p)
	}
	return nil
}

// HandleFetcher retrieves the opaque shader group handles for groupCount
// consecutive groups starting at firstGroup, packed tightly at HandleSize
// bytes each.
type HandleFetcher func(firstGroup, groupCount uint32) ([]byte, error)

// SBTRegionLayout is the CPU-side placement of one binding table region.
type SBTRegionLayout struct {
	// Stride between records, HandleSize rounded up to HandleAlignment.
	Stride vk.DeviceSize
	// Total region size, record count times stride rounded up to
	// BaseAlignment.
	Size vk.DeviceSize
	// Number of records in the region.
	Count uint32
}

// SBTLayout is the full binding table layout for one pipeline.
type SBTLayout struct {
	RayGen   SBTRegionLayout
	Miss     SBTRegionLayout
	Hit      SBTRegionLayout
	Callable SBTRegionLayout
}

// LayoutShaderBindingTable computes region strides and sizes from the
// device limits without touching the GPU. The raygen region always holds
// exactly one record and its size equals its stride.
func LayoutShaderBindingTable(props GroupHandleProperties, missCount, hitCount, callableCount uint32) (SBTLayout, error) {
	var layout SBTLayout
	if err := props.check(); err != nil {
		return layout, err
	}

	stride := vk.DeviceSize(emath.AlignUp(props.HandleSize, props.HandleAlignment))

	region := func(count uint32) SBTRegionLayout {
		if count == 0 {
			return SBTRegionLayout{}
		}
		return SBTRegionLayout{
			Stride: stride,
			Size:   vk.DeviceSize(emath.AlignUp(uint64(stride)*uint64(count), uint64(props.BaseAlignment))),
			Count:  count,
		}
	}

	// For the raygen region size and stride must be equal.
	raygenSize := vk.DeviceSize(emath.AlignUp(uint64(stride), uint64(props.BaseAlignment)))
	layout.RayGen = SBTRegionLayout{Stride: raygenSize, Size: raygenSize, Count: 1}
	layout.Miss = region(missCount)
	layout.Hit = region(hitCount)
	layout.Callable = region(callableCount)
	return layout, nil
}

// SBTRegion is a binding table region uploaded to a device-local buffer.
type SBTRegion struct {
	Buffer *GpuBuffer
	Stride vk.DeviceSize
	Size   vk.DeviceSize
}

func (r *SBTRegion) destroy(context *VulkanContext) {
	if r != nil && r.Buffer != nil {
		r.Buffer.Destroy(context)
		r.Buffer = nil
	}
}

// ShaderBindingTable owns one buffer per populated region. Regions with
// no groups have a nil entry.
type ShaderBindingTable struct {
	RayGen   *SBTRegion
	Miss     *SBTRegion
	Hit      *SBTRegion
	Callable *SBTRegion
}

// BuildShaderBindingTables fetches the group handles of desc through
// fetch, re-packs them at the required stride and uploads each region to
// its own device-local buffer with the given usage. Handle order follows
// desc group order.
func BuildShaderBindingTables(context *VulkanContext, desc *RayTracingPipelineDescription, props GroupHandleProperties, fetch HandleFetcher, usage vk.BufferUsageFlags) (*ShaderBindingTable, error) {
	if err := desc.Check(); err != nil {
		return nil, err
	}
	raygenCount, missCount, hitCount, callableCount := desc.GroupCounts()
	layout, err := LayoutShaderBindingTable(props, missCount, hitCount, callableCount)
	if err != nil {
		return nil, err
	}

	groupCount := raygenCount + missCount + hitCount + callableCount
	handles, err := fetch(0, groupCount)
	if err != nil {
		return nil, err
	}
	if len(handles) != int(groupCount)*int(props.HandleSize) {
		return nil, fmt.Errorf("handle fetch returned %d bytes, expected %d", len(handles), int(groupCount)*int(props.HandleSize))
	}

	sbt := &ShaderBindingTable{}
	firstGroup := uint32(0)

	upload := func(region SBTRegionLayout) (*SBTRegion, error) {
		if region.Count == 0 {
			return nil, nil
		}
		packed := make([]byte, region.Size)
		for i := uint32(0); i < region.Count; i++ {
			src := handles[(firstGroup+i)*props.HandleSize : (firstGroup+i+1)*props.HandleSize]
			copy(packed[vk.DeviceSize(i)*region.Stride:], src)
		}
		firstGroup += region.Count

		buffer, err := UploadDeviceLocal(context, packed, usage)
		if err != nil {
			return nil, err
		}
		return &SBTRegion{Buffer: buffer, Stride: region.Stride, Size: region.Size}, nil
	}

	regions := []struct {
		layout SBTRegionLayout
		out    **SBTRegion
	}{
		{layout.RayGen, &sbt.RayGen},
		{layout.Miss, &sbt.Miss},
		{layout.Hit, &sbt.Hit},
		{layout.Callable, &sbt.Callable},
	}
	for _, r := range regions {
		region, err := upload(r.layout)
		if err != nil {
			sbt.Destroy(context)
			return nil, err
		}
		*r.out = region
	}

	core.LogDebug("Shader binding table built for %d groups.", groupCount)
	return sbt, nil
}

func (sbt *ShaderBindingTable) Destroy(context *VulkanContext) {
	sbt.RayGen.destroy(context)
	sbt.Miss.destroy(context)
	sbt.Hit.destroy(context)
	sbt.Callable.destroy(context)
	sbt.RayGen, sbt.Miss, sbt.Hit, sbt.Callable = nil, nil, nil, nil
}
