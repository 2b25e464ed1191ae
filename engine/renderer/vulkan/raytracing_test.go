package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRayTracingDescription() *RayTracingPipelineDescription {
	return &RayTracingPipelineDescription{
		Stages: []RayStage{
			{Kind: RayGenStage},      // 0
			{Kind: MissStage},        // 1
			{Kind: MissStage},        // 2
			{Kind: ClosestHitStage},  // 3
			{Kind: AnyHitStage},      // 4
			{Kind: IntersectionStage}, // 5
			{Kind: CallableStage},    // 6
		},
		Groups: []ShaderGroup{
			NewGeneralGroup(0),            // raygen
			NewGeneralGroup(1),            // miss
			NewGeneralGroup(2),            // miss
			NewTrianglesHitGroup(3, 4),    // hit
			NewProceduralHitGroup(5, 3, ShaderUnused), // hit
			NewGeneralGroup(6),            // callable
		},
		MaxRecursionDepth: 1,
	}
}

func TestRayTracingDescriptionCheckValid(t *testing.T) {
	desc := validRayTracingDescription()
	require.NoError(t, desc.Check())

	raygen, miss, hit, callable := desc.GroupCounts()
	assert.Equal(t, uint32(1), raygen)
	assert.Equal(t, uint32(2), miss)
	assert.Equal(t, uint32(2), hit)
	assert.Equal(t, uint32(1), callable)
}

func TestRayTracingDescriptionRequiresRaygenFirst(t *testing.T) {
	desc := validRayTracingDescription()
	// Swap the raygen group behind a miss group.
	desc.Groups[0], desc.Groups[1] = desc.Groups[1], desc.Groups[0]
	assert.Error(t, desc.Check())
}

func TestRayTracingDescriptionRejectsMultipleRaygen(t *testing.T) {
	desc := validRayTracingDescription()
	desc.Groups = []ShaderGroup{
		NewGeneralGroup(0),
		NewGeneralGroup(0),
	}
	assert.Error(t, desc.Check())
}

func TestRayTracingDescriptionRejectsMissAfterHit(t *testing.T) {
	desc := validRayTracingDescription()
	desc.Groups = []ShaderGroup{
		NewGeneralGroup(0),
		NewTrianglesHitGroup(3, ShaderUnused),
		NewGeneralGroup(1), // miss after hit
	}
	assert.Error(t, desc.Check())
}

func TestRayTracingDescriptionRejectsHitAfterCallable(t *testing.T) {
	desc := validRayTracingDescription()
	desc.Groups = []ShaderGroup{
		NewGeneralGroup(0),
		NewGeneralGroup(6),
		NewTrianglesHitGroup(3, ShaderUnused),
	}
	assert.Error(t, desc.Check())
}

func TestRayTracingDescriptionRejectsBadStageReferences(t *testing.T) {
	desc := validRayTracingDescription()
	desc.Groups = []ShaderGroup{NewGeneralGroup(42)}
	assert.Error(t, desc.Check())

	// Closest-hit slot pointing at a miss stage.
	desc = validRayTracingDescription()
	desc.Groups = []ShaderGroup{
		NewGeneralGroup(0),
		NewTrianglesHitGroup(1, ShaderUnused),
	}
	assert.Error(t, desc.Check())

	// Procedural hit group without an intersection stage.
	desc = validRayTracingDescription()
	desc.Groups = []ShaderGroup{
		NewGeneralGroup(0),
		NewProceduralHitGroup(ShaderUnused, 3, ShaderUnused),
	}
	assert.Error(t, desc.Check())
}

func TestRayTracingDescriptionRejectsEmptyAndZeroRecursion(t *testing.T) {
	desc := &RayTracingPipelineDescription{MaxRecursionDepth: 1}
	assert.Error(t, desc.Check())

	desc = validRayTracingDescription()
	desc.MaxRecursionDepth = 0
	assert.Error(t, desc.Check())
}
