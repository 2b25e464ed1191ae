package vulkan

import (
	"fmt"
)

// RayStageKind identifies the role of a shader stage in a ray tracing
// pipeline.
type RayStageKind int

const (
	RayGenStage RayStageKind = iota
	MissStage
	ClosestHitStage
	AnyHitStage
	IntersectionStage
	CallableStage
)

func (k RayStageKind) String() string {
	switch k {
	case RayGenStage:
		return "raygen"
	case MissStage:
		return "miss"
	case ClosestHitStage:
		return "closest-hit"
	case AnyHitStage:
		return "any-hit"
	case IntersectionStage:
		return "intersection"
	case CallableStage:
		return "callable"
	}
	return "unknown"
}

// ShaderUnused marks a group member slot that references no stage.
const ShaderUnused int32 = -1

// RayStage is one shader stage of a ray tracing pipeline: its role plus
// the SPIR-V module code it runs.
type RayStage struct {
	Kind RayStageKind
	Code []byte
}

type ShaderGroupType int

const (
	// GeneralGroup carries a raygen, miss or callable stage.
	GeneralGroup ShaderGroupType = iota
	// TrianglesHitGroup carries closest-hit and optional any-hit stages
	// for triangle geometry.
	TrianglesHitGroup
	// ProceduralHitGroup additionally requires an intersection stage.
	ProceduralHitGroup
)

// ShaderGroup references stages by index into the pipeline's stage list.
// Unused members hold ShaderUnused.
type ShaderGroup struct {
	Type         ShaderGroupType
	General      int32
	ClosestHit   int32
	AnyHit       int32
	Intersection int32
}

// NewGeneralGroup builds a group wrapping a raygen, miss or callable stage.
func NewGeneralGroup(stageIndex int32) ShaderGroup {
	return ShaderGroup{
		Type:         GeneralGroup,
		General:      stageIndex,
		ClosestHit:   ShaderUnused,
		AnyHit:       ShaderUnused,
		Intersection: ShaderUnused,
	}
}

// NewTrianglesHitGroup builds a triangle hit group. anyHit may be
// ShaderUnused.
func NewTrianglesHitGroup(closestHit, anyHit int32) ShaderGroup {
	return ShaderGroup{
		Type:         TrianglesHitGroup,
		General:      ShaderUnused,
		ClosestHit:   closestHit,
		AnyHit:       anyHit,
		Intersection: ShaderUnused,
	}
}

// NewProceduralHitGroup builds a procedural hit group around an
// intersection stage.
func NewProceduralHitGroup(intersection, closestHit, anyHit int32) ShaderGroup {
	return ShaderGroup{
		Type:         ProceduralHitGroup,
		General:      ShaderUnused,
		ClosestHit:   closestHit,
		AnyHit:       anyHit,
		Intersection: intersection,
	}
}

// RayTracingPipelineDescription is an immutable description of a ray
// tracing pipeline. Group order defines shader group handle order, which
// in turn defines the record order of the binding tables built from it.
type RayTracingPipelineDescription struct {
	Stages            []RayStage
	Groups            []ShaderGroup
	MaxRecursionDepth uint32
}

// Check validates stage references and group ordering: exactly one raygen
// group first, then all miss groups, then hit groups, then callables.
func (d *RayTracingPipelineDescription) Check() error {
	if len(d.Stages) == 0 {
		return fmt.Errorf("ray tracing pipeline has no stages")
	}
	if len(d.Groups) == 0 {
		return fmt.Errorf("ray tracing pipeline has no shader groups")
	}
	if d.MaxRecursionDepth == 0 {
		return fmt.Errorf("ray tracing pipeline requires a recursion depth of at least 1")
	}

	stageKind := func(index int32) (RayStageKind, error) {
		if index == ShaderUnused {
			return 0, fmt.Errorf("stage index is unused")
		}
		if index < 0 || int(index) >= len(d.Stages) {
			return 0, fmt.Errorf("stage index %d out of range [0, %d)", index, len(d.Stages))
		}
		return d.Stages[index].Kind, nil
	}

	raygenCount := 0
	// Group ordering phases: 0 raygen, 1 miss, 2 hit, 3 callable.
	phase := 0
	for i, group := range d.Groups {
		switch group.Type {
		case GeneralGroup:
			kind, err := stageKind(group.General)
			if err != nil {
				return fmt.Errorf("group %d: %w", i, err)
			}
			if group.ClosestHit != ShaderUnused || group.AnyHit != ShaderUnused || group.Intersection != ShaderUnused {
				return fmt.Errorf("group %d: general group must not reference hit stages", i)
			}
			switch kind {
			case RayGenStage:
				if phase != 0 {
					return fmt.Errorf("group %d: raygen group must come first", i)
				}
				raygenCount++
			case MissStage:
				if phase > 1 {
					return fmt.Errorf("group %d: miss groups must precede hit and callable groups", i)
				}
				phase = 1
			case CallableStage:
				phase = 3
			default:
				return fmt.Errorf("group %d: general group references %s stage", i, kind)
			}
		case TrianglesHitGroup, ProceduralHitGroup:
			if phase > 2 {
				return fmt.Errorf("group %d: hit groups must precede callable groups", i)
			}
			phase = 2
			if group.General != ShaderUnused {
				return fmt.Errorf("group %d: hit group must not reference a general stage", i)
			}
			if group.ClosestHit != ShaderUnused {
				kind, err := stageKind(group.ClosestHit)
				if err != nil {
					return fmt.Errorf("group %d: %w", i, err)
				}
				if kind != ClosestHitStage {
					return fmt.Errorf("group %d: closest-hit slot references %s stage", i, kind)
				}
			}
			if group.AnyHit != ShaderUnused {
				kind, err := stageKind(group.AnyHit)
				if err != nil {
					return fmt.Errorf("group %d: %w", i, err)
				}
				if kind != AnyHitStage {
					return fmt.Errorf("group %d: any-hit slot references %s stage", i, kind)
				}
			}
			if group.Type == ProceduralHitGroup {
				kind, err := stageKind(group.Intersection)
				if err != nil {
					return fmt.Errorf("group %d: %w", i, err)
				}
				if kind != IntersectionStage {
					return fmt.Errorf("group %d: intersection slot references %s stage", i, kind)
				}
			} else if group.Intersection != ShaderUnused {
				return fmt.Errorf("group %d: triangle hit group must not carry an intersection stage", i)
			}
		default:
			return fmt.Errorf("group %d: unknown group type %d", i, group.Type)
		}
	}

	if raygenCount != 1 {
		return fmt.Errorf("ray tracing pipeline requires exactly one raygen group, found %d", raygenCount)
	}
	return nil
}

// GroupCounts returns how many groups of each region kind the description
// carries, in handle order.
func (d *RayTracingPipelineDescription) GroupCounts() (raygen, miss, hit, callable uint32) {
	for _, group := range d.Groups {
		switch group.Type {
		case GeneralGroup:
			if group.General != ShaderUnused && int(group.General) < len(d.Stages) {
				switch d.Stages[group.General].Kind {
				case RayGenStage:
					raygen++
				case MissStage:
					miss++
				case CallableStage:
					callable++
				}
			}
		case TrianglesHitGroup, ProceduralHitGroup:
			hit++
		}
	}
	return
}
