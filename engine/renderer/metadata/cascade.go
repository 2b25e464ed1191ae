package metadata

import "github.com/go-gl/mathgl/mgl32"

// CascadeData holds the shadow information for one cascade: the light-space
// projection-view matrix used to render its shadow map and the view-space
// distance at which this cascade ends.
type CascadeData struct {
	ProjViewMatrix mgl32.Mat4
	SplitDistance  float32
}
