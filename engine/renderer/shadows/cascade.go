package shadows

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lwjglgamedev/vulkanbook-go/engine/renderer/metadata"
)

// splitLambda blends the logarithmic and uniform split schemes. Values
// near 1 push resolution toward the near plane.
const splitLambda = 0.95

// ShaderCascadeCount is the cascade count the built-in shadow shaders are
// compiled with. The shadow_cascades engine property must match it; the
// engine asserts this once at startup.
const ShaderCascadeCount = 3

// CascadeInput is everything the split computation needs from the scene.
type CascadeInput struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// Direction the light shines in, world space. Need not be normalized.
	LightDirection mgl32.Vec3
	NearPlane      float32
	FarPlane       float32
	CascadeCount   int
}

func (in CascadeInput) check() error {
	if in.CascadeCount < 1 {
		return fmt.Errorf("cascade count must be >= 1, got %d", in.CascadeCount)
	}
	if in.NearPlane <= 0 {
		return fmt.Errorf("near plane must be > 0, got %f", in.NearPlane)
	}
	if in.FarPlane <= in.NearPlane {
		return fmt.Errorf("far plane (%f) must exceed near plane (%f)", in.FarPlane, in.NearPlane)
	}
	if in.LightDirection.Len() == 0 {
		return fmt.Errorf("light direction must be non-zero")
	}
	return nil
}

// SplitDepths returns the view-space far distance of each cascade using
// the practical split scheme: a lambda blend of logarithmic and linear
// splits. Distances are strictly increasing and the last equals the far
// plane.
func SplitDepths(near, far float32, count int) []float32 {
	splits := make([]float32, count)
	clipRange := far - near
	ratio := float64(far / near)
	for i := 0; i < count; i++ {
		p := float64(i+1) / float64(count)
		logSplit := float64(near) * math.Pow(ratio, p)
		linearSplit := float64(near) + float64(clipRange)*p
		splits[i] = float32(splitLambda*logSplit + (1-splitLambda)*linearSplit)
	}
	splits[count-1] = far
	return splits
}

// ComputeCascades slices the camera frustum into cascades and fits a
// light-space orthographic projection tightly around each slice. The
// returned SplitDistance values are positive view-space depths.
func ComputeCascades(in CascadeInput) ([]metadata.CascadeData, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	splits := SplitDepths(in.NearPlane, in.FarPlane, in.CascadeCount)
	cascades := make([]metadata.CascadeData, in.CascadeCount)

	invCamera := in.Projection.Mul4(in.View).Inv()
	lightDir := in.LightDirection.Normalize()
	clipRange := in.FarPlane - in.NearPlane

	lastSplit := in.NearPlane
	for ci := 0; ci < in.CascadeCount; ci++ {
		// Slice bounds normalized to [0, 1] across the clip range.
		splitNear := (lastSplit - in.NearPlane) / clipRange
		splitFar := (splits[ci] - in.NearPlane) / clipRange

		corners := frustumCorners(invCamera, splitNear, splitFar)

		var center mgl32.Vec3
		for _, c := range corners {
			center = center.Add(c)
		}
		center = center.Mul(1.0 / float32(len(corners)))

		radius := float32(0)
		for _, c := range corners {
			if d := c.Sub(center).Len(); d > radius {
				radius = d
			}
		}
		// Round up so the cascade does not shimmer as the camera rotates.
		radius = float32(math.Ceil(float64(radius)*16.0)) / 16.0

		lightView := mgl32.LookAtV(center.Sub(lightDir.Mul(radius)), center, upVectorFor(lightDir))
		lightProj := mgl32.Ortho(-radius, radius, -radius, radius, 0, 2*radius)

		cascades[ci] = metadata.CascadeData{
			ProjViewMatrix: lightProj.Mul4(lightView),
			SplitDistance:  splits[ci],
		}
		lastSplit = splits[ci]
	}

	return cascades, nil
}

// frustumCorners returns the eight world-space corners of the frustum
// slice between the normalized depths splitNear and splitFar.
func frustumCorners(invCamera mgl32.Mat4, splitNear, splitFar float32) [8]mgl32.Vec3 {
	// NDC cube corners; Vulkan clip space has z in [0, 1].
	ndc := [8]mgl32.Vec3{
		{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}

	var corners [8]mgl32.Vec3
	for i, c := range ndc {
		p := invCamera.Mul4x1(mgl32.Vec4{c.X(), c.Y(), c.Z(), 1})
		corners[i] = p.Vec3().Mul(1.0 / p.W())
	}

	// Move the near and far faces to the slice bounds.
	for i := 0; i < 4; i++ {
		dist := corners[i+4].Sub(corners[i])
		corners[i+4] = corners[i].Add(dist.Mul(splitFar))
		corners[i] = corners[i].Add(dist.Mul(splitNear))
	}
	return corners
}

// upVectorFor picks an up axis that is not collinear with the light.
func upVectorFor(lightDir mgl32.Vec3) mgl32.Vec3 {
	up := mgl32.Vec3{0, 1, 0}
	if abs := float32(math.Abs(float64(lightDir.Dot(up)))); abs > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return up
}
