package shadows

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDepthsProperties(t *testing.T) {
	near, far := float32(0.1), float32(100.0)
	splits := SplitDepths(near, far, 4)
	require.Len(t, splits, 4)

	// Strictly increasing and bounded by the clip range.
	prev := near
	for _, s := range splits {
		assert.Greater(t, s, prev)
		prev = s
	}
	assert.Equal(t, far, splits[3])

	// The practical split scheme biases resolution toward the near plane:
	// the first interval is far smaller than an even division.
	assert.Less(t, splits[0], near+(far-near)/4)
}

func TestSplitDepthsSingleCascade(t *testing.T) {
	splits := SplitDepths(1, 50, 1)
	require.Len(t, splits, 1)
	assert.Equal(t, float32(50), splits[0])
}

func testCascadeInput() CascadeInput {
	return CascadeInput{
		View:           mgl32.LookAtV(mgl32.Vec3{0, 5, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		Projection:     mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100.0),
		LightDirection: mgl32.Vec3{0.3, -1, 0.2},
		NearPlane:      0.1,
		FarPlane:       100.0,
		CascadeCount:   ShaderCascadeCount,
	}
}

func TestComputeCascades(t *testing.T) {
	cascades, err := ComputeCascades(testCascadeInput())
	require.NoError(t, err)
	require.Len(t, cascades, ShaderCascadeCount)

	prev := float32(0)
	for i, c := range cascades {
		assert.Greater(t, c.SplitDistance, prev, "cascade %d", i)
		prev = c.SplitDistance

		// The matrix must be usable, not identity or zero.
		assert.NotEqual(t, mgl32.Ident4(), c.ProjViewMatrix, "cascade %d", i)
		assert.NotEqual(t, mgl32.Mat4{}, c.ProjViewMatrix, "cascade %d", i)
	}
	assert.InDelta(t, 100.0, float64(cascades[ShaderCascadeCount-1].SplitDistance), 0.001)
}

func TestComputeCascadesVerticalLight(t *testing.T) {
	in := testCascadeInput()
	// Straight-down light is collinear with the usual up vector; the
	// fallback up axis must keep the view matrix well formed.
	in.LightDirection = mgl32.Vec3{0, -1, 0}

	cascades, err := ComputeCascades(in)
	require.NoError(t, err)
	for _, c := range cascades {
		for i := 0; i < 16; i++ {
			assert.False(t, isNaN32(c.ProjViewMatrix[i]))
		}
	}
}

func TestComputeCascadesRejectsBadInput(t *testing.T) {
	in := testCascadeInput()
	in.CascadeCount = 0
	_, err := ComputeCascades(in)
	assert.Error(t, err)

	in = testCascadeInput()
	in.FarPlane = in.NearPlane
	_, err = ComputeCascades(in)
	assert.Error(t, err)

	in = testCascadeInput()
	in.LightDirection = mgl32.Vec3{}
	_, err = ComputeCascades(in)
	assert.Error(t, err)
}

func isNaN32(f float32) bool {
	return f != f
}
