package vulkan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFrameTransitions(t *testing.T) {
	cases := []struct {
		from, to FrameState
		ok       bool
	}{
		{FrameIdle, FrameAcquiring, true},
		{FrameAcquiring, FrameRecording, true},
		{FrameRecording, FrameSubmitted, true},
		{FrameSubmitted, FrameIdle, true},

		// Any state may abort back to idle.
		{FrameAcquiring, FrameIdle, true},
		{FrameRecording, FrameIdle, true},
		{FrameIdle, FrameIdle, true},

		// Skipping a phase is not allowed.
		{FrameIdle, FrameRecording, false},
		{FrameIdle, FrameSubmitted, false},
		{FrameAcquiring, FrameSubmitted, false},
		{FrameRecording, FrameAcquiring, false},
		{FrameSubmitted, FrameRecording, false},
		{FrameSubmitted, FrameAcquiring, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.ok, ValidFrameTransition(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestFrameSlotTransitionEnforcesOrder(t *testing.T) {
	slot := &FrameSlot{State: FrameIdle}

	assert.NoError(t, slot.transition(FrameAcquiring))
	assert.NoError(t, slot.transition(FrameRecording))
	assert.NoError(t, slot.transition(FrameSubmitted))
	assert.NoError(t, slot.transition(FrameIdle))

	assert.Error(t, slot.transition(FrameRecording))
	assert.Equal(t, FrameIdle, slot.State)
}

func TestFrameStateString(t *testing.T) {
	assert.Equal(t, "idle", FrameIdle.String())
	assert.Equal(t, "acquiring", FrameAcquiring.String())
	assert.Equal(t, "recording", FrameRecording.String())
	assert.Equal(t, "submitted", FrameSubmitted.String())
}

func TestDrainSkipsNeverArmedFences(t *testing.T) {
	// A frame that aborted between the fence reset and the queue submit
	// leaves an unsignaled fence no submission will ever arm.
	aborted := &FrameSlot{State: FrameIdle, InFlight: &VulkanFence{}}
	submitted := &FrameSlot{State: FrameIdle, InFlight: &VulkanFence{}, armed: true}

	var waited []*VulkanFence
	fsync := &FrameSynchronizer{
		context: &VulkanContext{},
		slots:   []*FrameSlot{aborted, submitted},
	}
	fsync.waitFence = func(fence *VulkanFence, timeoutNs uint64) bool {
		waited = append(waited, fence)
		assert.Equal(t, uint64(math.MaxUint64), timeoutNs)
		return true
	}

	fsync.Drain()

	require.Len(t, waited, 1)
	assert.Same(t, submitted.InFlight, waited[0])
}

func TestBeginFrameStopsOnUnsignaledSlotFence(t *testing.T) {
	// With every slot still in flight, the next acquire must suspend on
	// the current slot's fence and surface a failed wait as an error.
	slots := []*FrameSlot{
		{State: FrameIdle, InFlight: &VulkanFence{}, armed: true},
		{State: FrameIdle, InFlight: &VulkanFence{}, armed: true},
	}
	fsync := &FrameSynchronizer{
		context: &VulkanContext{},
		slots:   slots,
	}
	var waited []*VulkanFence
	fsync.waitFence = func(fence *VulkanFence, timeoutNs uint64) bool {
		waited = append(waited, fence)
		return false
	}

	_, _, err := fsync.BeginFrame()
	require.Error(t, err)
	assert.Equal(t, FrameIdle, slots[0].State)
	require.Len(t, waited, 1)
	assert.Same(t, slots[0].InFlight, waited[0])
}
