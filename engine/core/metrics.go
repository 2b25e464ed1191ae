package core

import "sync"

const avgCount uint8 = 30

type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [avgCount]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			MStimes: [avgCount]float64{0},
		}
	})
	return nil
}

// MetricsUpdate accumulates one frame's elapsed time (in seconds) into the
// rolling frame-time average and the per-second FPS counter.
func MetricsUpdate(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	metricsState.MStimes[metricsState.FrameAVGCounter] = frameMS
	if metricsState.FrameAVGCounter == avgCount-1 {
		metricsState.MSavg = 0
		for i := uint8(0); i < avgCount; i++ {
			metricsState.MSavg += metricsState.MStimes[i]
		}
		metricsState.MSavg /= float64(avgCount)
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= avgCount

	metricsState.AccumulatedFrameMS += frameMS
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	metricsState.Frames++
}

func MetricsFrame() (fps float64, frameTimeMS float64) {
	return metricsState.FPS, metricsState.MSavg
}
