package loop

import "time"

const nanosPerSecond = int64(time.Second)

// MaxAssumedRate is the frame rate assumed when a rate of zero (uncapped) is
// used in pacing math.
const MaxAssumedRate = 1000

// MaxCatchUp bounds the wall time a skipping policy accumulates in one
// iteration, which bounds the burst of updates after a stall.
const MaxCatchUp = 250 * time.Millisecond

// DefaultHybridMargin is subtracted from the original frame time to obtain the
// hybrid policy switch threshold. It needs empirical tuning per platform.
const DefaultHybridMargin = time.Millisecond

// ComputeFrameTime returns the duration of one frame at rate, in nanoseconds.
// A rate of zero is capped at MaxAssumedRate. The result is at least one
// nanosecond.
func ComputeFrameTime(rate int) int64 {
	if rate <= 0 {
		return nanosPerSecond / MaxAssumedRate
	}
	return max(nanosPerSecond/int64(rate), 1)
}

// extrapolation converts an elapsed wall time into simulation steps at rate.
func extrapolation(rate int, elapsed int64) float64 {
	if rate <= 0 {
		rate = MaxAssumedRate
	}
	return float64(rate) / float64(nanosPerSecond) * float64(elapsed)
}
