package scoring

import "math"

// Normalize converts a channel's raw model output into a score in [0,1].
//
// CREDIT_RISK raw output is already a probability; it is only clamped to guard
// against floating point overshoot at the extremes.
//
// FRAUD raw output is an anomaly margin where higher means more normal. The
// margin is negated into an anomaly score and squashed through the logistic
// function, making an arbitrarily scaled margin commensurable with a
// probability without a calibration set. Monotonic ordering is preserved;
// absolute calibration is not.
//
// Non-finite inputs map deterministically to a bound, never propagating NaN
// downstream: NaN clamps to 0, and infinities land on whichever bound the
// channel's monotonic direction dictates.
func Normalize(channel Channel, raw float64) float64 {
	switch channel {
	case ChannelFraud:
		return clampUnit(logistic(-raw))
	default:
		return clampUnit(raw)
	}
}

func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clampUnit(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
