package estimator

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/perfkit/schedtune-validator/internal/platform"
)

const (
	// DefaultMarginPct is the allowed relative deviation between the
	// estimated and measured average frequencies.
	DefaultMarginPct = 10.0

	// A boost of 80 already reaches the maximum frequency: boost is on a
	// 0-100 scale but the governor applies its own headroom margin on top.
	boostCeiling = 80.0
)

// TargetFrequency estimates the frequency the governor should select for the
// given boost level, rounded up to a real operating point. available must be
// sorted ascending; the raw estimate min(max, max*boost/80) is rounded to the
// smallest operating point that can satisfy it, falling back to the highest
// one.
func TargetFrequency(boost int, maxFreq platform.KHz, available []platform.KHz) (platform.KHz, error) {
	if len(available) == 0 {
		return 0, fmt.Errorf("cannot estimate target for boost %d: %w", boost, platform.ErrNoFrequencies)
	}

	raw := math.Min(float64(maxFreq), float64(maxFreq)*float64(boost)/boostCeiling)

	if target, found := roundUpTo(available, raw); found {
		return target, nil
	}
	return available[len(available)-1], nil
}

// roundUpTo returns the smallest operating point >= raw. opps must be sorted
// ascending.
func roundUpTo[T constraints.Integer](opps []T, raw float64) (T, bool) {
	for _, opp := range opps {
		if float64(opp) >= raw {
			return opp, true
		}
	}
	var zero T
	return zero, false
}

// Validate compares the estimated target against the measured average
// frequency. The distance is the absolute relative deviation in percent; the
// check passes only when it is strictly below the margin.
func Validate(target platform.KHz, avgFreq float64, marginPct float64) (distancePct float64, passed bool) {
	distancePct = math.Abs(float64(target)-avgFreq) * 100 / float64(target)
	return distancePct, distancePct < marginPct
}
