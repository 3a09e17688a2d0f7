// Package progression holds the pure workload and percent-step
// calculators. Both are deterministic and safe to call from preview /
// what-if code paths as well as from session completion.
package progression

import "math"

const (
	// MaxEffort is the top of the 1-10 perceived-effort scale. Reporting
	// it means the session was maximal or failed, which triggers the
	// one-time regression pass instead of normal growth.
	MaxEffort = 10

	// MinPercentStep is the floor for the percent step when a hard (9)
	// session shrinks it.
	MinPercentStep = 2

	// RegressionFloorPct is the minimum percentage applied by the
	// regression pass after a maximal-effort session.
	RegressionFloorPct = 10
)

// NextWorkload computes the next rep count from a base value and a
// percentage step. When gentle is false the result is plain arithmetic
// rounding. When gentle is true the rounding granularity depends on the
// base: small workloads (<=10) round to the nearest integer, medium ones
// (<=20) to the nearest even number, larger ones to the nearest multiple
// of 5. The result never drops below 1.
func NextWorkload(base, percent int, gentle, increasing bool) int {
	factor := 1 + float64(percent)/100
	if !increasing {
		factor = 1 - float64(percent)/100
	}
	raw := float64(base) * factor

	if gentle {
		switch {
		case base <= 10:
			return atLeastOne(math.Round(raw))
		case base <= 20:
			return atLeastOne(math.Round(raw/2) * 2)
		default:
			return atLeastOne(math.Round(raw/5) * 5)
		}
	}
	return atLeastOne(math.Round(raw))
}

// NextPercent adapts the progression percent to the effort score of the
// just-completed session: too easy (<=6) grows the step by 3, on target
// (7-8) keeps it, hard (exactly 9) shrinks it by 3 down to MinPercentStep,
// and maximal (10) resets it to 0; the zero is a signal to the caller
// that the next workload update must take the regression path instead of
// the growth path.
func NextPercent(current, effort int) int {
	switch {
	case effort <= 6:
		return current + 3
	case effort <= 8:
		return current
	case effort == 9:
		if current-3 < MinPercentStep {
			return MinPercentStep
		}
		return current - 3
	default:
		return 0
	}
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
