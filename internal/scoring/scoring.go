// Package scoring accumulates per-scene choice weights into raw axis scores and
// normalizes them onto the 0-100 scale used by type classification.
package scoring

import (
	"math"

	"github.com/jonathan/persona-engine/internal/types"
)

const (
	// rawMin and rawMax bound the theoretical raw score per axis:
	// ±1 from the seed modifier plus ±1 per scene across 4 scenes.
	rawMin = -5.0
	rawMax = 5.0
)

// Accumulate sums the seed modifier and the weight vector of the choice
// selected in each scene, per axis. The axis set is taken from the seed
// modifier; axes missing from a choice vector contribute 0. Arithmetic is
// total, so there is no error path.
func Accumulate(seed types.SeedModifier, chosen []types.WeightVector) types.RawScoreVector {
	raw := make(types.RawScoreVector, len(seed))
	for axisID, bias := range seed {
		raw[axisID] = bias
	}
	for _, weights := range chosen {
		for axisID := range raw {
			raw[axisID] += weights[axisID]
		}
	}
	return raw
}

// Normalize maps each raw score linearly from [-5, 5] to [0, 100], clamping
// out-of-range values rather than rejecting them, and rounds to one decimal
// place.
func Normalize(raw types.RawScoreVector) types.NormalizedScore {
	normalized := make(types.NormalizedScore, len(raw))
	for axisID, value := range raw {
		scaled := (value - rawMin) / (rawMax - rawMin) * 100
		normalized[axisID] = round1(clamp(scaled, 0, 100))
	}
	return normalized
}

// ApplyNeutralOverride forces every axis to exactly 50.0 when all normalized
// values are numerically identical. This guarantees a canonical fully-neutral
// representation instead of relying on the normalization formula alone.
func ApplyNeutralOverride(normalized types.NormalizedScore) types.NormalizedScore {
	if len(normalized) == 0 {
		return normalized
	}

	var first float64
	seeded := false
	for _, value := range normalized {
		if !seeded {
			first = value
			seeded = true
			continue
		}
		if value != first {
			return normalized
		}
	}

	overridden := make(types.NormalizedScore, len(normalized))
	for axisID := range normalized {
		overridden[axisID] = 50.0
	}
	return overridden
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
