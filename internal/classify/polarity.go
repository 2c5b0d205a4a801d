// Package classify turns normalized axis scores into a named set of 4-6
// personality type candidates, using the failover orchestrator for naming and
// degrading to deterministic substitutes when generation misbehaves.
package classify

import (
	"math"
	"sort"

	"github.com/jonathan/persona-engine/internal/types"
)

// Polarity classifies one dominant axis relative to the score mean.
type Polarity string

// Polarity values. Neutral means the score sits within the threshold band
// around the mean.
const (
	PolarityHigh    Polarity = "High"
	PolarityLow     Polarity = "Low"
	PolarityNeutral Polarity = "Neutral"
)

// cellCode maps a polarity to its two-letter cell component.
func (p Polarity) cellCode() string {
	switch p {
	case PolarityHigh:
		return "Hi"
	case PolarityLow:
		return "Lo"
	default:
		return "Md"
	}
}

// thresholdFloor is the minimum High/Low cutoff; it dominates when variance
// is low so near-flat score profiles classify as Neutral.
const thresholdFloor = 5.0

// mean returns the arithmetic mean of all normalized scores.
func mean(scores types.NormalizedScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// populationVariance returns the population variance of all normalized scores.
func populationVariance(scores types.NormalizedScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	m := mean(scores)
	sum := 0.0
	for _, v := range scores {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(scores))
}

// dynamicThreshold computes the variance-sensitive High/Low cutoff.
func dynamicThreshold(variance float64) float64 {
	return math.Max(thresholdFloor, 10*math.Sqrt(variance/100))
}

// selectDominantAxes ranks axes by |score - mean| descending and returns the
// top two. Ties are broken by axis declaration order: the axis that appears
// earlier in the session's axis list wins.
func selectDominantAxes(axes []types.Axis, scores types.NormalizedScore) (axisA, axisB types.Axis) {
	m := mean(scores)

	type ranked struct {
		axis      types.Axis
		deviation float64
		order     int
	}
	rankedAxes := make([]ranked, len(axes))
	for i, a := range axes {
		rankedAxes[i] = ranked{
			axis:      a,
			deviation: math.Abs(scores[a.ID] - m),
			order:     i,
		}
	}

	sort.SliceStable(rankedAxes, func(i, j int) bool {
		if rankedAxes[i].deviation != rankedAxes[j].deviation {
			return rankedAxes[i].deviation > rankedAxes[j].deviation
		}
		return rankedAxes[i].order < rankedAxes[j].order
	})

	return rankedAxes[0].axis, rankedAxes[1].axis
}

// classifyPolarity assigns High/Low/Neutral for one axis score against the
// mean and its threshold.
func classifyPolarity(score, scoreMean, threshold float64) Polarity {
	switch {
	case score-scoreMean >= threshold:
		return PolarityHigh
	case scoreMean-score >= threshold:
		return PolarityLow
	default:
		return PolarityNeutral
	}
}
