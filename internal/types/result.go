//nolint:revive // types is a standard Go package name pattern
package types

// AlgorithmVersion identifies the scoring/classification algorithm revision
// embedded in every result payload.
const AlgorithmVersion = "1.2.0"

// FailureCodeTypePreset marks a result whose type set was replaced wholesale
// by the fixed preset catalog after a run-level invariant violation.
const FailureCodeTypePreset = "TYPE_PRESET"

// AxisScore pairs one axis with its normalized and raw score.
type AxisScore struct {
	AxisID   string  `json:"axis_id"`
	Score    float64 `json:"score"`
	RawScore float64 `json:"raw_score"`
}

// TypeMeta carries classification provenance for one type candidate.
type TypeMeta struct {
	Cell             string `json:"cell"`
	IsNeutralVariant bool   `json:"is_neutral_variant,omitempty"`
}

// TypeCandidate is one named personality type in a session's result.
// Created once at result time and never mutated.
type TypeCandidate struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	PrimaryAxes      []string `json:"primary_axes"` // always exactly 2 axis IDs
	PolarityTags     []string `json:"polarity_tags"`
	Meta             TypeMeta `json:"meta"`
}

// GenerationMeta records how a result was produced. One instance per result
// generation, write-once, used for observability only.
type GenerationMeta struct {
	RetryCount             int                `json:"retry_count"`
	FallbackUsed           bool               `json:"fallback_used"`
	Variance               float64            `json:"variance"`
	ThresholdUsed          map[string]float64 `json:"threshold_used"`
	DiscardedNames         []string           `json:"discarded_names,omitempty"`
	TypeCount              int                `json:"type_count"`
	NeutralVariantIncluded bool               `json:"neutral_variant_included"`
	FailureCode            string             `json:"failure_code,omitempty"`
}

// Result is the complete payload returned for a finished session.
type Result struct {
	AlgorithmVersion string             `json:"algorithm_version"`
	PrimaryAxes      []string           `json:"primary_axes"` // always exactly 2 axis IDs
	Thresholds       map[string]float64 `json:"threshold"`
	Scores           []AxisScore        `json:"normalized_scores"`
	Types            []TypeCandidate    `json:"types"` // 4..6 items
	GenerationMeta   GenerationMeta     `json:"generation_meta"`
}
