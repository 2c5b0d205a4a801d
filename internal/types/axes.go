// Package types provides type definitions for structured data used throughout the persona-engine system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Axis represents one bipolar personality dimension.
// Axes are created once per session during bootstrap and are immutable afterwards.
type Axis struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	PositiveLabel string `json:"positive_label"` // e.g. "Analytical"
	NegativeLabel string `json:"negative_label"` // e.g. "Emotional"
}

// WeightVector maps axis IDs to weights in [-1, 1].
type WeightVector map[string]float64

// SeedModifier maps axis IDs to the initial bias in [-1, 1] derived from the
// user's chosen seed keyword. Computed once, before any scene is answered.
type SeedModifier map[string]float64

// RawScoreVector maps axis IDs to accumulated raw scores.
// Theoretical range per axis is [-5, 5]: ±1 from the seed plus ±1 per scene × 4 scenes.
type RawScoreVector map[string]float64

// NormalizedScore maps axis IDs to scores in [0, 100].
type NormalizedScore map[string]float64

// Choice represents one selectable option within a scene.
type Choice struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Weights WeightVector `json:"weights"`
}

// Scene represents one scenario the user answers.
// Index is 1-based; a session always has exactly 4 scenes.
type Scene struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Choices []Choice `json:"choices"`
}

// SceneCount is the fixed number of scenes in a diagnosis session.
const SceneCount = 4

// Clone returns a deep copy of the weight vector.
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// AxisIDs returns the IDs of the given axes in declaration order.
func AxisIDs(axes []Axis) []string {
	ids := make([]string, len(axes))
	for i, a := range axes {
		ids[i] = a.ID
	}
	return ids
}
