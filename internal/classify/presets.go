package classify

import "github.com/jonathan/persona-engine/internal/types"

// presetCatalog is the fixed, pre-validated last-resort type set. Names obey
// every naming rule (length, word count, uniqueness) by construction.
var presetCatalog = []struct {
	name        string
	description string
	tags        []string
	cell        string
	neutral     bool
}{
	{"The Beacon", "Leads with conviction and pulls others along.", []string{"High", "High"}, "Hi-Hi", false},
	{"The Scout", "Pushes ahead alone and reports back later.", []string{"High", "Low"}, "Hi-Lo", false},
	{"The Harbor", "Keeps the group steady while others roam.", []string{"Low", "High"}, "Lo-Hi", false},
	{"The Bedrock", "Changes slowly and holds everything up.", []string{"Low", "Low"}, "Lo-Lo", false},
	{"The Current", "Moves between extremes without settling.", []string{"Neutral", "High"}, "Md-Hi", true},
	{"The Mirror", "Reflects whichever side is strongest nearby.", []string{"Neutral", "Low"}, "Md-Lo", true},
}

// PresetTypes returns the fixed 6-type catalog bound to the session's two
// dominant axes. Used when the generated set violates a run-level invariant.
func PresetTypes(axisAID, axisBID string) []types.TypeCandidate {
	out := make([]types.TypeCandidate, len(presetCatalog))
	for i, p := range presetCatalog {
		out[i] = types.TypeCandidate{
			Name:             p.name,
			ShortDescription: p.description,
			PrimaryAxes:      []string{axisAID, axisBID},
			PolarityTags:     append([]string(nil), p.tags...),
			Meta: types.TypeMeta{
				Cell:             p.cell,
				IsNeutralVariant: p.neutral,
			},
		}
	}
	return out
}
