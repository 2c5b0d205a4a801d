package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/prompts"
	"github.com/jonathan/persona-engine/internal/schemas"
	"github.com/jonathan/persona-engine/internal/types"
)

// Classification is the classifier's output: the dominant axis pair, the
// thresholds used, the named type set, and the observability meta record.
type Classification struct {
	PrimaryAxes []string
	Thresholds  map[string]float64
	Variance    float64
	Types       []types.TypeCandidate
	Meta        types.GenerationMeta
}

// polarityCell is one cell of the type grid spanned by the two dominant axes.
type polarityCell struct {
	a, b           Polarity
	neutralVariant bool
}

func (c polarityCell) code() string {
	return c.a.cellCode() + "-" + c.b.cellCode()
}

// Classifier produces type candidates from normalized scores. Naming goes
// through the failover orchestrator; everything else is synchronous
// arithmetic.
type Classifier struct {
	orch      *failover.Orchestrator
	tie       TiePolicy
	expansion ExpansionPolicy
	banned    []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTiePolicy overrides the exact-tie resolution policy.
func WithTiePolicy(p TiePolicy) Option {
	return func(c *Classifier) { c.tie = p }
}

// WithExpansionPolicy overrides the neutral-variant expansion policy.
func WithExpansionPolicy(p ExpansionPolicy) Option {
	return func(c *Classifier) { c.expansion = p }
}

// WithBannedTerms appends terms to the default banned name list.
func WithBannedTerms(terms []string) Option {
	return func(c *Classifier) { c.banned = append(c.banned, terms...) }
}

// New creates a classifier using the given orchestrator for type naming.
func New(orch *failover.Orchestrator, opts ...Option) *Classifier {
	c := &Classifier{
		orch:      orch,
		tie:       NeutralTiePolicy{},
		expansion: PerAxisExpansionPolicy{},
		banned:    append([]string(nil), defaultBannedTerms...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the full classification pipeline. The caller guarantees the
// session holds at least 2 axes with a normalized score for each; generation
// problems degrade to deterministic names or the fixed preset set and are
// never returned as errors.
func (c *Classifier) Classify(ctx context.Context, sessionID uuid.UUID, axes []types.Axis, scores types.NormalizedScore) *Classification {
	axisA, axisB := selectDominantAxes(axes, scores)

	variance := populationVariance(scores)
	threshold := dynamicThreshold(variance)
	thresholds := map[string]float64{axisA.ID: threshold, axisB.ID: threshold}

	scoreMean := mean(scores)
	polA := classifyPolarity(scores[axisA.ID], scoreMean, threshold)
	polB := classifyPolarity(scores[axisB.ID], scoreMean, threshold)

	preNeutralA := polA == PolarityNeutral
	preNeutralB := polB == PolarityNeutral

	// Forced binarization: two Neutral dominant axes collapse into High/Low
	// when their scores are far enough apart.
	binarized := false
	if preNeutralA && preNeutralB {
		diff := scores[axisA.ID] - scores[axisB.ID]
		switch {
		case diff > threshold:
			polA, polB = PolarityHigh, PolarityLow
			binarized = true
		case -diff > threshold:
			polA, polB = PolarityLow, PolarityHigh
			binarized = true
		case diff == 0:
			polA, polB = c.tie.ResolveTie()
			binarized = polA != PolarityNeutral || polB != PolarityNeutral
		}
	}

	cells := buildCells(polA, polB, preNeutralA, preNeutralB, binarized, c.expansion)

	meta := types.GenerationMeta{
		Variance:               variance,
		ThresholdUsed:          thresholds,
		TypeCount:              len(cells),
		NeutralVariantIncluded: len(cells) > 4,
	}

	candidates := c.nameCells(ctx, sessionID, cells, axisA, axisB, &meta)

	if err := validateTypeSet(candidates, axes); err != nil {
		candidates = PresetTypes(axisA.ID, axisB.ID)
		meta.FallbackUsed = true
		meta.FailureCode = types.FailureCodeTypePreset
		meta.TypeCount = len(candidates)
		meta.NeutralVariantIncluded = false
	}

	return &Classification{
		PrimaryAxes: []string{axisA.ID, axisB.ID},
		Thresholds:  thresholds,
		Variance:    variance,
		Types:       candidates,
		Meta:        meta,
	}
}

// buildCells constructs the 4 base polarity cells plus any neutral expansion
// cells the policy surfaces, capped at 6 total.
func buildCells(polA, polB Polarity, preNeutralA, preNeutralB, binarized bool, expansion ExpansionPolicy) []polarityCell {
	cells := []polarityCell{
		{a: PolarityHigh, b: PolarityHigh},
		{a: PolarityHigh, b: PolarityLow},
		{a: PolarityLow, b: PolarityHigh},
		{a: PolarityLow, b: PolarityLow},
	}

	variants := expansion.NeutralVariants(preNeutralA, preNeutralB, binarized)
	if variants <= 0 {
		return cells
	}

	switch {
	case preNeutralA && preNeutralB && binarized:
		cells = append(cells,
			polarityCell{a: PolarityNeutral, b: polB, neutralVariant: true},
			polarityCell{a: polA, b: PolarityNeutral, neutralVariant: true},
		)
	case preNeutralA && preNeutralB:
		cells = append(cells, polarityCell{a: PolarityNeutral, b: PolarityNeutral, neutralVariant: true})
	case preNeutralA:
		cells = append(cells, polarityCell{a: PolarityNeutral, b: polB, neutralVariant: true})
	case preNeutralB:
		cells = append(cells, polarityCell{a: polA, b: PolarityNeutral, neutralVariant: true})
	}

	if len(cells) > 6 {
		cells = cells[:6]
	}
	return cells
}

// namedType is the JSON shape the naming operation returns.
type namedType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// nameCells requests a name and description for every cell through the
// orchestrator, falling back to deterministic polarity-label names when the
// retry budget is exhausted.
func (c *Classifier) nameCells(ctx context.Context, sessionID uuid.UUID, cells []polarityCell, axisA, axisB types.Axis, meta *types.GenerationMeta) []types.TypeCandidate {
	registry := newNameRegistry(c.banned)
	template := prompts.MustGet("generation.json", "type_name")

	candidates := make([]types.TypeCandidate, 0, len(cells))
	for _, cell := range cells {
		prompt := prompts.Format(template, map[string]string{
			"PolaritySummary": polaritySummary(cell, axisA, axisB),
			"AxisSummary":     axisSummary(axisA, axisB),
			"Banned":          strings.Join(c.banned, ", "),
		})

		var parsed namedType
		out := c.orch.Invoke(ctx, failover.Request{
			Operation: failover.OpTypeNaming,
			SessionID: sessionID,
			Prompt:    prompt,
			Tier:      llm.TierLite,
			Validate: func(raw string) error {
				if err := schemas.Validate(schemas.TypeName, raw); err != nil {
					return err
				}
				var nt namedType
				if err := json.Unmarshal([]byte(raw), &nt); err != nil {
					return err
				}
				if err := registry.check(nt.Name); err != nil {
					meta.DiscardedNames = append(meta.DiscardedNames, nt.Name)
					return err
				}
				parsed = nt
				return nil
			},
		})

		meta.RetryCount += out.RetryCount
		name := parsed.Name
		description := parsed.Description
		if out.FallbackUsed {
			meta.FallbackUsed = true
			name = fallbackName(cell, axisA, axisB, registry)
			description = fallbackDescription(cell, axisA, axisB)
		}
		registry.accept(name)

		candidates = append(candidates, types.TypeCandidate{
			Name:             name,
			ShortDescription: description,
			PrimaryAxes:      []string{axisA.ID, axisB.ID},
			PolarityTags:     []string{string(cell.a), string(cell.b)},
			Meta: types.TypeMeta{
				Cell:             cell.code(),
				IsNeutralVariant: cell.neutralVariant,
			},
		})
	}
	return candidates
}

// validateTypeSet enforces the run-level invariants. A violation triggers the
// preset substitution.
func validateTypeSet(candidates []types.TypeCandidate, axes []types.Axis) error {
	if len(candidates) < 4 || len(candidates) > 6 {
		return fmt.Errorf("type count %d outside [4,6]", len(candidates))
	}

	axisSet := make(map[string]struct{}, len(axes))
	for _, a := range axes {
		axisSet[a.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		if cand.Name == "" || cand.ShortDescription == "" {
			return fmt.Errorf("candidate missing required field")
		}
		if len(cand.PrimaryAxes) != 2 {
			return fmt.Errorf("candidate %q has %d primary axes", cand.Name, len(cand.PrimaryAxes))
		}
		for _, id := range cand.PrimaryAxes {
			if _, ok := axisSet[id]; !ok {
				return fmt.Errorf("candidate %q references unknown axis %s", cand.Name, id)
			}
		}
		lower := strings.ToLower(cand.Name)
		if _, dup := seen[lower]; dup {
			return fmt.Errorf("duplicate type name %q", cand.Name)
		}
		seen[lower] = struct{}{}
	}
	return nil
}

func polaritySummary(cell polarityCell, axisA, axisB types.Axis) string {
	return fmt.Sprintf("%s on %s and %s on %s",
		strings.ToLower(string(cell.a)), axisA.Name,
		strings.ToLower(string(cell.b)), axisB.Name)
}

func axisSummary(axisA, axisB types.Axis) string {
	return fmt.Sprintf("%s (%s vs %s), %s (%s vs %s)",
		axisA.Name, axisA.PositiveLabel, axisA.NegativeLabel,
		axisB.Name, axisB.PositiveLabel, axisB.NegativeLabel)
}
