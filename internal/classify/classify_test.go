package classify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/types"
)

// namingClient returns canned naming responses in call order; entries that
// are empty strings simulate a service error.
type namingClient struct {
	responses []string
	calls     int
}

func (c *namingClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	idx := c.calls
	c.calls++
	if idx >= len(c.responses) || c.responses[idx] == "" {
		return "", fmt.Errorf("generation service unavailable")
	}
	return c.responses[idx], nil
}

func (c *namingClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *namingClient) GetModel(tier llm.ModelTier) string { return "canned" }
func (c *namingClient) Close() error                       { return nil }

func namedResponse(name string) string {
	return fmt.Sprintf(`{"name": %q, "description": "A generated description."}`, name)
}

func testAxes() []types.Axis {
	return []types.Axis{
		{ID: "logic", Name: "Logic", PositiveLabel: "Analytical", NegativeLabel: "Intuitive"},
		{ID: "warmth", Name: "Warmth", PositiveLabel: "Open", NegativeLabel: "Guarded"},
	}
}

func newTestClassifier(client llm.Client, opts ...Option) *Classifier {
	orch := failover.New(client, nil, failover.WithTimeout(50*time.Millisecond), failover.WithBackoff(time.Millisecond))
	return New(orch, opts...)
}

func TestSelectDominantAxes_ByDeviation(t *testing.T) {
	axes := []types.Axis{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	scores := types.NormalizedScore{"a": 50, "b": 90, "c": 30}
	// mean 56.67: deviations b=33.3, c=26.7, a=6.7
	axisA, axisB := selectDominantAxes(axes, scores)
	assert.Equal(t, "b", axisA.ID)
	assert.Equal(t, "c", axisB.ID)
}

func TestSelectDominantAxes_TieBrokenByDeclarationOrder(t *testing.T) {
	axes := []types.Axis{{ID: "first"}, {ID: "second"}, {ID: "third"}}
	scores := types.NormalizedScore{"first": 60, "second": 40, "third": 60}
	// mean 53.33: first and third tie at 6.67, second at 13.33
	axisA, axisB := selectDominantAxes(axes, scores)
	assert.Equal(t, "second", axisA.ID)
	assert.Equal(t, "first", axisB.ID, "earlier-declared axis wins the tie")
}

func TestDynamicThreshold_FloorDominatesAtZeroVariance(t *testing.T) {
	assert.Equal(t, 5.0, dynamicThreshold(0))
	assert.Equal(t, 5.0, dynamicThreshold(10)) // 10*sqrt(0.1) ≈ 3.16 < 5
	assert.InDelta(t, 20.0, dynamicThreshold(400), 1e-9)
}

func TestClassifyPolarity(t *testing.T) {
	assert.Equal(t, PolarityHigh, classifyPolarity(80, 60, 20))
	assert.Equal(t, PolarityLow, classifyPolarity(40, 60, 20))
	assert.Equal(t, PolarityNeutral, classifyPolarity(62, 60, 5))
}

func TestClassify_ConcreteHighLowScenario(t *testing.T) {
	client := &namingClient{responses: []string{
		namedResponse("The Blaze"),
		namedResponse("The Drift"),
		namedResponse("The Quarry"),
		namedResponse("The Haven"),
	}}
	c := newTestClassifier(client)

	// raw {axisA: 3.0, axisB: -1.0} normalizes to {80, 40}
	scores := types.NormalizedScore{"logic": 80, "warmth": 40}
	out := c.Classify(context.Background(), uuid.New(), testAxes(), scores)

	require.Len(t, out.Types, 4)
	assert.Equal(t, []string{"logic", "warmth"}, out.PrimaryAxes)
	assert.InDelta(t, 400.0, out.Variance, 1e-9)
	assert.InDelta(t, 20.0, out.Thresholds["logic"], 1e-9)
	assert.Equal(t, 4, out.Meta.TypeCount)
	assert.False(t, out.Meta.NeutralVariantIncluded)
	assert.False(t, out.Meta.FallbackUsed)
	assert.Equal(t, 0, out.Meta.RetryCount)

	cells := make([]string, len(out.Types))
	for i, cand := range out.Types {
		cells[i] = cand.Meta.Cell
		assert.Len(t, cand.PrimaryAxes, 2)
	}
	assert.Equal(t, []string{"Hi-Hi", "Hi-Lo", "Lo-Hi", "Lo-Lo"}, cells)
}

func TestClassify_ExactTieStaysNeutralByDefault(t *testing.T) {
	client := &namingClient{responses: []string{
		namedResponse("The Blaze"),
		namedResponse("The Drift"),
		namedResponse("The Quarry"),
		namedResponse("The Haven"),
		namedResponse("The Prism"),
	}}
	c := newTestClassifier(client)

	// variance 0, threshold floor 5, both axes Neutral, |50-50| = 0 < 5
	scores := types.NormalizedScore{"logic": 50, "warmth": 50}
	out := c.Classify(context.Background(), uuid.New(), testAxes(), scores)

	require.Len(t, out.Types, 5, "both-neutral unbinarized adds a single Md-Md variant")
	assert.True(t, out.Meta.NeutralVariantIncluded)
	assert.Equal(t, 5.0, out.Thresholds["logic"], "floor dominates at zero variance")

	last := out.Types[4]
	assert.Equal(t, "Md-Md", last.Meta.Cell)
	assert.True(t, last.Meta.IsNeutralVariant)
}

func TestClassify_DeclarationOrderTiePolicyBinarizes(t *testing.T) {
	client := &namingClient{responses: []string{
		namedResponse("The Blaze"),
		namedResponse("The Drift"),
		namedResponse("The Quarry"),
		namedResponse("The Haven"),
		namedResponse("The Prism"),
		namedResponse("The Ember"),
	}}
	c := newTestClassifier(client, WithTiePolicy(DeclarationOrderTiePolicy{}))

	scores := types.NormalizedScore{"logic": 50, "warmth": 50}
	out := c.Classify(context.Background(), uuid.New(), testAxes(), scores)

	require.Len(t, out.Types, 6, "binarized both-neutral surfaces both variants")
	assert.Equal(t, "Md-Lo", out.Types[4].Meta.Cell)
	assert.Equal(t, "Hi-Md", out.Types[5].Meta.Cell)
}

func TestClassify_DuplicateNameRetriedThenAccepted(t *testing.T) {
	client := &namingClient{responses: []string{
		namedResponse("The Blaze"),
		namedResponse("The Blaze"), // duplicate, discarded
		namedResponse("The Drift"), // retry succeeds
		namedResponse("The Quarry"),
		namedResponse("The Haven"),
	}}
	c := newTestClassifier(client)

	scores := types.NormalizedScore{"logic": 80, "warmth": 40}
	out := c.Classify(context.Background(), uuid.New(), testAxes(), scores)

	require.Len(t, out.Types, 4)
	assert.Equal(t, "The Drift", out.Types[1].Name)
	assert.Equal(t, 1, out.Meta.RetryCount)
	assert.Contains(t, out.Meta.DiscardedNames, "The Blaze")
	assert.False(t, out.Meta.FallbackUsed)
}

func TestClassify_NamingFailureFallsBackDeterministically(t *testing.T) {
	// every call fails: all four cells get deterministic polarity-label names
	client := &namingClient{responses: []string{"", "", "", "", "", "", "", ""}}
	c := newTestClassifier(client)

	scores := types.NormalizedScore{"logic": 80, "warmth": 40}
	out := c.Classify(context.Background(), uuid.New(), testAxes(), scores)

	require.Len(t, out.Types, 4)
	assert.True(t, out.Meta.FallbackUsed)
	assert.Equal(t, 4, out.Meta.RetryCount, "one retry per cell")
	assert.Empty(t, out.Meta.FailureCode, "per-cell fallback is not the preset path")

	seen := map[string]struct{}{}
	for _, cand := range out.Types {
		assert.NotEmpty(t, cand.Name)
		assert.NotEmpty(t, cand.ShortDescription)
		_, dup := seen[cand.Name]
		assert.False(t, dup, "fallback names must be unique: %s", cand.Name)
		seen[cand.Name] = struct{}{}
	}
	// Hi-Hi cell: both positive labels, truncated to 7 runes each
	assert.Equal(t, "Analyti Open", out.Types[0].Name)
}

func TestClassify_CandidateAxesAlwaysInSessionSet(t *testing.T) {
	client := &namingClient{responses: []string{
		namedResponse("The Blaze"),
		namedResponse("The Drift"),
		namedResponse("The Quarry"),
		namedResponse("The Haven"),
	}}
	c := newTestClassifier(client)

	axes := testAxes()
	scores := types.NormalizedScore{"logic": 70, "warmth": 30}
	out := c.Classify(context.Background(), uuid.New(), axes, scores)

	axisSet := map[string]struct{}{}
	for _, a := range axes {
		axisSet[a.ID] = struct{}{}
	}
	for _, cand := range out.Types {
		require.Len(t, cand.PrimaryAxes, 2)
		for _, id := range cand.PrimaryAxes {
			_, ok := axisSet[id]
			assert.True(t, ok, "axis %s not in session set", id)
		}
	}
}

func TestValidateTypeSet_Violations(t *testing.T) {
	axes := testAxes()
	good := PresetTypes("logic", "warmth")
	require.NoError(t, validateTypeSet(good, axes))

	tooFew := good[:3]
	assert.Error(t, validateTypeSet(tooFew, axes))

	badAxes := PresetTypes("logic", "ghost")
	assert.Error(t, validateTypeSet(badAxes, axes))

	dup := PresetTypes("logic", "warmth")
	dup[1].Name = dup[0].Name
	assert.Error(t, validateTypeSet(dup, axes))

	missing := PresetTypes("logic", "warmth")
	missing[2].ShortDescription = ""
	assert.Error(t, validateTypeSet(missing, axes))

	wrongArity := PresetTypes("logic", "warmth")
	wrongArity[0].PrimaryAxes = []string{"logic"}
	assert.Error(t, validateTypeSet(wrongArity, axes))
}

func TestPresetTypes_FixedAndValid(t *testing.T) {
	preset := PresetTypes("logic", "warmth")
	require.Len(t, preset, 6)
	require.NoError(t, validateTypeSet(preset, testAxes()))

	registry := newNameRegistry(nil)
	for _, cand := range preset {
		require.NoError(t, registry.check(cand.Name), "preset name %q violates naming rules", cand.Name)
		registry.accept(cand.Name)
	}
}

func TestBuildCells_VariantShapes(t *testing.T) {
	policy := PerAxisExpansionPolicy{}

	base := buildCells(PolarityHigh, PolarityLow, false, false, false, policy)
	assert.Len(t, base, 4)

	oneNeutral := buildCells(PolarityNeutral, PolarityHigh, true, false, false, policy)
	require.Len(t, oneNeutral, 5)
	assert.Equal(t, "Md-Hi", oneNeutral[4].code())

	bothUnbinarized := buildCells(PolarityNeutral, PolarityNeutral, true, true, false, policy)
	require.Len(t, bothUnbinarized, 5)
	assert.Equal(t, "Md-Md", bothUnbinarized[4].code())

	bothBinarized := buildCells(PolarityHigh, PolarityLow, true, true, true, policy)
	require.Len(t, bothBinarized, 6)
	assert.Equal(t, "Md-Lo", bothBinarized[4].code())
	assert.Equal(t, "Hi-Md", bothBinarized[5].code())
}
