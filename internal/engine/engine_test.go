package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-engine/internal/classify"
	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/observability"
	"github.com/jonathan/persona-engine/internal/session"
	"github.com/jonathan/persona-engine/internal/types"
)

// routingClient answers prompts by operation: axis prompts, scenario prompts
// by scene index, and naming prompts from a queue. Safe for concurrent use.
type routingClient struct {
	mu        sync.Mutex
	axisSet   string
	names     []string
	nameCalls int
	failAll   bool
}

func (c *routingClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll {
		return "", fmt.Errorf("generation service unavailable")
	}

	switch {
	case strings.Contains(prompt, "personality axes"):
		return c.axisSet, nil
	case strings.Contains(prompt, "of 4"):
		for index := 1; index <= 4; index++ {
			if strings.Contains(prompt, fmt.Sprintf("scene %d of 4", index)) {
				return sceneResponse(index), nil
			}
		}
		return "", fmt.Errorf("unrecognized scenario prompt")
	case strings.Contains(prompt, "personality type name"):
		if c.nameCalls >= len(c.names) {
			return "", fmt.Errorf("out of names")
		}
		name := c.names[c.nameCalls]
		c.nameCalls++
		return fmt.Sprintf(`{"name": %q, "description": "Generated description."}`, name), nil
	default:
		return "", fmt.Errorf("unrecognized prompt")
	}
}

func (c *routingClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *routingClient) GetModel(tier llm.ModelTier) string { return "canned" }
func (c *routingClient) Close() error                       { return nil }

func sceneResponse(index int) string {
	return fmt.Sprintf(`{"index": %d, "prompt": "Scene %d situation.", "choices": [
		{"id": "s%dc1", "text": "Act", "weights": {"logic": 1.0, "warmth": -0.5}},
		{"id": "s%dc2", "text": "Wait", "weights": {"logic": -1.0, "warmth": 0.5}}
	]}`, index, index, index, index)
}

const axisSetResponse = `{"axes": [
	{"id": "logic", "name": "Logic", "description": "Thinking style.", "positive_label": "Analytical", "negative_label": "Intuitive", "seed_relevance": 0.5},
	{"id": "warmth", "name": "Warmth", "description": "Social openness.", "positive_label": "Open", "negative_label": "Guarded", "seed_relevance": -0.5}
]}`

func newTestEngine(client llm.Client) (*Engine, *observability.Collector) {
	collector := observability.NewCollector(nil)
	orch := failover.New(client, collector, failover.WithTimeout(50*time.Millisecond), failover.WithBackoff(time.Millisecond))
	classifier := classify.New(orch)
	store := session.NewStore(0)
	return New(orch, classifier, store), collector
}

func happyClient() *routingClient {
	return &routingClient{
		axisSet: axisSetResponse,
		names:   []string{"The Blaze", "The Drift", "The Quarry", "The Haven", "The Prism", "The Ember"},
	}
}

func TestEngine_FullFlow(t *testing.T) {
	e, collector := newTestEngine(happyClient())
	ctx := context.Background()

	sess := e.Bootstrap(ctx, "ocean")
	require.Len(t, sess.Axes, 2)
	require.Len(t, sess.Scenes, 4)

	for i := 1; i <= 4; i++ {
		require.NoError(t, e.RecordChoice(sess.ID, i, fmt.Sprintf("s%dc1", i)))
	}

	result, err := e.ComputeResult(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, types.AlgorithmVersion, result.AlgorithmVersion)
	assert.Len(t, result.PrimaryAxes, 2)
	assert.GreaterOrEqual(t, len(result.Types), 4)
	assert.LessOrEqual(t, len(result.Types), 6)

	// seed 0.5 + 4×1.0 = 4.5 raw → 95.0; seed -0.5 + 4×-0.5 = -2.5 → 25.0
	require.Len(t, result.Scores, 2)
	assert.Equal(t, "logic", result.Scores[0].AxisID)
	assert.Equal(t, 95.0, result.Scores[0].Score)
	assert.Equal(t, 4.5, result.Scores[0].RawScore)
	assert.Equal(t, 25.0, result.Scores[1].Score)

	for _, score := range result.Scores {
		assert.GreaterOrEqual(t, score.Score, 0.0)
		assert.LessOrEqual(t, score.Score, 100.0)
	}

	assert.False(t, result.GenerationMeta.FallbackUsed)
	assert.Empty(t, result.GenerationMeta.FailureCode)

	collector.Close()
	stats := collector.Stats()
	// 1 axis call + 4 scene calls + one per type cell
	assert.Equal(t, int64(5+len(result.Types)), stats.Records)
}

func TestEngine_ResultNeverFailsWhenServiceIsDown(t *testing.T) {
	e, collector := newTestEngine(&routingClient{failAll: true})
	ctx := context.Background()

	sess := e.Bootstrap(ctx, "ember")
	require.Len(t, sess.Axes, 2, "fallback axis pair")
	require.Len(t, sess.Scenes, 4, "fallback scene templates")

	for i := 1; i <= 4; i++ {
		require.NoError(t, e.RecordChoice(sess.ID, i, fmt.Sprintf("s%dc1", i)))
	}

	result, err := e.ComputeResult(ctx, sess.ID)
	require.NoError(t, err, "generation failures must never surface")
	assert.GreaterOrEqual(t, len(result.Types), 4)
	assert.LessOrEqual(t, len(result.Types), 6)
	assert.True(t, result.GenerationMeta.FallbackUsed)

	collector.Close()
	assert.Greater(t, collector.Stats().Fallbacks, int64(0))
}

func TestEngine_ComputeResultPreconditions(t *testing.T) {
	e, _ := newTestEngine(happyClient())
	ctx := context.Background()

	_, err := e.ComputeResult(ctx, uuid.New())
	var notFound *session.ErrSessionNotFound
	require.ErrorAs(t, err, &notFound)

	sess := e.Bootstrap(ctx, "ocean")
	require.NoError(t, e.RecordChoice(sess.ID, 1, "s1c1"))

	_, err = e.ComputeResult(ctx, sess.ID)
	var incomplete *session.ErrSessionIncomplete
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Answered)
}

func TestEngine_ComputeResultIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(happyClient())
	ctx := context.Background()

	sess := e.Bootstrap(ctx, "ocean")
	for i := 1; i <= 4; i++ {
		require.NoError(t, e.RecordChoice(sess.ID, i, fmt.Sprintf("s%dc2", i)))
	}

	first, err := e.ComputeResult(ctx, sess.ID)
	require.NoError(t, err)
	second, err := e.ComputeResult(ctx, sess.ID)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestEngine_NeutralProfileForcedTo50(t *testing.T) {
	// choosing s*c1 then s*c2 alternately cancels out with a zero seed; use
	// a client whose axis relevance is zero and scenes weigh symmetrically
	client := happyClient()
	client.axisSet = `{"axes": [
		{"id": "logic", "name": "Logic", "positive_label": "Analytical", "negative_label": "Intuitive", "seed_relevance": 0.0},
		{"id": "warmth", "name": "Warmth", "positive_label": "Open", "negative_label": "Guarded", "seed_relevance": 0.0}
	]}`
	e, _ := newTestEngine(client)
	ctx := context.Background()

	sess := e.Bootstrap(ctx, "stone")
	choices := []string{"s1c1", "s2c2", "s3c1", "s4c2"}
	for i, id := range choices {
		require.NoError(t, e.RecordChoice(sess.ID, i+1, id))
	}

	result, err := e.ComputeResult(ctx, sess.ID)
	require.NoError(t, err)
	for _, score := range result.Scores {
		assert.Equal(t, 50.0, score.Score)
	}
	assert.True(t, result.GenerationMeta.NeutralVariantIncluded)
	require.GreaterOrEqual(t, len(result.Types), 5)
}
