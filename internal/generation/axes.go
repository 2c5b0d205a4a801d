// Package generation bootstraps a session's axes and scenario scenes through
// the failover orchestrator, validating LLM output and substituting fixed
// defaults when the retry budget is exhausted.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/prompts"
	"github.com/jonathan/persona-engine/internal/schemas"
	"github.com/jonathan/persona-engine/internal/types"
)

// AxisBootstrap is the outcome of axis generation for one session.
type AxisBootstrap struct {
	Axes         []types.Axis
	Seed         types.SeedModifier
	RetryCount   int
	FallbackUsed bool
}

// generatedAxis is the JSON shape of one axis in the axis-generation response.
type generatedAxis struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	PositiveLabel string  `json:"positive_label"`
	NegativeLabel string  `json:"negative_label"`
	SeedRelevance float64 `json:"seed_relevance"`
}

type axisSetResponse struct {
	Axes []generatedAxis `json:"axes"`
}

// GenerateAxes produces the session's 2-6 axes and the seed modifier derived
// from the keyword's tagged relevance. Falls back to the fixed default axis
// pair when generation fails or keeps producing invalid output.
func GenerateAxes(ctx context.Context, orch *failover.Orchestrator, sessionID uuid.UUID, seedKeyword string) AxisBootstrap {
	template := prompts.MustGet("generation.json", "axis_set")
	prompt := prompts.Format(template, map[string]string{"SeedKeyword": seedKeyword})

	var parsed axisSetResponse
	out := orch.Invoke(ctx, failover.Request{
		Operation: failover.OpAxisGeneration,
		SessionID: sessionID,
		Prompt:    prompt,
		Tier:      llm.TierStandard,
		Validate: func(raw string) error {
			if err := schemas.Validate(schemas.AxisSet, raw); err != nil {
				return err
			}
			var resp axisSetResponse
			if err := json.Unmarshal([]byte(raw), &resp); err != nil {
				return err
			}
			seen := make(map[string]struct{}, len(resp.Axes))
			for _, a := range resp.Axes {
				if _, dup := seen[a.ID]; dup {
					return fmt.Errorf("duplicate axis id %q", a.ID)
				}
				seen[a.ID] = struct{}{}
			}
			parsed = resp
			return nil
		},
	})

	if out.FallbackUsed {
		axes := DefaultAxes()
		return AxisBootstrap{
			Axes:         axes,
			Seed:         defaultSeedModifier(seedKeyword, axes),
			RetryCount:   out.RetryCount,
			FallbackUsed: true,
		}
	}

	axes := make([]types.Axis, len(parsed.Axes))
	seed := make(types.SeedModifier, len(parsed.Axes))
	for i, a := range parsed.Axes {
		axes[i] = types.Axis{
			ID:            a.ID,
			Name:          a.Name,
			Description:   a.Description,
			PositiveLabel: a.PositiveLabel,
			NegativeLabel: a.NegativeLabel,
		}
		seed[a.ID] = clampUnit(a.SeedRelevance)
	}
	return AxisBootstrap{Axes: axes, Seed: seed, RetryCount: out.RetryCount}
}

// DefaultAxes returns the fixed fallback axis pair.
func DefaultAxes() []types.Axis {
	return []types.Axis{
		{
			ID:            "structure",
			Name:          "Structure",
			Description:   "How much order you impose on your surroundings.",
			PositiveLabel: "Ordered",
			NegativeLabel: "Fluid",
		},
		{
			ID:            "energy",
			Name:          "Energy",
			Description:   "Where your attention naturally flows.",
			PositiveLabel: "Outward",
			NegativeLabel: "Inward",
		},
	}
}

// defaultSeedModifier derives a deterministic bias in [-0.5, 0.5] per axis
// from the keyword, so the fallback path still reflects the user's seed.
func defaultSeedModifier(seedKeyword string, axes []types.Axis) types.SeedModifier {
	seed := make(types.SeedModifier, len(axes))
	for _, a := range axes {
		h := fnv.New32a()
		_, _ = h.Write([]byte(seedKeyword + "|" + a.ID))
		seed[a.ID] = float64(h.Sum32()%1001)/1000 - 0.5
	}
	return seed
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
