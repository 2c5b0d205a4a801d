package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/prompts"
	"github.com/jonathan/persona-engine/internal/schemas"
	"github.com/jonathan/persona-engine/internal/types"
)

// SceneBootstrap is the outcome of scenario generation for one session.
type SceneBootstrap struct {
	Scenes        []types.Scene
	RetryCount    int
	FallbackCount int
}

// GenerateScenes produces the session's 4 scenes. The scenes are generated
// concurrently; each scene fails over independently to its fixed template, so
// one bad generation never blocks the rest.
func GenerateScenes(ctx context.Context, orch *failover.Orchestrator, sessionID uuid.UUID, seedKeyword string, axes []types.Axis) SceneBootstrap {
	template := prompts.MustGet("generation.json", "scenario")
	axisList := strings.Join(types.AxisIDs(axes), ", ")

	scenes := make([]types.Scene, types.SceneCount)
	outcomes := make([]failover.Outcome, types.SceneCount)

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < types.SceneCount; i++ {
		index := i + 1
		slot := i
		g.Go(func() error {
			prompt := prompts.Format(template, map[string]string{
				"SeedKeyword": seedKeyword,
				"SceneIndex":  strconv.Itoa(index),
				"AxisList":    axisList,
			})

			var parsed types.Scene
			out := orch.Invoke(gCtx, failover.Request{
				Operation: failover.OpScenarioGeneration,
				SessionID: sessionID,
				Prompt:    prompt,
				Tier:      llm.TierStandard,
				Validate: func(raw string) error {
					scene, err := parseScene(raw, index)
					if err != nil {
						return err
					}
					parsed = scene
					return nil
				},
			})

			if out.FallbackUsed {
				parsed = fallbackScene(index, axes)
			}
			scenes[slot] = parsed
			outcomes[slot] = out
			return nil
		})
	}
	// goroutines never return errors; fallback absorbs every failure
	_ = g.Wait()

	result := SceneBootstrap{Scenes: scenes}
	for _, out := range outcomes {
		result.RetryCount += out.RetryCount
		if out.FallbackUsed {
			result.FallbackCount++
		}
	}
	return result
}

// parseScene validates and decodes one generated scene.
func parseScene(raw string, wantIndex int) (types.Scene, error) {
	if err := schemas.Validate(schemas.Scenario, raw); err != nil {
		return types.Scene{}, err
	}
	var scene types.Scene
	if err := json.Unmarshal([]byte(raw), &scene); err != nil {
		return types.Scene{}, err
	}
	if scene.Index != wantIndex {
		return types.Scene{}, fmt.Errorf("scene index %d, want %d", scene.Index, wantIndex)
	}
	seen := make(map[string]struct{}, len(scene.Choices))
	for _, choice := range scene.Choices {
		if _, dup := seen[choice.ID]; dup {
			return types.Scene{}, fmt.Errorf("duplicate choice id %q", choice.ID)
		}
		seen[choice.ID] = struct{}{}
	}
	return scene, nil
}

// fallbackScenePrompts are the fixed scenario templates, one per scene.
var fallbackScenePrompts = [types.SceneCount]string{
	"A free afternoon opens up unexpectedly. What do you reach for first?",
	"A group project is drifting off course. How do you react?",
	"You arrive somewhere new with no plan. What happens next?",
	"Something you built gets unexpected criticism. What is your first move?",
}

// fallbackScene builds the deterministic scene template for one index. Choice
// weights alternate poles across axes so the axes stay distinguishable.
func fallbackScene(index int, axes []types.Axis) types.Scene {
	texts := [3]string{"Lean in and take charge", "Watch and adapt", "Step back and reflect"}
	weights := [3]float64{0.5, 0.0, -0.5}

	choices := make([]types.Choice, len(texts))
	for c := range texts {
		w := make(types.WeightVector, len(axes))
		for i, axis := range axes {
			// alternate sign by axis position so axes stay distinguishable
			sign := 1.0
			if (i+c)%2 == 1 {
				sign = -1
			}
			w[axis.ID] = sign * weights[c]
		}
		choices[c] = types.Choice{
			ID:      fmt.Sprintf("s%dc%d", index, c+1),
			Text:    texts[c],
			Weights: w,
		}
	}

	return types.Scene{
		Index:   index,
		Prompt:  fallbackScenePrompts[index-1],
		Choices: choices,
	}
}
