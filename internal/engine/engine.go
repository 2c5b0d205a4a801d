// Package engine exposes the diagnosis flow to the transport layer: session
// bootstrap, choice recording, and result computation. Generation-service
// problems never surface as errors here; only caller-owned precondition
// violations do.
package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/classify"
	"github.com/jonathan/persona-engine/internal/failover"
	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/scoring"
	"github.com/jonathan/persona-engine/internal/session"
	"github.com/jonathan/persona-engine/internal/types"
)

// Engine runs diagnosis sessions. Each session's computation is independent;
// the orchestrator and store are the only shared resources.
type Engine struct {
	orch       *failover.Orchestrator
	classifier *classify.Classifier
	store      *session.Store
}

// New creates an engine over the given orchestrator, classifier, and session
// store.
func New(orch *failover.Orchestrator, classifier *classify.Classifier, store *session.Store) *Engine {
	return &Engine{orch: orch, classifier: classifier, store: store}
}

// Bootstrap creates a session for a seed keyword: axes and seed modifier
// first, then the four scenes. Both steps degrade to fixed defaults rather
// than failing, so Bootstrap always returns a usable session.
func (e *Engine) Bootstrap(ctx context.Context, seedKeyword string) *session.Session {
	id := uuid.New()

	axisBoot := generation.GenerateAxes(ctx, e.orch, id, seedKeyword)
	sceneBoot := generation.GenerateScenes(ctx, e.orch, id, seedKeyword, axisBoot.Axes)

	return e.store.Create(id, seedKeyword, axisBoot.Axes, axisBoot.Seed, sceneBoot.Scenes)
}

// Session returns the session for id or a typed not-found error.
func (e *Engine) Session(id uuid.UUID) (*session.Session, error) {
	return e.store.Get(id)
}

// RecordChoice records one scene choice for a session.
func (e *Engine) RecordChoice(id uuid.UUID, sceneIndex int, choiceID string) error {
	sess, err := e.store.Get(id)
	if err != nil {
		return err
	}
	return sess.RecordChoice(sceneIndex, choiceID)
}

// ComputeResult finalizes a completed session: accumulate, normalize,
// classify, and assemble the result payload. Repeat calls return the
// already-finalized result. The only error paths are caller-owned
// preconditions (unknown session, incomplete session).
func (e *Engine) ComputeResult(ctx context.Context, id uuid.UUID) (*types.Result, error) {
	sess, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}

	if result, done := sess.Result(); done {
		return result, nil
	}

	chosen, err := sess.ChosenWeights()
	if err != nil {
		return nil, err
	}

	raw := scoring.Accumulate(sess.Seed, chosen)
	normalized := scoring.ApplyNeutralOverride(scoring.Normalize(raw))

	classification := e.classifier.Classify(ctx, sess.ID, sess.Axes, normalized)

	scores := make([]types.AxisScore, len(sess.Axes))
	for i, axis := range sess.Axes {
		scores[i] = types.AxisScore{
			AxisID:   axis.ID,
			Score:    normalized[axis.ID],
			RawScore: raw[axis.ID],
		}
	}

	result := &types.Result{
		AlgorithmVersion: types.AlgorithmVersion,
		PrimaryAxes:      classification.PrimaryAxes,
		Thresholds:       classification.Thresholds,
		Scores:           scores,
		Types:            classification.Types,
		GenerationMeta:   classification.Meta,
	}
	return sess.Finalize(result), nil
}
