package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-engine/internal/types"
)

func testScenes() []types.Scene {
	scenes := make([]types.Scene, types.SceneCount)
	for i := range scenes {
		index := i + 1
		scenes[i] = types.Scene{
			Index:  index,
			Prompt: "situation",
			Choices: []types.Choice{
				{ID: "a", Text: "first", Weights: types.WeightVector{"logic": 0.5}},
				{ID: "b", Text: "second", Weights: types.WeightVector{"logic": -0.5}},
			},
		}
	}
	return scenes
}

func newTestStore(t *testing.T) (*Store, *Session) {
	t.Helper()
	store := NewStore(0)
	sess := store.Create(uuid.New(), "ocean",
		[]types.Axis{{ID: "logic", Name: "Logic"}},
		types.SeedModifier{"logic": 0.2},
		testScenes(),
	)
	return store, sess
}

func TestStore_CreateAndGet(t *testing.T) {
	store, sess := newTestStore(t)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(0)
	_, err := store.Get(uuid.New())
	var notFound *ErrSessionNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestSession_RecordChoiceInOrder(t *testing.T) {
	_, sess := newTestStore(t)

	for i := 1; i <= types.SceneCount; i++ {
		require.NoError(t, sess.RecordChoice(i, "a"))
	}
	assert.Equal(t, 4, sess.Answered())

	weights, err := sess.ChosenWeights()
	require.NoError(t, err)
	require.Len(t, weights, 4)
	assert.Equal(t, 0.5, weights[0]["logic"])
}

func TestSession_OutOfOrderChoiceRejected(t *testing.T) {
	_, sess := newTestStore(t)

	err := sess.RecordChoice(2, "a")
	var orderErr *ErrSceneOrder
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, 1, orderErr.Want)
	assert.Equal(t, 2, orderErr.Got)

	require.NoError(t, sess.RecordChoice(1, "a"))
	err = sess.RecordChoice(1, "b") // repeat of an answered scene
	var answered *ErrAlreadyAnswered
	require.ErrorAs(t, err, &answered)
	assert.Equal(t, 1, answered.SceneIndex)
}

func TestSession_UnknownChoiceRejected(t *testing.T) {
	_, sess := newTestStore(t)
	err := sess.RecordChoice(1, "zz")
	var unknown *ErrUnknownChoice
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 0, sess.Answered(), "failed choice must not advance the session")
}

func TestSession_ChosenWeightsRequiresCompletion(t *testing.T) {
	_, sess := newTestStore(t)
	require.NoError(t, sess.RecordChoice(1, "a"))

	_, err := sess.ChosenWeights()
	var incomplete *ErrSessionIncomplete
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Answered)
}

func TestSession_FinalizeIsWriteOnce(t *testing.T) {
	_, sess := newTestStore(t)

	first := &types.Result{AlgorithmVersion: types.AlgorithmVersion}
	second := &types.Result{AlgorithmVersion: "other"}

	got := sess.Finalize(first)
	assert.Same(t, first, got)
	got = sess.Finalize(second)
	assert.Same(t, first, got, "first finalized result wins")

	err := sess.RecordChoice(1, "a")
	var finalized *ErrSessionFinalized
	assert.ErrorAs(t, err, &finalized)
}

func TestSession_ConcurrentChoicesSerialized(t *testing.T) {
	_, sess := newTestStore(t)

	// many goroutines race to answer scene 1; exactly one must win
	var wg sync.WaitGroup
	successes := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sess.RecordChoice(1, "a") == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, sess.Answered())
}
