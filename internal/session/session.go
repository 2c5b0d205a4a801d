package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/types"
)

// Session is one user's diagnosis state. The axis set, seed modifier, and
// scenes are immutable after bootstrap; the choice accumulation state is
// guarded by a per-session mutex so concurrent submissions from the transport
// layer are serialized into single-writer order.
type Session struct {
	ID          uuid.UUID
	SeedKeyword string
	Axes        []types.Axis
	Seed        types.SeedModifier
	Scenes      []types.Scene
	CreatedAt   time.Time

	mu        sync.Mutex
	chosen    []types.WeightVector
	chosenIDs []string
	result    *types.Result
}

func newSession(id uuid.UUID, seedKeyword string, axes []types.Axis, seed types.SeedModifier, scenes []types.Scene) *Session {
	return &Session{
		ID:          id,
		SeedKeyword: seedKeyword,
		Axes:        axes,
		Seed:        seed,
		Scenes:      scenes,
		CreatedAt:   time.Now().UTC(),
		chosen:      make([]types.WeightVector, 0, types.SceneCount),
		chosenIDs:   make([]string, 0, types.SceneCount),
	}
}

// RecordChoice records the user's choice for one scene. Choices must arrive
// strictly in scene-index order (1→4); violations return typed errors owned
// by the transport contract.
func (s *Session) RecordChoice(sceneIndex int, choiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return &ErrSessionFinalized{}
	}
	want := len(s.chosen) + 1
	if sceneIndex < want {
		return &ErrAlreadyAnswered{SceneIndex: sceneIndex}
	}
	if sceneIndex > want {
		return &ErrSceneOrder{Want: want, Got: sceneIndex}
	}

	scene := s.Scenes[sceneIndex-1]
	for _, choice := range scene.Choices {
		if choice.ID == choiceID {
			s.chosen = append(s.chosen, choice.Weights.Clone())
			s.chosenIDs = append(s.chosenIDs, choiceID)
			return nil
		}
	}
	return &ErrUnknownChoice{SceneIndex: sceneIndex, ChoiceID: choiceID}
}

// Answered returns how many scenes have been answered.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chosen)
}

// ChosenWeights returns the four recorded choice weight vectors in scene
// order, or ErrSessionIncomplete when scenes remain unanswered.
func (s *Session) ChosenWeights() ([]types.WeightVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chosen) < types.SceneCount {
		return nil, &ErrSessionIncomplete{Answered: len(s.chosen)}
	}
	out := make([]types.WeightVector, len(s.chosen))
	copy(out, s.chosen)
	return out, nil
}

// Finalize stores the computed result, making the session read-only. The
// first stored result wins; repeat computations return the original.
func (s *Session) Finalize(result *types.Result) *types.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		s.result = result
	}
	return s.result
}

// Result returns the finalized result, if any.
func (s *Session) Result() (*types.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.result != nil
}

// Store is the in-memory session arena keyed by correlation id. Abandoned
// sessions are swept after the TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// DefaultTTL is how long an unfinished session survives without activity.
const DefaultTTL = 30 * time.Minute

// NewStore creates a session store sweeping abandoned sessions after ttl.
// A non-positive ttl disables sweeping.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweep()
	}
	return s
}

// Create registers a new session built from bootstrap output. The caller
// allocates the correlation id so generation records emitted during bootstrap
// carry the same id.
func (s *Store) Create(id uuid.UUID, seedKeyword string, axes []types.Axis, seed types.SeedModifier, scenes []types.Scene) *Session {
	sess := newSession(id, seedKeyword, axes, seed, scenes)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id or ErrSessionNotFound.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &ErrSessionNotFound{ID: id}
	}
	return sess, nil
}

// Delete removes a session from the arena.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the sweep goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweep() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.ttl)
			s.mu.Lock()
			for id, sess := range s.sessions {
				if sess.CreatedAt.Before(cutoff) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}
