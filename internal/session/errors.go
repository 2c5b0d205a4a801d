// Package session holds the per-session mutable state arena: one record per
// correlation id, exclusively owning its score accumulation state.
package session

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrSessionNotFound indicates no session exists for the given id.
type ErrSessionNotFound struct {
	ID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// ErrSceneOrder indicates a choice arrived out of scene-index order.
type ErrSceneOrder struct {
	Want int
	Got  int
}

func (e *ErrSceneOrder) Error() string {
	return fmt.Sprintf("choices must arrive in scene order: expected scene %d, got %d", e.Want, e.Got)
}

// ErrAlreadyAnswered indicates a choice arrived for a scene that already has
// one.
type ErrAlreadyAnswered struct {
	SceneIndex int
}

func (e *ErrAlreadyAnswered) Error() string {
	return fmt.Sprintf("scene %d has already been answered", e.SceneIndex)
}

// ErrUnknownChoice indicates the choice id does not exist in the scene.
type ErrUnknownChoice struct {
	SceneIndex int
	ChoiceID   string
}

func (e *ErrUnknownChoice) Error() string {
	return fmt.Sprintf("scene %d has no choice %q", e.SceneIndex, e.ChoiceID)
}

// ErrSessionIncomplete indicates result computation was requested before all
// scenes were answered.
type ErrSessionIncomplete struct {
	Answered int
}

func (e *ErrSessionIncomplete) Error() string {
	return fmt.Sprintf("session incomplete: %d of 4 scenes answered", e.Answered)
}

// ErrSessionFinalized indicates a choice arrived after the result was computed.
type ErrSessionFinalized struct{}

func (e *ErrSessionFinalized) Error() string {
	return "session already finalized"
}
