//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// CreateSessionRequest starts a new diagnosis session from a seed keyword.
type CreateSessionRequest struct {
	SeedKeyword string `json:"seed_keyword" validate:"required,min=1,max=40"`
}

// RecordChoiceRequest records the user's choice for one scene.
// SceneIndex is 1-based and choices must arrive in scene order.
type RecordChoiceRequest struct {
	SceneIndex int    `json:"scene_index" validate:"required,min=1,max=4"`
	ChoiceID   string `json:"choice_id" validate:"required"`
}

// CreateSessionResponse returns the bootstrapped session to the client.
type CreateSessionResponse struct {
	SessionID    string  `json:"session_id"`
	SessionToken string  `json:"session_token"`
	Axes         []Axis  `json:"axes"`
	Scenes       []Scene `json:"scenes"`
}

// Validate validates the CreateSessionRequest using the validator.
func (r *CreateSessionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the RecordChoiceRequest using the validator.
func (r *RecordChoiceRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
