package server

import (
	"fmt"
	"net/http"

	"github.com/jonathan/persona-engine/internal/session"
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrResultNotReady indicates a result was requested before computation.
type ErrResultNotReady struct{}

func (e *ErrResultNotReady) Error() string {
	return "result has not been computed for this session"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *session.ErrSessionNotFound:
		return http.StatusNotFound
	case *session.ErrUnknownChoice:
		return http.StatusBadRequest
	case *session.ErrSceneOrder, *session.ErrAlreadyAnswered,
		*session.ErrSessionIncomplete, *session.ErrSessionFinalized:
		return http.StatusConflict
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrResultNotReady:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
