package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/types"
)

// parseSessionID extracts and parses the {id} path value.
func parseSessionID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

// handleCreateSession bootstraps a new diagnosis session from a seed keyword
// and returns the session payload with a session-scoped bearer token.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "seed_keyword is required and must be at most 40 characters")
		return
	}

	sess := s.engine.Bootstrap(r.Context(), req.SeedKeyword)

	token, err := s.jwtService.GenerateToken(sess.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	if s.database != nil {
		// Persistence is best effort; the session is served from memory.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.database.SaveSession(ctx, sess.ID, sess.SeedKeyword, sess.Axes); err != nil {
			log.Printf("failed to persist session %s: %v", sess.ID, err)
		}
	}

	s.jsonResponse(w, http.StatusCreated, types.CreateSessionResponse{
		SessionID:    sess.ID.String(),
		SessionToken: token,
		Axes:         sess.Axes,
		Scenes:       sess.Scenes,
	})
}

// handleGetSession returns the session's progress.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, _ := parseSessionID(r)
	sess, err := s.engine.Session(id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	_, finalized := sess.Result()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session_id":   sess.ID.String(),
		"seed_keyword": sess.SeedKeyword,
		"axes":         sess.Axes,
		"scenes":       sess.Scenes,
		"answered":     sess.Answered(),
		"finalized":    finalized,
	})
}

// handleRecordChoice records one scene choice for the session.
func (s *Server) handleRecordChoice(w http.ResponseWriter, r *http.Request) {
	id, _ := parseSessionID(r)

	var req types.RecordChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "scene_index must be 1..4 and choice_id is required")
		return
	}

	if err := s.engine.RecordChoice(id, req.SceneIndex, req.ChoiceID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sess, err := s.engine.Session(id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	answered := sess.Answered()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"answered":  answered,
		"remaining": types.SceneCount - answered,
	})
}

// handleComputeResult finalizes a completed session and returns the result.
// Repeat calls return the already-finalized result.
func (s *Server) handleComputeResult(w http.ResponseWriter, r *http.Request) {
	id, _ := parseSessionID(r)

	result, err := s.engine.ComputeResult(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if s.database != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.database.SaveResult(ctx, id, result); err != nil {
			log.Printf("failed to persist result %s: %v", id, err)
		}
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleGetResult returns the finalized result. Falls back to the database
// when the session has been swept from memory.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id, _ := parseSessionID(r)

	if sess, err := s.engine.Session(id); err == nil {
		if result, done := sess.Result(); done {
			s.jsonResponse(w, http.StatusOK, result)
			return
		}
		notReady := &ErrResultNotReady{}
		s.errorResponse(w, HTTPStatus(notReady), notReady.Error())
		return
	}

	if s.database != nil {
		result, err := s.database.GetResult(r.Context(), id)
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "failed to load result")
			return
		}
		if result != nil {
			s.jsonResponse(w, http.StatusOK, result)
			return
		}
	}

	s.errorResponse(w, http.StatusNotFound, "session not found: "+id.String())
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStats returns aggregate generation counters.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.collector.Stats())
}
