package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lecternhq/lectern/internal/session"
)

// SessionClearer resets a conversation's history.
type SessionClearer interface {
	Clear(id uuid.UUID) error
}

// ClearSessionRequest is the body of POST /api/sessions/clear.
type ClearSessionRequest struct {
	SessionID string `json:"session_id"`
}

// ClearSessionResponse confirms the reset.
type ClearSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

type sessionHandler struct {
	sessions SessionClearer
	logger   *slog.Logger
}

// clear wipes the history of an existing session so the next query starts
// a fresh conversation under the same id.
func (h *sessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req ClearSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}

	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id is not a valid UUID")
		return
	}

	if err := h.sessions.Clear(id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.logger.Error("failed to clear session", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to clear session")
		return
	}

	writeJSON(w, http.StatusOK, ClearSessionResponse{Success: true, SessionID: id.String()})
}
