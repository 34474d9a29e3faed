package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lecternhq/lectern/internal/chat"
	"github.com/lecternhq/lectern/internal/tools"
)

// Request validation constants.
const (
	// MaxQueryLength bounds the user query in characters.
	MaxQueryLength = 8000

	// MaxBodyBytes bounds the request body size.
	MaxBodyBytes = 64 * 1024
)

// Answerer runs one query through the orchestrator. The zero UUID starts
// a new session.
type Answerer interface {
	Query(ctx context.Context, sessionID uuid.UUID, query string) (*chat.Answer, error)
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the body of a successful query answer.
type QueryResponse struct {
	Answer    string              `json:"answer"`
	Sources   []tools.Attribution `json:"sources"`
	SessionID string              `json:"session_id"`
}

type queryHandler struct {
	answerer Answerer
	logger   *slog.Logger
}

// query answers one user query, creating a session when none is given.
func (h *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	if len(query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long")
		return
	}

	sessionID := uuid.Nil
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "session_id is not a valid UUID")
			return
		}
		sessionID = id
	}

	answer, err := h.answerer.Query(r.Context(), sessionID, query)
	if err != nil {
		if errors.Is(err, chat.ErrGenerationUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "generation_unavailable", "the AI provider is unavailable, try again later")
			return
		}
		h.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to answer query")
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []tools.Attribution{}
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: answer.SessionID.String(),
	})
}
