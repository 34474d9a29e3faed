package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternhq/lectern/internal/chat"
	"github.com/lecternhq/lectern/internal/tools"
)

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestQuerySuccess(t *testing.T) {
	sessionID := uuid.New()
	lesson := 4
	answerer := &fakeAnswerer{answer: &chat.Answer{
		Text: "MCP is a protocol for tool use.",
		Sources: []tools.Attribution{
			{CourseTitle: "MCP Basics", LessonNumber: &lesson, Link: "https://example.com/l4"},
		},
		SessionID: sessionID,
	}}
	h := newTestServer(t, answerer, nil, nil)

	w := postQuery(t, h, `{"query": "What is MCP?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp QueryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "MCP is a protocol for tool use.", resp.Answer)
	assert.Equal(t, sessionID.String(), resp.SessionID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "MCP Basics", resp.Sources[0].CourseTitle)

	// No session_id in the request starts a new session.
	assert.Equal(t, uuid.Nil, answerer.gotSessionID)
	assert.Equal(t, "What is MCP?", answerer.gotQuery)
}

func TestQuerySessionContinuation(t *testing.T) {
	id := uuid.New()
	answerer := &fakeAnswerer{answer: &chat.Answer{Text: "ok", SessionID: id}}
	h := newTestServer(t, answerer, nil, nil)

	w := postQuery(t, h, `{"query": "again", "session_id": "`+id.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, answerer.gotSessionID)
}

func TestQueryValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"invalid json", `{`},
		{"missing query", `{"session_id": "x"}`},
		{"blank query", `{"query": "   "}`},
		{"bad session id", `{"query": "hi", "session_id": "not-a-uuid"}`},
		{"oversized query", `{"query": "` + strings.Repeat("q", MaxQueryLength+1) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, nil, nil, nil)
			w := postQuery(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "invalid_request", resp.Error)
		})
	}
}

func TestQueryProviderUnavailable(t *testing.T) {
	answerer := &fakeAnswerer{err: chat.ErrGenerationUnavailable}
	h := newTestServer(t, answerer, nil, nil)

	w := postQuery(t, h, `{"query": "hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQueryInternalError(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("kaput")}
	h := newTestServer(t, answerer, nil, nil)

	w := postQuery(t, h, `{"query": "hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQueryEmptySourcesIsArray(t *testing.T) {
	answerer := &fakeAnswerer{answer: &chat.Answer{Text: "direct answer", SessionID: uuid.New()}}
	h := newTestServer(t, answerer, nil, nil)

	w := postQuery(t, h, `{"query": "hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sources":[]`)
}
