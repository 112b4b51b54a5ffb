package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairytale-chat/internal/persona"
)

func TestHealth_ReturnsOKWithCORS(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"status":"ok","live_sessions":0,"sse_clients":0}`, w.Body.String())
}

func TestHealth_CountsSessionsAndStreams(t *testing.T) {
	ts := newTestServer(t)
	snap := ts.createSession(t, "baker")
	ts.createSession(t, "chef")

	ch := ts.broadcaster.Subscribe(snap.ID)
	defer ts.broadcaster.Unsubscribe(snap.ID, ch)

	w := ts.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, decodeJSON(w, &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.LiveSessions)
	assert.Equal(t, 1, resp.SSEClients)
}

func TestHealth_WithoutSessions(t *testing.T) {
	r := NewRouter(RouterDeps{
		Registry: persona.Default(),
		Relay:    &fakeChatRelay{},
		Sender:   &fakeSender{},
	})

	w := serve(r, newRequest(http.MethodGet, "/health", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","live_sessions":0,"sse_clients":0}`, w.Body.String())
}
