package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairytale-chat/internal/persona"
)

func TestRouter_CORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/chat", "/send-order", "/api/sessions"} {
		w := ts.do(http.MethodOptions, path, "")

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Body.String(), path)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestRouter_CORSOnEveryResponse(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Chat(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/chat", `{"messages":[{"role":"user","content":"hi"}],"systemPrompt":"sys"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"content":[{"text":"ok"}]}`, w.Body.String())
}

func TestRouter_SendOrder(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/send-order", `{"to":"a@example.com","order":`+sampleOrderJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", ts.sender.to)
}

func TestRouter_ListPersonas(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/personas", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []PersonaResponse
	require.NoError(t, decodeJSON(w, &resp))
	require.Len(t, resp, len(ts.registry.List()))

	defaults := 0
	for _, p := range resp {
		assert.NotEmpty(t, p.Welcome)
		if p.Default {
			defaults++
			assert.Equal(t, ts.registry.DefaultID(), p.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestRouter_WithoutSessions(t *testing.T) {
	r := NewRouter(RouterDeps{
		Registry: persona.Default(),
		Relay:    &fakeChatRelay{reply: "ok"},
		Sender:   &fakeSender{},
	})
	require.NotNil(t, r.Broadcaster())

	req := newRequest(http.MethodPost, "/api/sessions", "")
	w := serve(r, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_StaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	r := NewRouter(RouterDeps{
		Registry:  persona.Default(),
		Relay:     &fakeChatRelay{},
		Sender:    &fakeSender{},
		StaticDir: dir,
	})

	w := serve(r, newRequest(http.MethodGet, "/app.js", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = serve(r, newRequest(http.MethodGet, "/orders/42", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")
}

func TestRouter_RelayMethodsWithStaticDir(t *testing.T) {
	r := NewRouter(RouterDeps{
		Registry:  persona.Default(),
		Relay:     &fakeChatRelay{},
		Sender:    &fakeSender{},
		StaticDir: t.TempDir(),
	})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := serve(r, newRequest(method, "/send-order", ""))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
	}
}
