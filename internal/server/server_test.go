package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/search"
	"github.com/pyview/hiergraph/pkg/session"
	"github.com/pyview/hiergraph/pkg/view"
)

const shop = `{
	"project_name": "shop",
	"packages": [{"id": "pkg:shop"}, {"id": "pkg:lib"}],
	"modules": [
		{"id": "mod:shop.orders", "imports": ["lib.util"], "classes": ["cls:mod:shop.orders:Order"]},
		{"id": "mod:lib.util"}
	],
	"classes": [{"id": "cls:mod:shop.orders:Order", "methods": ["meth:cls:mod:shop.orders:Order:total:3"]}],
	"methods": [{"id": "meth:cls:mod:shop.orders:Order:total:3"}],
	"cycles": [{"entities": ["mod:shop.orders", "mod:lib.util"], "severity": "high"}]
}`

const shopV2 = `{
	"project_name": "shop",
	"packages": [{"id": "pkg:shop"}],
	"modules": [{"id": "mod:shop.orders"}, {"id": "mod:shop.payments"}]
}`

func newServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Options.Level == 0 {
		cfg.Options.Level = pipeline.DefaultLevel
	}
	s := New(cfg)
	require.NoError(t, s.Load(context.Background(), []byte(shop)))
	return s
}

func do(t *testing.T, s *Server, method, target, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeGraph(t *testing.T, rec *httptest.ResponseRecorder) GraphResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp GraphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func hasNode(el graph.Elements, id string) bool {
	_, ok := el.Node(id)
	return ok
}

func TestHealthAndNotLoaded(t *testing.T) {
	s := New(Config{})

	rec := do(t, s, "GET", "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Loaded)

	rec = do(t, s, "GET", "/api/graph", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	require.NoError(t, s.Load(context.Background(), []byte(shop)))
	rec = do(t, s, "GET", "/api/health", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.Loaded)
	assert.Equal(t, "shop", health.Project)
	assert.Equal(t, 6, health.Entities)
}

func TestGraphCreatesSession(t *testing.T) {
	s := newServer(t, Config{})

	rec := do(t, s, "GET", "/api/graph", "", "")
	resp := decodeGraph(t, rec)

	id := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, resp.Session.ID)
	assert.Equal(t, 1, resp.Session.Level)
	assert.Equal(t, "Module", resp.Session.LevelName)
	assert.True(t, hasNode(resp.Elements, "mod:shop.orders"))
	assert.False(t, hasNode(resp.Elements, "cls:mod:shop.orders:Order"))

	cookie := rec.Result().Cookies()
	require.NotEmpty(t, cookie)
	assert.Equal(t, SessionCookie, cookie[0].Name)
	assert.Equal(t, id, cookie[0].Value)

	// Same session via cookie.
	req := httptest.NewRequest("GET", "/api/graph", nil)
	req.AddCookie(cookie[0])
	rec2 := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec2, req)
	assert.Equal(t, id, rec2.Header().Get(SessionHeader))
	assert.Equal(t, 1, s.cfg.Sessions.Len())
}

func TestGraphQueryOverridesView(t *testing.T) {
	s := newServer(t, Config{})

	resp := decodeGraph(t, do(t, s, "GET", "/api/graph?level=1&expand=mod:shop.orders", "", ""))
	assert.Equal(t, []string{"mod:shop.orders"}, resp.Session.Expanded)
	assert.True(t, hasNode(resp.Elements, "cls:mod:shop.orders:Order"))

	rec := do(t, s, "GET", "/api/graph?level=x", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_VIEW_LEVEL", errorCode(t, rec))
}

func TestToggleIsPerSession(t *testing.T) {
	s := newServer(t, Config{})

	rec := do(t, s, "POST", "/api/nodes/mod:shop.orders/toggle", "", "")
	resp := decodeGraph(t, rec)
	a := rec.Header().Get(SessionHeader)
	assert.Equal(t, true, resp.Expanded)
	assert.True(t, hasNode(resp.Elements, "cls:mod:shop.orders:Order"))

	resp = decodeGraph(t, do(t, s, "GET", "/api/graph", a, ""))
	assert.True(t, hasNode(resp.Elements, "cls:mod:shop.orders:Order"))

	other := decodeGraph(t, do(t, s, "GET", "/api/graph", "", ""))
	assert.NotEqual(t, a, other.Session.ID)
	assert.False(t, hasNode(other.Elements, "cls:mod:shop.orders:Order"))

	resp = decodeGraph(t, do(t, s, "POST", "/api/nodes/mod:shop.orders/toggle", a, ""))
	assert.Equal(t, false, resp.Expanded)

	rec = do(t, s, "POST", "/api/nodes/mod:nope/toggle", a, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NODE_NOT_FOUND", errorCode(t, rec))
}

func TestSetView(t *testing.T) {
	s := newServer(t, Config{})

	rec := do(t, s, "POST", "/api/expand-all", "", "")
	resp := decodeGraph(t, rec)
	id := rec.Header().Get(SessionHeader)
	assert.NotEmpty(t, resp.Session.Expanded)

	resp = decodeGraph(t, do(t, s, "POST", "/api/view", id, `{"level": 3}`))
	assert.Equal(t, 3, resp.Session.Level)
	assert.Empty(t, resp.Session.Expanded, "changing the level collapses everything")
	assert.True(t, hasNode(resp.Elements, "meth:cls:mod:shop.orders:Order:total:3"))

	rec = do(t, s, "POST", "/api/view", id, `{"level": 9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_VIEW_LEVEL", errorCode(t, rec))

	rec = do(t, s, "POST", "/api/view", id, `{"depth": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, "POST", "/api/view", id, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp = decodeGraph(t, do(t, s, "POST", "/api/collapse-all", id, ""))
	assert.Empty(t, resp.Session.Expanded)
}

func TestNodeInfoAndFocus(t *testing.T) {
	s := newServer(t, Config{})

	rec := do(t, s, "GET", "/api/nodes/cls:mod:shop.orders:Order", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info view.NodeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Order", info.Name)
	assert.Equal(t, 1, info.ChildCount)

	rec = do(t, s, "GET", "/api/nodes/mod:shop.orders/focus", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var focus view.FocusSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &focus))
	assert.Equal(t, "mod:shop.orders", focus.NodeID)
	assert.Contains(t, focus.Neighbors, "mod:lib.util")

	rec = do(t, s, "GET", "/api/nodes/mod:missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	s := newServer(t, Config{})

	rec := do(t, s, "GET", "/api/search?q=order&kind=Class", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "cls:mod:shop.orders:Order", res.Hits[0].ID)

	rec = do(t, s, "GET", "/api/search?q=*&cycles=true", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Glob)
	assert.Equal(t, 2, res.Total)

	for _, target := range []string{"/api/search", "/api/search?q=%5Bunclosed", "/api/search?q=a&kind=widget", "/api/search?q=a&limit=x"} {
		rec = do(t, s, "GET", target, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGraphArtifact(t *testing.T) {
	s := newServer(t, Config{})

	rec := do(t, s, "GET", "/api/graph.dot", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/vnd.graphviz", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "digraph")
	assert.Contains(t, rec.Body.String(), "mod:shop.orders")

	rec = do(t, s, "GET", "/api/graph.gif", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FORMAT", errorCode(t, rec))
}

func TestReloadKeepsSessions(t *testing.T) {
	s := newServer(t, Config{})

	rec := do(t, s, "POST", "/api/view", "", `{"level": 1}`)
	id := rec.Header().Get(SessionHeader)

	require.NoError(t, s.Load(context.Background(), []byte(shopV2)))

	resp := decodeGraph(t, do(t, s, "GET", "/api/graph", id, ""))
	assert.Equal(t, id, resp.Session.ID)
	assert.True(t, hasNode(resp.Elements, "mod:shop.payments"))
	assert.False(t, hasNode(resp.Elements, "mod:lib.util"))

	// A broken reload keeps the previous analysis.
	require.Error(t, s.Load(context.Background(), []byte("{")))
	resp = decodeGraph(t, do(t, s, "GET", "/api/graph", id, ""))
	assert.True(t, hasNode(resp.Elements, "mod:shop.payments"))
}

func TestSessionStatePersists(t *testing.T) {
	states, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	s := newServer(t, Config{States: states})
	rec := do(t, s, "POST", "/api/nodes/mod:shop.orders/toggle", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(SessionHeader)

	// A restarted server has an empty session store.
	restarted := newServer(t, Config{States: states})
	resp := decodeGraph(t, do(t, restarted, "GET", "/api/graph", id, ""))
	assert.Equal(t, id, resp.Session.ID)
	assert.Equal(t, []string{"mod:shop.orders"}, resp.Session.Expanded)
}

func TestMetricsRoute(t *testing.T) {
	s := newServer(t, Config{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hiergraph_up 1\n"))
	})})

	rec := do(t, s, "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hiergraph_up")

	rec = do(t, New(Config{}), "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newServer(t, Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()
	require.NoError(t, <-done)
}
