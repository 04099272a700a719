package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	events "github.com/hanpama/querytrainer/internal/events"
	metrics "github.com/hanpama/querytrainer/internal/metrics"
	reqid "github.com/hanpama/querytrainer/internal/reqid"
	trainer "github.com/hanpama/querytrainer/internal/trainer"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	tr, err := trainer.Open(trainer.Options{})
	if err != nil {
		t.Fatalf("trainer: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return New(tr, opts...)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestGraphQLPost(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "POST", "/api/graphql", `{"query":"{ orders(userId: \"USER01\", limit: 2) { id } }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	want := map[string]any{"data": map[string]any{"orders": []any{
		map[string]any{"id": "O001"},
		map[string]any{"id": "O002"},
	}}}
	if diff := cmp.Diff(want, decode(t, w)); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphQLGet(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "GET", "/api/graphql?query="+url.QueryEscape("{ users { id } }"), "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	require.Len(t, data["users"], 5)
}

func TestGraphQLRejectedQueryIsOK(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "POST", "/api/graphql", `{"query":"{ orders(userId: \"UNKNOWN\") { id } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	require.NotContains(t, got, "data")
	errs := got["errors"].([]any)
	require.Len(t, errs, 1)
	e := errs[0].(map[string]any)
	require.Contains(t, e["message"], "UNKNOWN")
	require.Equal(t, "UNKNOWN_USER", e["extensions"].(map[string]any)["code"])
}

func TestForcedRoot(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "POST", "/api/graphql/orders", `{"query":"{ users { id } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	e := decode(t, w)["errors"].([]any)[0].(map[string]any)
	require.Equal(t, "UNSUPPORTED_ROOT", e["extensions"].(map[string]any)["code"])

	w = do(t, h, "GET", "/api/graphql/users?query="+url.QueryEscape("{ users { name } }"), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode(t, w)["data"].(map[string]any)["users"], 5)
}

func TestBadRequests(t *testing.T) {
	h := newTestServer(t, WithMaxBodyBytes(64))
	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"invalid json", "POST", "/api/graphql", `{"query":`, http.StatusBadRequest},
		{"missing query param", "GET", "/api/graphql", "", http.StatusBadRequest},
		{"too large", "POST", "/api/graphql", `{"query":"` + strings.Repeat("x", 100) + `"}`, http.StatusRequestEntityTooLarge},
		{"method", "PUT", "/api/graphql", "", http.StatusMethodNotAllowed},
		{"unknown route", "GET", "/api/nothing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.target, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotEmpty(t, decode(t, w)["errors"])
		})
	}
}

func TestUnsupportedContentType(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/graphql", bytes.NewBufferString("query=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestServer(t, WithCORS("*"))

	// simple request
	req := httptest.NewRequest("POST", "/api/graphql", bytes.NewBufferString(`{"query":"{ users { id } }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/api/graphql", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight missing CORS header")
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestCORSSpecificOrigin(t *testing.T) {
	h := newTestServer(t, WithCORS("http://trainer.local"))
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://other.local")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://trainer.local")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "http://trainer.local", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestSchemaRoute(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "GET", "/api/schema", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	require.Contains(t, w.Body.String(), "type Query")
	require.Contains(t, w.Body.String(), "type Order")
}

func TestTaskRoutes(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "GET", "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 13)
	require.Equal(t, float64(1), list[0]["id"])
	require.NotContains(t, list[0], "required")

	w = do(t, h, "GET", "/api/tasks/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	task := decode(t, w)
	require.Equal(t, "orders", task["root"])
	require.Equal(t, map[string]any{"delivered": "true"}, task["args"])

	require.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/tasks/99", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/tasks/abc", "").Code)
}

func TestGradeAndProgress(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "POST", "/api/tasks/7/grade", `{"query":"{ orders(userId: \"USER01\", limit: 3) { id } }","learner":"anna"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)
	require.Equal(t, true, got["accepted"])
	require.Equal(t, true, got["correct"])
	require.Equal(t, true, got["solved"])
	require.Equal(t, true, got["newlySolved"])
	require.Len(t, got["result"].(map[string]any)["data"].(map[string]any)["orders"], 3)

	// a wrong answer later does not revoke the solve
	w = do(t, h, "POST", "/api/tasks/7/grade", `{"query":"{ orders(userId: \"USER01\") { id } }","learner":"anna"}`)
	got = decode(t, w)
	require.Equal(t, true, got["accepted"])
	require.Equal(t, false, got["correct"])
	require.Equal(t, true, got["solved"])
	require.NotEmpty(t, got["feedback"])
	require.Contains(t, got, "expected")

	w = do(t, h, "POST", "/api/tasks/7/grade", `{"query":"orders"}`)
	got = decode(t, w)
	require.Equal(t, false, got["accepted"])
	require.Equal(t, "MUST_START_WITH_BRACE", got["code"])
	require.NotContains(t, got, "result")

	w = do(t, h, "GET", "/api/progress/anna", "")
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode(t, w)["tasks"].([]any)
	require.Len(t, tasks, 13)
	require.Equal(t, "correct", tasks[6].(map[string]any)["state"])
	require.Equal(t, "untried", tasks[0].(map[string]any)["state"])

	require.Equal(t, http.StatusNotFound, do(t, h, "POST", "/api/tasks/99/grade", `{"query":"{}"}`).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	m := metrics.New()
	defer m.Attach()()

	h := newTestServer(t, WithMetrics(m.Handler()))
	w := do(t, h, "GET", "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode(t, w)["status"])

	w = do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `querytrainer_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestRequestIDAndEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var finished []events.HTTPFinish
	var queryRIDs []string
	defer eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) { finished = append(finished, e) })()
	defer eventbus.Subscribe(func(ctx context.Context, e events.QueryFinish) {
		rid, _ := reqid.FromContext(ctx)
		queryRIDs = append(queryRIDs, rid)
	})()

	h := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/tasks/1/grade", bytes.NewBufferString(`{"query":"{ users { id } }"}`))
	req.Header.Set(reqid.Header, "fixed-id")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "fixed-id", w.Header().Get(reqid.Header))

	w = do(t, h, "POST", "/api/graphql", `{"query":"{ users { id } }"}`)
	generated := w.Header().Get(reqid.Header)
	require.NotEmpty(t, generated)

	require.Len(t, finished, 2)
	require.Equal(t, "fixed-id", finished[0].RequestID)
	require.Equal(t, "/api/tasks/{taskId}/grade", finished[0].Route)
	require.Equal(t, "/api/graphql", finished[1].Route)
	require.Equal(t, []string{generated}, queryRIDs)
}
