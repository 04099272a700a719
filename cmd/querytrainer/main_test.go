package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	config "github.com/hanpama/querytrainer/internal/config"
	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
)

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	defer eventbus.Use(nil)
	var out, errOut bytes.Buffer
	cmd := newRootCommand(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunQuery(t *testing.T) {
	out, _, err := execute(t, "", "run", `{ orders(userId: "USER01", offset: 9, limit: 1) { id date total } }`)
	require.NoError(t, err)
	want := `{
  "data": {
    "orders": [
      {
        "id": "O010",
        "date": "2025-01-19",
        "total": 190.2
      }
    ]
  }
}
`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunQueryFromStdin(t *testing.T) {
	out, _, err := execute(t, "mutation { x }\n", "run", "-")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	code := res["errors"].([]any)[0].(map[string]any)["extensions"].(map[string]any)["code"]
	require.Equal(t, "MUST_START_WITH_BRACE", code)
}

func TestRunForcedRoot(t *testing.T) {
	_, _, err := execute(t, "", "run", "--root", "products", "{ users { id } }")
	require.ErrorContains(t, err, "--root")

	out, _, err := execute(t, "", "run", "--root", "users", "{ users { id } }")
	require.NoError(t, err)
	require.Contains(t, out, `"USER05"`)
}

func TestGradeJSON(t *testing.T) {
	out, _, err := execute(t, "", "grade", "7", `{ orders(userId: "USER01", limit: 3) { id } }`)
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, "correct", res["state"])
	require.Equal(t, true, res["correct"])
}

func TestGradeText(t *testing.T) {
	out, _, err := execute(t, "", "--format", "text", "grade", "7", `{ orders(userId: "USER01") { id } }`)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "task 7: incorrect\n"), out)
}

func TestGradeErrors(t *testing.T) {
	_, _, err := execute(t, "", "grade", "seven", "{}")
	require.ErrorContains(t, err, "not a number")

	_, _, err = execute(t, "", "grade", "99", "{}")
	require.ErrorContains(t, err, "unknown task")
}

func TestGradeRecordsProgress(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "progress.db")
	_, _, err := execute(t, "", "--progress.dsn", dsn, "grade", "12", "--learner", "anna", `{ users { id name } }`)
	require.NoError(t, err)

	out, _, err := execute(t, "", "--progress.dsn", dsn, "--format", "text", "tasks", "--learner", "anna")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 13)
	require.Contains(t, lines[11], "correct")
	require.Contains(t, lines[0], "untried")
}

func TestTasksJSON(t *testing.T) {
	out, _, err := execute(t, "", "tasks")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 13)
	require.Equal(t, "untried", list[0]["state"])
}

func TestSchema(t *testing.T) {
	out, _, err := execute(t, "", "schema")
	require.NoError(t, err)
	require.Contains(t, out, "type Query")
	require.Contains(t, out, "orders(")
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "", "--format", "xml", "schema")
	require.ErrorContains(t, err, "want json or text")
}

func TestEnvConfig(t *testing.T) {
	t.Setenv("QUERYTRAINER_LOG_FORMAT", "text")
	out, _, err := execute(t, "", "grade", "7", `{ orders(userId: "USER01", limit: 3) { id } }`)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "task 7: correct\n"), out)
}

func TestServe(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	v := config.New()
	v.Set(config.KeyServerAddr, "127.0.0.1:0")
	cfg, err := config.Resolve(v)
	require.NoError(t, err)
	opts := &rootOptions{cfg: cfg, log: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- serve(ctx, opts, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Post("http://"+addr+"/api/graphql", "application/json",
		strings.NewReader(`{"query":"{ users { id } }"}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"USER01"`)

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), "querytrainer_queries_total")

	cancel()
	require.NoError(t, <-done)
}
