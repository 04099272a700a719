package trainer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	events "github.com/hanpama/querytrainer/internal/events"
	grader "github.com/hanpama/querytrainer/internal/grader"
	query "github.com/hanpama/querytrainer/internal/query"
)

func openTrainer(t *testing.T, opts Options) *Trainer {
	t.Helper()
	tr, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestQueryPublishesEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var finished []events.QueryFinish
	defer eventbus.Subscribe(func(_ context.Context, e events.QueryFinish) { finished = append(finished, e) })()

	tr := openTrainer(t, Options{})
	ctx := context.Background()
	res := tr.Query(ctx, `{ orders(userId: "USER01", limit: 3) { id } }`, "")
	require.True(t, res.OK())
	res = tr.Query(ctx, `{ orders(userId: "NOPE") { id } }`, "")
	require.False(t, res.OK())

	require.Len(t, finished, 2)
	require.Equal(t, "orders", finished[0].Root)
	require.Equal(t, 3, finished[0].Rows)
	require.Equal(t, string(query.KindUnknownUser), finished[1].ErrorCode)
}

func TestGradeIsSticky(t *testing.T) {
	tr := openTrainer(t, Options{})
	ctx := context.Background()

	res, err := tr.Grade(ctx, 2, `{ orders(userId: "USER01") { total } }`, "anna")
	require.NoError(t, err)
	require.True(t, res.Correct)
	require.True(t, res.NewlySolved)
	require.True(t, res.Solved)

	res, err = tr.Grade(ctx, 2, `{ orders(userId: "USER01") { id } }`, "anna")
	require.NoError(t, err)
	require.False(t, res.Correct)
	require.True(t, res.Solved)

	res, err = tr.Grade(ctx, 2, `orders`, "anna")
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.True(t, res.Solved)

	res, err = tr.Grade(ctx, 2, `{ orders(userId: "USER01") { id } }`, "ivan")
	require.NoError(t, err)
	require.False(t, res.Solved)

	prog, err := tr.Progress(ctx, "anna")
	require.NoError(t, err)
	require.Len(t, prog, 13)
	require.Equal(t, grader.StateUntried, prog[0].State)
	require.Equal(t, grader.StateCorrect, prog[1].State)
}

func TestGradeUnknownTask(t *testing.T) {
	tr := openTrainer(t, Options{})
	_, err := tr.Grade(context.Background(), 404, `{ users { id } }`, "")
	require.ErrorIs(t, err, grader.ErrUnknownTask)
}

func TestOpenWithFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.yaml"), []byte(`
- id: A1
  date: "2025-03-01"
  status: Pending
  total: 10
  items: [{name: pen, quantity: 1, price: 10}]
  delivery:
    delivered: false
    type: Courier
    address: {street: s, city: c, zip: z, country: Russia}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.yaml"), []byte("- id: U1\n  name: Test\n"), 0o644))
	tasks := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(tasks, []byte(`
tasks:
  - id: 1
    title: ids
    query: '{ orders(userId: "U1") { id } }'
    required: [id]
`), 0o644))

	tr := openTrainer(t, Options{
		DatasetDir:  dir,
		TasksFile:   tasks,
		ProgressDSN: filepath.Join(dir, "progress.db"),
	})
	require.Len(t, tr.Tasks(), 1)
	res := tr.Query(context.Background(), `{ orders(userId: "U1") { id } }`, "")
	require.Len(t, res.Rows("orders"), 1)
	require.Contains(t, tr.SchemaSDL(), "type Order")
}
