// Package trainer wires the dataset, the executor, the grader and the
// progress store into the operations the transports expose.
package trainer

import (
	"context"
	"errors"
	"time"

	dataset "github.com/hanpama/querytrainer/internal/dataset"
	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	events "github.com/hanpama/querytrainer/internal/events"
	executor "github.com/hanpama/querytrainer/internal/executor"
	grader "github.com/hanpama/querytrainer/internal/grader"
	progress "github.com/hanpama/querytrainer/internal/progress"
	query "github.com/hanpama/querytrainer/internal/query"
	schema "github.com/hanpama/querytrainer/internal/schema"
)

// Options selects where the trainer loads its data from. Empty fields use
// the built-in dataset, the built-in tasks and in-memory progress.
type Options struct {
	DatasetDir  string
	TasksFile   string
	ProgressDSN string
}

type Trainer struct {
	schema   *schema.Schema
	exec     *executor.Executor
	grader   *grader.Grader
	progress progress.Store
}

// Open loads everything Options points at.
func Open(opts Options) (*Trainer, error) {
	s := schema.Trainer()

	var (
		data *dataset.Dataset
		err  error
	)
	if opts.DatasetDir != "" {
		data, err = dataset.Load(opts.DatasetDir)
	} else {
		data, err = dataset.Default()
	}
	if err != nil {
		return nil, err
	}

	var catalog *grader.Catalog
	if opts.TasksFile != "" {
		catalog, err = grader.LoadCatalog(s, opts.TasksFile)
	} else {
		catalog, err = grader.DefaultCatalog(s)
	}
	if err != nil {
		return nil, err
	}

	exec := executor.NewExecutor(s, data)
	g, err := grader.New(exec, catalog)
	if err != nil {
		return nil, err
	}

	store, err := progress.Open(opts.ProgressDSN)
	if err != nil {
		return nil, err
	}
	return New(exec, g, store), nil
}

func New(exec *executor.Executor, g *grader.Grader, store progress.Store) *Trainer {
	return &Trainer{schema: exec.Schema(), exec: exec, grader: g, progress: store}
}

func (t *Trainer) Close() error { return t.progress.Close() }

func (t *Trainer) Schema() *schema.Schema { return t.schema }

// SchemaSDL renders the schema learners query against.
func (t *Trainer) SchemaSDL() string { return schema.Render(t.schema) }

func (t *Trainer) Tasks() []*grader.Task { return t.grader.Catalog().Tasks() }

func (t *Trainer) Task(id int) (*grader.Task, bool) { return t.grader.Catalog().Task(id) }

// Query answers text. root forces the root field; empty detects it.
func (t *Trainer) Query(ctx context.Context, text, root string) *executor.ExecutionResult {
	start := time.Now()
	eventbus.Publish(ctx, events.QueryStart{Query: text, Root: root})

	var res *executor.ExecutionResult
	req, err := t.exec.Prepare(text, root)
	if err != nil {
		res = executor.ErrorResult(err)
	} else {
		res = t.exec.Execute(req)
		root = req.Root
	}

	eventbus.Publish(ctx, events.QueryFinish{
		Query:     text,
		Root:      root,
		Rows:      len(res.Rows(root)),
		ErrorCode: errorCode(err),
		Duration:  time.Since(start),
	})
	return res
}

// GradeResult is a graded submission plus the learner's sticky state.
type GradeResult struct {
	*grader.Submission
	// Solved is true once the learner has ever solved the task. It is only
	// meaningful when a learner was given.
	Solved      bool `json:"solved"`
	NewlySolved bool `json:"newlySolved,omitempty"`
}

// Grade grades text against a task. With a learner, a correct submission is
// recorded, and Solved reports the recorded state rather than this attempt.
func (t *Trainer) Grade(ctx context.Context, taskID int, text, learner string) (*GradeResult, error) {
	start := time.Now()
	sub, err := t.grader.GradeSubmission(text, taskID)
	if err != nil {
		return nil, err
	}
	res := &GradeResult{Submission: sub, Solved: sub.Correct}
	if learner != "" {
		if sub.Correct {
			res.NewlySolved, err = t.progress.MarkSolved(ctx, learner, taskID)
			if err != nil {
				return nil, err
			}
		}
		res.Solved, err = t.progress.IsSolved(ctx, learner, taskID)
		if err != nil {
			return nil, err
		}
	}
	eventbus.Publish(ctx, events.GradeFinish{
		TaskID:      taskID,
		Learner:     learner,
		State:       string(sub.State),
		ErrorCode:   sub.Code,
		NewlySolved: res.NewlySolved,
		Duration:    time.Since(start),
	})
	return res, nil
}

// TaskProgress is one task's state for a learner.
type TaskProgress struct {
	TaskID int          `json:"taskId"`
	Title  string       `json:"title"`
	State  grader.State `json:"state"`
}

// Progress lists every task with its sticky state for learner.
func (t *Trainer) Progress(ctx context.Context, learner string) ([]TaskProgress, error) {
	solved, err := t.progress.Solved(ctx, learner)
	if err != nil {
		return nil, err
	}
	done := make(map[int]bool, len(solved))
	for _, id := range solved {
		done[id] = true
	}
	tasks := t.Tasks()
	out := make([]TaskProgress, len(tasks))
	for i, task := range tasks {
		state := grader.StateUntried
		if done[task.ID] {
			state = grader.StateCorrect
		}
		out[i] = TaskProgress{TaskID: task.ID, Title: task.Title, State: state}
	}
	return out, nil
}

func errorCode(err error) string {
	var qe *query.Error
	if errors.As(err, &qe) {
		return string(qe.Kind)
	}
	return ""
}
