// Package grader decides whether a learner's query solves a task and builds
// what the learner sees afterwards.
//
// A submission first has to be accepted (the same checks every query goes
// through). An accepted submission is then correct or incorrect depending on
// the task's required and forbidden fields, required argument values and
// optional CEL rule. Solved state across submissions is kept elsewhere; the
// grader itself is stateless.
package grader

import (
	"github.com/pkg/errors"

	executor "github.com/hanpama/querytrainer/internal/executor"
	query "github.com/hanpama/querytrainer/internal/query"
)

// ErrUnknownTask is returned for a task id the catalogue does not have.
var ErrUnknownTask = errors.New("unknown task")

// State is where one submission ended up.
type State string

const (
	StateUntried   State = "untried"
	StateRejected  State = "rejected"
	StateCorrect   State = "correct"
	StateIncorrect State = "incorrect"
)

const feedbackSolved = "Задание выполнено!"

// Outcome is the verdict on one submission.
type Outcome struct {
	State    State
	Request  *query.Request
	Err      error
	Feedback string
}

func (o Outcome) Accepted() bool { return o.State == StateCorrect || o.State == StateIncorrect }
func (o Outcome) Correct() bool  { return o.State == StateCorrect }

// Submission is what a learner gets back for a graded query.
type Submission struct {
	TaskID   int                       `json:"taskId"`
	State    State                     `json:"state"`
	Accepted bool                      `json:"accepted"`
	Correct  bool                      `json:"correct"`
	Result   *executor.ExecutionResult `json:"result,omitempty"`
	Expected *executor.ExecutionResult `json:"expected,omitempty"`
	Feedback string                    `json:"feedback,omitempty"`
	Code     string                    `json:"code,omitempty"`
}

type Grader struct {
	exec    *executor.Executor
	catalog *Catalog
}

// New checks that every task's reference, expected and invalid queries are
// accepted and that every reference query solves its own task.
func New(exec *executor.Executor, catalog *Catalog) (*Grader, error) {
	g := &Grader{exec: exec, catalog: catalog}
	for _, t := range catalog.tasks {
		out := g.Grade(t.Query, t)
		if !out.Correct() {
			reason := out.Feedback
			if out.Err != nil {
				reason = out.Err.Error()
			}
			return nil, errors.Errorf("task %d: reference query does not solve the task: %s", t.ID, reason)
		}
		for _, q := range []string{t.Expected, t.Invalid} {
			if q == "" {
				continue
			}
			if _, err := exec.Prepare(q, t.Root); err != nil {
				return nil, errors.Wrapf(err, "task %d: display query rejected", t.ID)
			}
		}
	}
	return g, nil
}

func (g *Grader) Catalog() *Catalog { return g.catalog }

// Grade classifies text against t.
func (g *Grader) Grade(text string, t *Task) Outcome {
	req, err := g.exec.Prepare(text, t.Root)
	if err != nil {
		return Outcome{State: StateRejected, Err: err, Feedback: err.Error()}
	}
	if ok, reason := t.Accepts(req); !ok {
		return Outcome{State: StateIncorrect, Request: req, Feedback: reason}
	}
	return Outcome{State: StateCorrect, Request: req, Feedback: feedbackSolved}
}

// GradeSubmission grades text against the task with the given id and
// attaches the result to display: the learner's own result when correct,
// the task's wrong-but-plausible result and the expected one when not.
func (g *Grader) GradeSubmission(text string, taskID int) (*Submission, error) {
	t, ok := g.catalog.Task(taskID)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTask, "task %d", taskID)
	}
	out := g.Grade(text, t)
	sub := &Submission{
		TaskID:   taskID,
		State:    out.State,
		Accepted: out.Accepted(),
		Correct:  out.Correct(),
		Feedback: out.Feedback,
	}
	switch out.State {
	case StateRejected:
		var qe *query.Error
		if errors.As(out.Err, &qe) {
			sub.Code = string(qe.Kind)
		}
	case StateCorrect:
		sub.Result = g.exec.Execute(out.Request)
	case StateIncorrect:
		sub.Result = g.InvalidResult(t)
		sub.Expected = g.ExpectedResult(t)
	}
	return sub, nil
}

// ExpectedResult is what a correct answer to t displays.
func (g *Grader) ExpectedResult(t *Task) *executor.ExecutionResult {
	q := t.Expected
	if q == "" {
		q = t.Query
	}
	return g.run(q, t.Root)
}

// InvalidResult is shown for an accepted but incorrect answer. Unless the
// task names its own query, it is the reference query with every filter
// and pagination argument dropped.
func (g *Grader) InvalidResult(t *Task) *executor.ExecutionResult {
	if t.Invalid != "" {
		return g.run(t.Invalid, t.Root)
	}
	req, err := g.exec.Prepare(t.Query, t.Root)
	if err != nil {
		return executor.ErrorResult(err)
	}
	unfiltered := *req
	unfiltered.Args = query.Args{UserID: req.Args.UserID, Raw: map[string]string{}}
	if req.Args.UserID != nil {
		unfiltered.Args.Raw[query.ArgUserID] = *req.Args.UserID
	}
	return g.exec.Execute(&unfiltered)
}

func (g *Grader) run(text, root string) *executor.ExecutionResult {
	req, err := g.exec.Prepare(text, root)
	if err != nil {
		return executor.ErrorResult(err)
	}
	return g.exec.Execute(req)
}
