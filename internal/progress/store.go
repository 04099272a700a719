// Package progress remembers which tasks each learner has solved.
//
// Solving is sticky: once a task is marked solved for a learner it stays
// solved, whatever that learner submits afterwards.
package progress

import (
	"context"
	"errors"
	"strings"
)

// ErrNoLearner is returned when a learner id is empty.
var ErrNoLearner = errors.New("learner id is required")

// Store keeps solved tasks per learner. Implementations are safe for
// concurrent use.
type Store interface {
	// MarkSolved records that learner solved taskID. It reports whether
	// the task was newly solved by this call.
	MarkSolved(ctx context.Context, learner string, taskID int) (bool, error)
	// IsSolved reports whether learner has solved taskID.
	IsSolved(ctx context.Context, learner string, taskID int) (bool, error)
	// Solved lists the ids of the tasks learner has solved, ascending.
	Solved(ctx context.Context, learner string) ([]int, error)
	Close() error
}

// Open returns the store for dsn: an in-memory store for "" or "memory",
// otherwise a SQLite database at the given path or URI.
func Open(dsn string) (Store, error) {
	switch strings.TrimSpace(dsn) {
	case "", "memory":
		return NewMemoryStore(), nil
	}
	return OpenSQLite(dsn)
}

func checkLearner(learner string) error {
	if strings.TrimSpace(learner) == "" {
		return ErrNoLearner
	}
	return nil
}
