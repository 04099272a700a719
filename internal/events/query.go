package events

import "time"

// QueryStart is emitted before a learner query is checked and answered.
type QueryStart struct {
	Query string
	// Root is the forced root field, or empty when it is detected.
	Root string
}

// QueryFinish is emitted after a query was answered or rejected.
type QueryFinish struct {
	Query string
	Root  string
	Rows  int
	// ErrorCode is the rejection kind, empty for accepted queries.
	ErrorCode string
	Duration  time.Duration
}

// GradeFinish is emitted after a submission was graded.
type GradeFinish struct {
	TaskID  int
	Learner string
	// State is one of rejected, correct or incorrect.
	State       string
	ErrorCode   string
	NewlySolved bool
	Duration    time.Duration
}
