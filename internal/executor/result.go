package executor

import (
	"errors"

	query "github.com/hanpama/querytrainer/internal/query"
)

// GraphQLError is one entry of the response "errors" list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult is the response envelope: either Data or Errors is set,
// never both.
type ExecutionResult struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// OK reports whether the query was accepted.
func (r *ExecutionResult) OK() bool { return len(r.Errors) == 0 }

// Rows returns the projected records under root, or nil for an error result.
func (r *ExecutionResult) Rows(root string) []*Object {
	rows, _ := r.Data[root].([]*Object)
	return rows
}

// ErrorResult wraps a rejection. Query errors carry their kind as the
// "code" extension; anything else is reported with a generic message.
func ErrorResult(err error) *ExecutionResult {
	var qe *query.Error
	if errors.As(err, &qe) {
		return &ExecutionResult{Errors: []GraphQLError{{
			Message:    qe.Message,
			Extensions: map[string]any{"code": string(qe.Kind)},
		}}}
	}
	return &ExecutionResult{Errors: []GraphQLError{{Message: "Внутренняя ошибка сервера"}}}
}
