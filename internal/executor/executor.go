package executor

import (
	"fmt"

	dataset "github.com/hanpama/querytrainer/internal/dataset"
	query "github.com/hanpama/querytrainer/internal/query"
	schema "github.com/hanpama/querytrainer/internal/schema"
)

// Executor answers queries against one dataset. It holds no mutable state
// and is safe for concurrent use.
type Executor struct {
	schema *schema.Schema
	data   *dataset.Dataset
}

func NewExecutor(s *schema.Schema, data *dataset.Dataset) *Executor {
	return &Executor{schema: s, data: data}
}

func (e *Executor) Schema() *schema.Schema    { return e.schema }
func (e *Executor) Dataset() *dataset.Dataset { return e.data }

// RunOrdersQuery answers text as an orders query.
func (e *Executor) RunOrdersQuery(text string) *ExecutionResult {
	return e.run(text, schema.RootOrders)
}

// RunUsersQuery answers text as a users query.
func (e *Executor) RunUsersQuery(text string) *ExecutionResult {
	return e.run(text, schema.RootUsers)
}

// Run answers text against the root it addresses.
func (e *Executor) Run(text string) *ExecutionResult {
	return e.run(text, "")
}

func (e *Executor) run(text, root string) *ExecutionResult {
	req, err := e.Prepare(text, root)
	if err != nil {
		return ErrorResult(err)
	}
	return e.Execute(req)
}

// Prepare checks text and extracts what it asks for, without touching the
// records.
func (e *Executor) Prepare(text, root string) (*query.Request, error) {
	return query.Prepare(e.schema, e.data, text, root)
}

// Execute selects and projects the records for an accepted request.
func (e *Executor) Execute(req *query.Request) *ExecutionResult {
	var rows []*Object
	switch req.Root {
	case schema.RootOrders:
		rows = ProjectAll(e.schema, req.Root, SelectOrders(e.data.Orders(), req.Args), req.Fields)
	case schema.RootUsers:
		rows = ProjectAll(e.schema, req.Root, SelectUsers(e.data.Users()), req.Fields)
	default:
		return ErrorResult(fmt.Errorf("unsupported root %q", req.Root))
	}
	return &ExecutionResult{Data: map[string]any{req.Root: rows}}
}
