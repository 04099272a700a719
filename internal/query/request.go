// Package query turns learner-written query text into a checked Request:
// the acceptance checks, root argument parsing and the tree of requested
// fields. Nothing here touches the dataset beyond asking whether a user
// exists.
package query

import (
	schema "github.com/hanpama/querytrainer/internal/schema"
)

// Request is an accepted query.
type Request struct {
	Text   string
	Root   string
	Args   Args
	Fields *FieldRequestNode
}

// Prepare runs the acceptance pipeline over text for the given root field.
// An empty root is detected from the text. Rejections are *Error values.
func Prepare(s *schema.Schema, users UserDirectory, text, root string) (*Request, error) {
	if err := Check(text); err != nil {
		return nil, err
	}
	if root == "" {
		root = DetectRoot(text)
	}
	if s.GetQueryType().Field(root) == nil {
		return nil, ErrUnsupportedRoot
	}
	args, err := ValidateArgs(text, root, users)
	if err != nil {
		return nil, err
	}
	fields, ok := Extract(s, text, root)
	if !ok {
		return nil, ErrUnsupportedRoot
	}
	return &Request{Text: text, Root: root, Args: args, Fields: fields}, nil
}
