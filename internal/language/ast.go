package language

import "github.com/vektah/gqlparser/v2/ast"

// Schema documents are consumed through these aliases so callers do not
// import the parser's ast package directly.
type (
	SchemaDocument     = ast.SchemaDocument
	Definition         = ast.Definition
	FieldDefinition    = ast.FieldDefinition
	ArgumentDefinition = ast.ArgumentDefinition
	Directive          = ast.Directive
	Type               = ast.Type
	Value              = ast.Value
	Operation          = ast.Operation
)

const (
	Query = ast.Query

	Object = ast.Object
	Scalar = ast.Scalar
	Enum   = ast.Enum

	IntValue     = ast.IntValue
	FloatValue   = ast.FloatValue
	BooleanValue = ast.BooleanValue
	NullValue    = ast.NullValue
)
