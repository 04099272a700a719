// Package language wraps the GraphQL SDL parser.
package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseSchema parses SDL. The document is not validated; references are
// checked by the schema builder.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	return parser.ParseSchema(&ast.Source{Name: name, Input: source})
}
