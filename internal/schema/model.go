package schema

import (
	"sort"
	"strings"
)

// Root fields of the trainer schema.
const (
	RootOrders = "orders"
	RootUsers  = "users"
)

// Path addresses one nesting level of a query, root field first,
// e.g. Path{"orders", "delivery", "address"}.
type Path []string

func (p Path) String() string { return strings.Join(p, ".") }

// Child returns a new path extended by name; p is left untouched.
func (p Path) Child(name string) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = name
	return c
}

// FieldSet is the set of field names selectable at one nesting level.
type FieldSet map[string]struct{}

func (fs FieldSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Names returns the members in lexical order.
func (fs FieldSet) Names() []string {
	out := make([]string, 0, len(fs))
	for name := range fs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TypeAt returns the object type whose fields are selectable at path, or nil
// when nothing further can be requested there. The empty path is the query root.
func (s *Schema) TypeAt(path Path) *Type {
	t := s.GetQueryType()
	for _, name := range path {
		f := t.Field(name)
		if f == nil {
			return nil
		}
		t = s.TypeOf(f.Type)
		if t == nil || t.Kind != TypeKindObject {
			return nil
		}
	}
	return t
}

// FieldsAt returns the field names valid at path. Unknown paths and leaf
// paths yield an empty set.
func (s *Schema) FieldsAt(path Path) FieldSet {
	out := FieldSet{}
	t := s.TypeAt(path)
	if t == nil {
		return out
	}
	for _, f := range t.Fields {
		out[f.Name] = struct{}{}
	}
	return out
}

// FieldAt returns the definition of the last element of path, or nil.
func (s *Schema) FieldAt(path Path) *Field {
	if len(path) == 0 {
		return nil
	}
	return s.TypeAt(path[:len(path)-1]).Field(path[len(path)-1])
}

// IsObject reports whether the field at path has sub-fields of its own.
func (s *Schema) IsObject(path Path) bool {
	return len(path) > 0 && s.TypeAt(path) != nil
}

// ArgumentNames lists the arguments accepted by a root field, in SDL order.
func (s *Schema) ArgumentNames(root string) []string {
	f := s.GetQueryType().Field(root)
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.Arguments))
	for _, a := range f.Arguments {
		out = append(out, a.Name)
	}
	return out
}
