package schema

// Schema is a read-only GraphQL schema: one query root, object types,
// scalars and enums. Arguments are scalar or enum valued.
type Schema struct {
	QueryType   string
	Types       map[string]*Type
	Description string
}

// GetQueryType returns the query root, or nil when it is not defined.
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// TypeOf resolves the named type behind ref.
func (s *Schema) TypeOf(ref *TypeRef) *Type {
	if ref == nil {
		return nil
	}
	return s.Types[ref.GetNamedType()]
}

type TypeKind string

const (
	TypeKindScalar TypeKind = "SCALAR"
	TypeKindObject TypeKind = "OBJECT"
	TypeKindEnum   TypeKind = "ENUM"
)

type Type struct {
	Name        string
	Kind        TypeKind
	Description string
	Fields      []*Field
	EnumValues  []*EnumValue
}

// Field returns the field named name, or nil.
func (t *Type) Field(name string) *Field {
	if t == nil {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
}

// Argument returns the argument named name, or nil.
func (f *Field) Argument(name string) *InputValue {
	if f == nil {
		return nil
	}
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// InputValue is a field argument.
type InputValue struct {
	Name         string
	Description  string
	Type         *TypeRef
	DefaultValue any
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

// TypeRef is a possibly wrapped reference to a named type. Exactly one of
// Named and OfType is set.
type TypeRef struct {
	Named   string
	OfType  *TypeRef
	List    bool
	NonNull bool
}

func NamedType(name string) *TypeRef  { return &TypeRef{Named: name} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{OfType: t, List: true} }
func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{OfType: t, NonNull: true} }

// GetNamedType returns the innermost type name.
func (t *TypeRef) GetNamedType() string {
	for t != nil {
		if t.Named != "" {
			return t.Named
		}
		t = t.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. [Order!]!.
func (t *TypeRef) String() string {
	switch {
	case t == nil:
		return ""
	case t.NonNull:
		return t.OfType.String() + "!"
	case t.List:
		return "[" + t.OfType.String() + "]"
	}
	return t.Named
}

// IsList reports whether ref is a list, possibly wrapped in non-null.
func IsList(ref *TypeRef) bool {
	if ref != nil && ref.NonNull {
		ref = ref.OfType
	}
	return ref != nil && ref.List
}

// GetNamedType returns the innermost type name of ref.
func GetNamedType(ref *TypeRef) string { return ref.GetNamedType() }
