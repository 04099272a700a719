package schema

import (
	"fmt"
	"strconv"

	language "github.com/hanpama/querytrainer/internal/language"
)

// BuildFromSDL parses SDL into a Schema. Object, scalar and enum definitions
// are accepted. The query root is Query unless a schema definition names
// another type; a schema that declares a mutation root is refused, as are
// input objects and arguments of object type.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	s := &Schema{QueryType: "Query", Types: make(map[string]*Type, len(builtinScalars)+len(doc.Definitions))}
	for _, def := range doc.Schema {
		s.Description = def.Description
		for _, op := range def.OperationTypes {
			if op.Operation != language.Query {
				return nil, fmt.Errorf("%s: %s root %s: schema is read-only", name, op.Operation, op.Type)
			}
			s.QueryType = op.Type
		}
	}
	for n, t := range builtinScalars {
		s.Types[n] = t
	}

	for _, def := range doc.Definitions {
		if _, exists := s.Types[def.Name]; exists {
			return nil, fmt.Errorf("%s: type %s defined more than once", name, def.Name)
		}
		t, err := buildDefinition(def)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		s.Types[t.Name] = t
	}
	if _, ok := s.Types["Mutation"]; ok {
		return nil, fmt.Errorf("%s: type Mutation: schema is read-only", name)
	}

	if err := checkReferences(s); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

func buildDefinition(def *language.Definition) (*Type, error) {
	t := &Type{Name: def.Name, Description: def.Description}
	switch def.Kind {
	case language.Object:
		t.Kind = TypeKindObject
		for _, fd := range def.Fields {
			t.Fields = append(t.Fields, buildField(fd))
		}
	case language.Scalar:
		t.Kind = TypeKindScalar
	case language.Enum:
		t.Kind = TypeKindEnum
		for _, v := range def.EnumValues {
			ev := &EnumValue{Name: v.Name, Description: v.Description}
			ev.DeprecationReason, ev.IsDeprecated = deprecation(v.Directives.ForName("deprecated"))
			t.EnumValues = append(t.EnumValues, ev)
		}
	default:
		return nil, fmt.Errorf("%s: %s definitions are not supported", def.Name, def.Kind)
	}
	return t, nil
}

func buildField(def *language.FieldDefinition) *Field {
	f := &Field{Name: def.Name, Description: def.Description, Type: buildTypeRef(def.Type)}
	f.DeprecationReason, f.IsDeprecated = deprecation(def.Directives.ForName("deprecated"))
	for _, a := range def.Arguments {
		f.Arguments = append(f.Arguments, &InputValue{
			Name:         a.Name,
			Description:  a.Description,
			Type:         buildTypeRef(a.Type),
			DefaultValue: literal(a.DefaultValue),
		})
	}
	return f
}

func buildTypeRef(t *language.Type) *TypeRef {
	ref := NamedType(t.NamedType)
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

// literal converts a default value. Enum values and anything unparsable stay
// as their raw text.
func literal(v *language.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.IntValue:
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return n
		}
	case language.FloatValue:
		if f, err := strconv.ParseFloat(v.Raw, 64); err == nil {
			return f
		}
	case language.BooleanValue:
		return v.Raw == "true"
	case language.NullValue:
		return nil
	}
	return v.Raw
}

func deprecation(d *language.Directive) (string, bool) {
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "No longer supported", true
}

// checkReferences resolves every field and argument type. Arguments must be
// scalars or enums.
func checkReferences(s *Schema) error {
	if q := s.GetQueryType(); q == nil || q.Kind != TypeKindObject {
		return fmt.Errorf("query type %s is not defined", s.QueryType)
	}
	for _, t := range s.Types {
		for _, f := range t.Fields {
			if s.TypeOf(f.Type) == nil {
				return fmt.Errorf("%s.%s: unknown type %s", t.Name, f.Name, f.Type.GetNamedType())
			}
			for _, a := range f.Arguments {
				at := s.TypeOf(a.Type)
				switch {
				case at == nil:
					return fmt.Errorf("%s.%s(%s): unknown type %s", t.Name, f.Name, a.Name, a.Type.GetNamedType())
				case at.Kind == TypeKindObject:
					return fmt.Errorf("%s.%s(%s): argument of object type %s", t.Name, f.Name, a.Name, at.Name)
				}
			}
		}
	}
	return nil
}
