package schema

// builtinScalars are the scalars every schema starts with. They are not
// rendered.
var builtinScalars = map[string]*Type{
	"String":  {Name: "String", Kind: TypeKindScalar},
	"Int":     {Name: "Int", Kind: TypeKindScalar},
	"Float":   {Name: "Float", Kind: TypeKindScalar},
	"Boolean": {Name: "Boolean", Kind: TypeKindScalar},
	"ID":      {Name: "ID", Kind: TypeKindScalar},
}

func isBuiltin(t *Type) bool {
	b, ok := builtinScalars[t.Name]
	return ok && b == t
}
