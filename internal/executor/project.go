package executor

import (
	dataset "github.com/hanpama/querytrainer/internal/dataset"
	query "github.com/hanpama/querytrainer/internal/query"
	schema "github.com/hanpama/querytrainer/internal/schema"
)

// Project copies out of rec exactly the fields requested by node. path is
// the schema path of rec itself (e.g. {"orders"}). Requested names the
// schema does not define at path are left out.
func Project(s *schema.Schema, path schema.Path, rec dataset.Record, node *query.FieldRequestNode) *Object {
	valid := s.FieldsAt(path)
	out := newObject(node.Len())
	for _, child := range node.Children() {
		name := child.Name()
		if !valid.Has(name) {
			continue
		}
		v, ok := rec.Field(name)
		if !ok {
			continue
		}
		out.set(name, projectValue(s, path.Child(name), v, child))
	}
	return out
}

func projectValue(s *schema.Schema, path schema.Path, v any, node *query.FieldRequestNode) any {
	switch v := v.(type) {
	case []dataset.Record:
		items := make([]*Object, len(v))
		for i, r := range v {
			items[i] = Project(s, path, r, node)
		}
		return items
	case dataset.Record:
		return Project(s, path, v, node)
	}
	return v
}

// ProjectAll projects every record under the root path.
func ProjectAll[R dataset.Record](s *schema.Schema, root string, recs []R, node *query.FieldRequestNode) []*Object {
	out := make([]*Object, len(recs))
	path := schema.Path{root}
	for i, r := range recs {
		out[i] = Project(s, path, r, node)
	}
	return out
}
