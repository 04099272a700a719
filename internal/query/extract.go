package query

import (
	schema "github.com/hanpama/querytrainer/internal/schema"
)

// Extract builds the tree of fields requested beneath root. It is tolerant:
// arguments, string literals and comments are skipped, field names the
// schema does not know are kept, and duplicate fields are merged. The second
// result is false when root is not selected in the outermost block at all.
func Extract(s *schema.Schema, text, root string) (*FieldRequestNode, bool) {
	toks := scan(text)
	node := newNode(root)
	i := findRoot(toks, root)
	if i < 0 {
		return node, false
	}
	i++
	if toks[i].is("(") {
		i = skipGroup(toks, i)
	}
	if toks[i].is("{") {
		node.object = true
		extractSelection(s, toks, i, schema.Path{root}, node)
	}
	return node, true
}

// extractSelection fills parent from the selection set opening at toks[i]
// and returns the index just past its closing brace.
func extractSelection(s *schema.Schema, toks []token, i int, path schema.Path, parent *FieldRequestNode) int {
	valid := s.FieldsAt(path)
	i++
	for {
		t := toks[i]
		switch {
		case t.kind == tokEOF:
			return i
		case t.is("}"):
			return i + 1
		case t.is("{") || t.is("(") || t.is("["):
			// stray block with no field name in front of it
			i = skipGroup(toks, i)
			continue
		case t.kind != tokName:
			i++
			continue
		}

		i++
		if toks[i].is(":") {
			// an argument key or alias written inside a selection: drop the
			// key together with its value
			i++
			if toks[i].is("{") || toks[i].is("[") || toks[i].is("(") {
				i = skipGroup(toks, i)
			} else if toks[i].kind != tokEOF && !toks[i].is("}") {
				i++
			}
			continue
		}
		if isLiteralName(t.text) && !valid.Has(t.text) {
			continue
		}

		child := newNode(t.text)
		if toks[i].is("(") {
			i = skipGroup(toks, i)
		}
		if toks[i].is("{") {
			child.object = true
			i = extractSelection(s, toks, i, path.Child(t.text), child)
		}
		parent.add(child)
	}
}

func isLiteralName(name string) bool {
	return name == "true" || name == "false" || name == "null"
}
