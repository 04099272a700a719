package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL for s: the query root first, then the other types
// sorted by name. Built-in scalars are left out.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	names := make([]string, 0, len(s.Types))
	for name, t := range s.Types {
		if !isBuiltin(t) && name != s.QueryType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if q := s.GetQueryType(); q != nil {
		names = append([]string{q.Name}, names...)
	}

	var b strings.Builder
	for _, name := range names {
		t := s.Types[name]
		description(&b, "", t.Description)
		switch t.Kind {
		case TypeKindScalar:
			fmt.Fprintf(&b, "scalar %s\n\n", t.Name)
		case TypeKindEnum:
			fmt.Fprintf(&b, "enum %s {\n", t.Name)
			for _, v := range t.EnumValues {
				description(&b, "  ", v.Description)
				b.WriteString("  " + v.Name)
				deprecated(&b, v.IsDeprecated, v.DeprecationReason)
				b.WriteString("\n")
			}
			b.WriteString("}\n\n")
		case TypeKindObject:
			fmt.Fprintf(&b, "type %s {\n", t.Name)
			for _, f := range t.Fields {
				field(&b, f)
			}
			b.WriteString("}\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// description writes a block string. Single-line descriptions use the
// short "..." form.
func description(b *strings.Builder, indent, desc string) {
	if desc == "" {
		return
	}
	if !strings.Contains(desc, "\n") {
		b.WriteString(indent + strconv.Quote(desc) + "\n")
		return
	}
	b.WriteString(indent + `"""` + "\n")
	for _, line := range strings.Split(strings.ReplaceAll(desc, `"""`, `\"""`), "\n") {
		b.WriteString(indent + line + "\n")
	}
	b.WriteString(indent + `"""` + "\n")
}

func field(b *strings.Builder, f *Field) {
	description(b, "  ", f.Description)
	b.WriteString("  " + f.Name)
	if len(f.Arguments) > 0 {
		args := make([]string, len(f.Arguments))
		for i, a := range f.Arguments {
			args[i] = a.Name + ": " + a.Type.String()
			if a.DefaultValue != nil {
				args[i] += " = " + value(a.DefaultValue)
			}
		}
		b.WriteString("(" + strings.Join(args, ", ") + ")")
	}
	b.WriteString(": " + f.Type.String())
	deprecated(b, f.IsDeprecated, f.DeprecationReason)
	b.WriteString("\n")
}

func deprecated(b *strings.Builder, is bool, reason string) {
	if !is {
		return
	}
	b.WriteString(" @deprecated")
	if reason != "" {
		b.WriteString("(reason: " + strconv.Quote(reason) + ")")
	}
}

func value(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}
