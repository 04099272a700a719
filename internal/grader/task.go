package grader

import (
	"fmt"
	"sort"
	"strings"

	query "github.com/hanpama/querytrainer/internal/query"
)

// Task is one exercise of the catalogue.
type Task struct {
	ID        int               `yaml:"id" json:"id"`
	Title     string            `yaml:"title" json:"title"`
	Root      string            `yaml:"root" json:"root"`
	Query     string            `yaml:"query" json:"-"`
	Required  []string          `yaml:"required" json:"required,omitempty"`
	Forbidden []string          `yaml:"forbidden" json:"forbidden,omitempty"`
	Args      map[string]string `yaml:"args" json:"args,omitempty"`
	Rule      string            `yaml:"rule" json:"-"`
	Hint      string            `yaml:"hint" json:"hint,omitempty"`
	Expected  string            `yaml:"expected" json:"-"`
	Invalid   string            `yaml:"invalid" json:"-"`

	rule *Rule
}

// Accepts reports whether an accepted request solves the task. When it does
// not, the second result tells the learner the first thing that is off.
func (t *Task) Accepts(req *query.Request) (bool, string) {
	if req.Root != t.Root {
		return false, fmt.Sprintf("В этом задании нужен запрос %s", t.Root)
	}
	for _, p := range t.Required {
		if !req.Fields.Has(p) {
			return false, fmt.Sprintf("В запросе не хватает поля %s", p)
		}
	}
	for _, p := range t.Forbidden {
		if req.Fields.Has(p) {
			return false, fmt.Sprintf("Поле %s не нужно в этом задании", p)
		}
	}
	for _, name := range sortedKeys(t.Args) {
		want := normalizeLiteral(t.Args[name])
		got, ok := req.Args.Raw[name]
		if !ok {
			return false, fmt.Sprintf("Укажи аргумент %s: %s", name, want)
		}
		if normalizeLiteral(got) != want {
			return false, fmt.Sprintf("Аргумент %s должен быть равен %s", name, want)
		}
	}
	if t.rule != nil {
		ok, err := t.rule.Match(req.Fields.Paths(), req.Args.Raw, req.Root)
		if err != nil || !ok {
			if t.Hint != "" {
				return false, t.Hint
			}
			return false, "Запрос не соответствует условию задания"
		}
	}
	return true, ""
}

func normalizeLiteral(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
