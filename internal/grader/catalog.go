package grader

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	schema "github.com/hanpama/querytrainer/internal/schema"
)

//go:embed tasks.yaml
var builtinTasks []byte

// Catalog is an ordered, immutable list of tasks.
type Catalog struct {
	tasks []*Task
	byID  map[int]*Task
}

type catalogFile struct {
	Tasks []*Task `yaml:"tasks"`
}

// DefaultCatalog parses the built-in tasks.
func DefaultCatalog(s *schema.Schema) (*Catalog, error) {
	return ParseCatalog(s, bytes.NewReader(builtinTasks))
}

// LoadCatalog reads a task file from disk.
func LoadCatalog(s *schema.Schema, path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open task catalogue")
	}
	defer f.Close()
	return ParseCatalog(s, f)
}

// ParseCatalog decodes and validates a task catalogue and compiles its rules.
// Field paths and argument names are checked against s.
func ParseCatalog(s *schema.Schema, r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode task catalogue")
	}
	c := &Catalog{byID: make(map[int]*Task, len(file.Tasks))}
	for i, t := range file.Tasks {
		if t == nil {
			return nil, errors.Errorf("task #%d: empty entry", i+1)
		}
		if err := prepareTask(s, t); err != nil {
			return nil, errors.Wrapf(err, "task %d", t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, errors.Errorf("task %d: duplicate id", t.ID)
		}
		c.byID[t.ID] = t
		c.tasks = append(c.tasks, t)
	}
	if len(c.tasks) == 0 {
		return nil, errors.New("task catalogue is empty")
	}
	return c, nil
}

func prepareTask(s *schema.Schema, t *Task) error {
	switch {
	case t.ID <= 0:
		return errors.New("id must be positive")
	case strings.TrimSpace(t.Title) == "":
		return errors.New("title is required")
	case strings.TrimSpace(t.Query) == "":
		return errors.New("reference query is required")
	}
	if t.Root == "" {
		t.Root = schema.RootOrders
	}
	if s.GetQueryType().Field(t.Root) == nil {
		return errors.Errorf("unknown root %q", t.Root)
	}
	for _, p := range slices.Concat(t.Required, t.Forbidden) {
		path := append(schema.Path{t.Root}, strings.Split(p, ".")...)
		if s.FieldAt(path) == nil {
			return errors.Errorf("unknown field path %q", p)
		}
	}
	argNames := s.ArgumentNames(t.Root)
	for name := range t.Args {
		if !slices.Contains(argNames, name) {
			return errors.Errorf("%s does not take argument %q", t.Root, name)
		}
	}
	if t.Rule != "" {
		rule, err := CompileRule(t.Rule)
		if err != nil {
			return errors.Wrap(err, "rule")
		}
		t.rule = rule
	}
	return nil
}

// Tasks returns the tasks in catalogue order.
func (c *Catalog) Tasks() []*Task { return slices.Clone(c.tasks) }

// Task looks a task up by id.
func (c *Catalog) Task(id int) (*Task, bool) {
	t, ok := c.byID[id]
	return t, ok
}

func (c *Catalog) Len() int { return len(c.tasks) }
