package grader

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// ruleCostLimit bounds the work a single rule evaluation may do.
const ruleCostLimit = 1000000

var ruleEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("fields", cel.ListType(cel.StringType)),
		cel.Variable("args", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("root", cel.StringType),
	)
	if err != nil {
		panic(fmt.Sprintf("grader: rule environment: %v", err))
	}
	return env
}()

// Rule is a compiled CEL condition over a request. The expression sees
// fields (sorted dotted paths), args (root arguments as written) and root.
type Rule struct {
	expr string
	prog cel.Program
}

// CompileRule type-checks expr and prepares it for evaluation.
func CompileRule(expr string) (*Rule, error) {
	ast, issues := ruleEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrap(issues.Err(), "compile error")
	}
	prog, err := ruleEnv.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(ruleCostLimit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "program creation error")
	}
	return &Rule{expr: expr, prog: prog}, nil
}

func (r *Rule) String() string { return r.expr }

// Match evaluates the rule. Results that are not a boolean count as false.
func (r *Rule) Match(fields []string, args map[string]string, root string) (bool, error) {
	if fields == nil {
		fields = []string{}
	}
	if args == nil {
		args = map[string]string{}
	}
	out, _, err := r.prog.Eval(map[string]any{
		"fields": fields,
		"args":   args,
		"root":   root,
	})
	if err != nil {
		return false, err
	}
	matched, _ := out.Value().(bool)
	return matched, nil
}
