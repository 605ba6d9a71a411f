// Package condition evaluates the `step_condition` and `job_condition`
// expression strings (spec §3, §4.2) using CEL (Common Expression
// Language). Every condition shares one environment exposing a `files`
// list variable and an `exec(cmd)` function that runs a shell command
// and returns its exit status as a bool (exit 0 ⇒ true).
package condition

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Env wraps a compiled CEL environment shared by every condition
// evaluated within a single hook run.
type Env struct {
	cel *cel.Env
}

// New builds the shared expression environment: a `files` list(string)
// variable and an `exec(string) bool` function, plus any extra
// user-declared variables (free-form string values from hk.yaml's
// top-level `vars`, exposed to conditions as well as templates per §6.5).
func New(extraVars map[string]string) (*Env, error) {
	opts := []cel.EnvOption{
		cel.Variable("files", cel.ListType(cel.StringType)),
		cel.Function("exec",
			cel.Overload("exec_string",
				[]*cel.Type{cel.StringType},
				cel.BoolType,
				cel.UnaryBinding(execFunc),
			),
		),
	}
	for name := range extraVars {
		if name == "files" {
			continue
		}
		opts = append(opts, cel.Variable(name, cel.StringType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("building condition environment: %w", err)
	}
	return &Env{cel: env}, nil
}

func execFunc(arg ref.Val) ref.Val {
	cmd, ok := arg.Value().(string)
	if !ok {
		return types.NewErr("exec: expected string argument")
	}
	c := exec.Command("sh", "-c", cmd)
	err := c.Run()
	return types.Bool(err == nil)
}

// Eval compiles and evaluates expr against the given files and extra
// variables, returning its boolean result. A condition that does not
// evaluate to a bool, or that fails to compile, is an error (surfaced by
// the caller as a step/job failure, not silently treated as false).
func (e *Env) Eval(ctx context.Context, expr string, files []string, vars map[string]string) (bool, error) {
	ast, issues := e.cel.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compiling condition %q: %w", expr, issues.Err())
	}
	prg, err := e.cel.Program(ast)
	if err != nil {
		return false, fmt.Errorf("building condition program %q: %w", expr, err)
	}

	activation := map[string]interface{}{"files": files}
	for k, v := range vars {
		activation[k] = v
	}

	out, _, err := prg.Eval(activation)
	if err != nil {
		return false, fmt.Errorf("evaluating condition %q: %w", expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a bool (got %v)", expr, out.Value())
	}
	return b, nil
}

// EvalOptional returns true (the "no condition" default) when expr is
// empty, otherwise delegates to Eval.
func (e *Env) EvalOptional(ctx context.Context, expr string, files []string, vars map[string]string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	return e.Eval(ctx, expr, files, vars)
}
