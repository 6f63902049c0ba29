package cel

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// PropsVariable is the name expressions use to reach property values,
// e.g. "props._Quality >= 2.0".
const PropsVariable = "props"

// Evaluator compiles ShowIf expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator whose environment exposes property
// values as the map variable "props".
func NewEvaluator() (*Evaluator, error) {
	env, err := newShowIfEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

func newShowIfEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 4+len(opts))
	allOpts = append(allOpts,
		cel.Variable(PropsVariable, cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
		celext.Strings(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Predicate is a compiled boolean expression. It is safe to share between
// instances of the same schema.
type Predicate struct {
	source string
	prg    cel.Program
	refs   []string
}

// Compile parses and type-checks expr. The expression must produce a bool.
func (e *Evaluator) Compile(expr string) (*Predicate, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(types.BoolType) && !out.IsExactType(types.DynType) {
		return nil, fmt.Errorf("expression must evaluate to bool, got %s", out)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{source: expr, prg: prg, refs: references(ast.NativeRep().Expr())}, nil
}

// String returns the expression source.
func (p *Predicate) String() string { return p.source }

// References returns the property names the expression reads, sorted.
func (p *Predicate) References() []string { return p.refs }

// Eval runs the predicate against the given property values.
func (p *Predicate) Eval(values map[string]any) (bool, error) {
	result, _, err := p.prg.Eval(map[string]any{PropsVariable: values})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	return toBool(result)
}

func toBool(val ref.Val) (bool, error) {
	if b, ok := val.(types.Bool); ok {
		return bool(b), nil
	}
	return false, fmt.Errorf("expression produced %s, want bool", val.Type())
}

// References parses expr and returns the property names it reads through
// props.NAME or props["NAME"], sorted. Names inside string literals are not
// references.
func References(expr string) ([]string, error) {
	env, err := newShowIfEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}
	return references(ast.NativeRep().Expr()), nil
}

func references(root celast.Expr) []string {
	seen := make(map[string]bool)
	celast.PreOrderVisit(root, celast.NewExprVisitor(func(e celast.Expr) {
		switch e.Kind() {
		case celast.SelectKind:
			sel := e.AsSelect()
			if isProps(sel.Operand()) {
				seen[sel.FieldName()] = true
			}
		case celast.CallKind:
			call := e.AsCall()
			fn := call.FunctionName()
			if (fn != operators.Index && fn != operators.OptIndex) || len(call.Args()) != 2 {
				return
			}
			if !isProps(call.Args()[0]) || call.Args()[1].Kind() != celast.LiteralKind {
				return
			}
			if key, ok := call.Args()[1].AsLiteral().(types.String); ok {
				seen[string(key)] = true
			}
		}
	}))
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isProps(e celast.Expr) bool {
	return e.Kind() == celast.IdentKind && e.AsIdent() == PropsVariable
}
