package templates

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Formula is a compiled derivation expression. Formulas are evaluated
// against the resolved parameter map, e.g. "(c - b) / a".
type Formula struct {
	src     string
	program *vm.Program
}

// CompileFormula parses and compiles a derivation expression.
func CompileFormula(src string) (*Formula, error) {
	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid formula %q: %w", src, err)
	}
	return &Formula{src: src, program: program}, nil
}

// Eval runs the formula against resolved parameter values.
func (f *Formula) Eval(params map[string]any) (any, error) {
	out, err := expr.Run(f.program, params)
	if err != nil {
		return nil, fmt.Errorf("formula %q failed: %w", f.src, err)
	}
	return out, nil
}

func (f *Formula) String() string {
	return f.src
}

// exprBuiltins are identifiers a formula may reference besides
// parameter names.
var exprBuiltins = map[string]bool{
	"abs": true, "ceil": true, "floor": true, "round": true,
	"min": true, "max": true, "len": true, "int": true, "float": true,
	"string": true,
}

// identifierCollector gathers identifier references from a parsed
// expression tree.
type identifierCollector struct {
	names []string
	seen  map[string]bool
}

func (c *identifierCollector) Visit(node *ast.Node) {
	ident, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	if exprBuiltins[ident.Value] || c.seen[ident.Value] {
		return
	}
	c.seen[ident.Value] = true
	c.names = append(c.names, ident.Value)
}

// FormulaIdentifiers returns the parameter names a formula references.
// Used at registration time to enforce the forward-only dependency
// rule between derived parameters.
func FormulaIdentifiers(src string) ([]string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid formula %q: %w", src, err)
	}
	collector := &identifierCollector{seen: make(map[string]bool)}
	ast.Walk(&tree.Node, collector)
	return collector.names, nil
}
