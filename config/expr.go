package config

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"gopkg.in/yaml.v3"
)

// Expr is a memory-config numeric field. It accepts a plain YAML integer
// or, in the style of cpu/assembler.go's "$(...)" compile-time evaluation,
// a starlark expression string such as "0x80000000 + 0x40000" — useful for
// deriving a data bank's base from the code bank's size without repeating
// the literal.
type Expr struct {
	Value uint64
}

func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	var asInt uint64
	if err := node.Decode(&asInt); err == nil {
		e.Value = asInt
		return nil
	}

	var asStr string
	if err := node.Decode(&asStr); err != nil {
		return &ErrConfig{Reason: "expr: " + node.Value + ": neither an integer nor an expression string"}
	}

	v, err := evalExpr(asStr)
	if err != nil {
		return err
	}
	e.Value = v
	return nil
}

// evalExpr evaluates expr as a single starlark statement assigning "rc",
// the same single-expression-to-integer pattern cpu/assembler.go's
// parenEval uses for "$(...)" immediates.
func evalExpr(expr string) (uint64, error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	prog := "rc = " + expr + "\n"

	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, nil)
	if err != nil {
		return 0, &ErrConfig{Reason: "expr: " + expr + ": " + err.Error()}
	}

	rc, ok := dict["rc"]
	if !ok {
		return 0, &ErrConfig{Reason: "expr: " + expr + ": produced no result"}
	}
	asInt, ok := rc.(starlark.Int)
	if !ok {
		return 0, &ErrConfig{Reason: "expr: " + expr + ": did not evaluate to an integer"}
	}
	i64, ok := asInt.Int64()
	if !ok {
		return 0, &ErrConfig{Reason: "expr: " + expr + ": out of range"}
	}
	return uint64(i64), nil
}
