package hclexpr

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/value"
)

var ErrUnsupported = errors.New("unsupported expression")

type evaluator struct {
	scope *reactive.Scope
	call  *reactive.CallData
}

func (ev *evaluator) eval(expr hclsyntax.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return FromCty(e.Val)

	case *hclsyntax.TemplateExpr:
		var sb strings.Builder
		for _, part := range e.Parts {
			v, err := ev.eval(part)
			if err != nil {
				return value.Undefined, err
			}
			sb.WriteString(v.ToString())
		}
		return value.String(sb.String()), nil

	case *hclsyntax.TemplateWrapExpr:
		return ev.eval(e.Wrapped)

	case *hclsyntax.ParenthesesExpr:
		return ev.eval(e.Expression)

	case *hclsyntax.ScopeTraversalExpr:
		return ev.traverse(e.Traversal, e.SrcRange)

	case *hclsyntax.RelativeTraversalExpr:
		src, err := ev.eval(e.Source)
		if err != nil {
			return value.Undefined, err
		}
		return ev.traverseFrom(src, e.Traversal, e.SrcRange)

	case *hclsyntax.IndexExpr:
		coll, err := ev.eval(e.Collection)
		if err != nil {
			return value.Undefined, err
		}
		key, err := ev.eval(e.Key)
		if err != nil {
			return value.Undefined, err
		}
		return ev.index(coll, key, e.SrcRange)

	case *hclsyntax.ConditionalExpr:
		cond, err := ev.eval(e.Condition)
		if err != nil {
			return value.Undefined, err
		}
		if cond.ToBoolean() {
			return ev.eval(e.TrueResult)
		}
		return ev.eval(e.FalseResult)

	case *hclsyntax.UnaryOpExpr:
		v, err := ev.eval(e.Val)
		if err != nil {
			return value.Undefined, err
		}
		switch e.Op {
		case hclsyntax.OpLogicalNot:
			return value.Bool(!v.ToBoolean()), nil
		case hclsyntax.OpNegate:
			return value.Number(-v.ToNumber()), nil
		}
		return value.Undefined, fmt.Errorf("%s: %w: unary operator", e.SrcRange, ErrUnsupported)

	case *hclsyntax.BinaryOpExpr:
		return ev.binary(e)

	case *hclsyntax.FunctionCallExpr:
		return ev.callFunction(e)

	default:
		return value.Undefined, fmt.Errorf("%s: %w: %T", expr.Range(), ErrUnsupported, expr)
	}
}

func (ev *evaluator) binary(e *hclsyntax.BinaryOpExpr) (value.Value, error) {
	lhs, err := ev.eval(e.LHS)
	if err != nil {
		return value.Undefined, err
	}
	switch e.Op {
	case hclsyntax.OpLogicalAnd:
		if !lhs.ToBoolean() {
			return lhs, nil
		}
		return ev.eval(e.RHS)
	case hclsyntax.OpLogicalOr:
		if lhs.ToBoolean() {
			return lhs, nil
		}
		return ev.eval(e.RHS)
	}

	rhs, err := ev.eval(e.RHS)
	if err != nil {
		return value.Undefined, err
	}
	switch e.Op {
	case hclsyntax.OpEqual:
		return value.Bool(looseEquals(lhs, rhs)), nil
	case hclsyntax.OpNotEqual:
		return value.Bool(!looseEquals(lhs, rhs)), nil
	case hclsyntax.OpLessThan:
		return compare(lhs, rhs, func(c int) bool { return c < 0 }), nil
	case hclsyntax.OpLessThanOrEqual:
		return compare(lhs, rhs, func(c int) bool { return c <= 0 }), nil
	case hclsyntax.OpGreaterThan:
		return compare(lhs, rhs, func(c int) bool { return c > 0 }), nil
	case hclsyntax.OpGreaterThanOrEqual:
		return compare(lhs, rhs, func(c int) bool { return c >= 0 }), nil
	case hclsyntax.OpAdd:
		if lhs.IsString() || rhs.IsString() {
			return value.String(lhs.ToString() + rhs.ToString()), nil
		}
		return value.Number(lhs.ToNumber() + rhs.ToNumber()), nil
	case hclsyntax.OpSubtract:
		return value.Number(lhs.ToNumber() - rhs.ToNumber()), nil
	case hclsyntax.OpMultiply:
		return value.Number(lhs.ToNumber() * rhs.ToNumber()), nil
	case hclsyntax.OpDivide:
		return value.Number(lhs.ToNumber() / rhs.ToNumber()), nil
	case hclsyntax.OpModulo:
		return value.Number(math.Mod(lhs.ToNumber(), rhs.ToNumber())), nil
	}
	return value.Undefined, fmt.Errorf("%s: %w: binary operator", e.SrcRange, ErrUnsupported)
}

// looseEquals compares numbers, numeric strings and booleans numerically
// and treats null and undefined as equal.
func looseEquals(a, b value.Value) bool {
	switch {
	case a.IsNullish() || b.IsNullish():
		return a.IsNullish() && b.IsNullish()
	case a.Kind() == b.Kind(), a.IsNumber() && b.IsNumber():
		return value.StrictEquals(a, b)
	case a.IsObject() || b.IsObject():
		return false
	default:
		return a.ToNumber() == b.ToNumber()
	}
}

func compare(a, b value.Value, ok func(c int) bool) value.Value {
	if a.IsString() && b.IsString() {
		return value.Bool(ok(strings.Compare(a.StringValue(), b.StringValue())))
	}
	x, y := a.ToNumber(), b.ToNumber()
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return value.Bool(false)
	case x < y:
		return value.Bool(ok(-1))
	case x > y:
		return value.Bool(ok(1))
	default:
		return value.Bool(ok(0))
	}
}

// traverse resolves a.b[c] chains. this and args refer to the bound
// function's receiver and arguments.
func (ev *evaluator) traverse(t hcl.Traversal, rng hcl.Range) (value.Value, error) {
	root := t.RootName()
	rest := t[1:]
	var cur value.Value
	switch {
	case root == "this" && ev.call != nil:
		cur = ev.call.This
	case root == "args" && ev.call != nil:
		if len(rest) == 0 {
			return value.Undefined, fmt.Errorf("%s: args must be indexed", rng)
		}
		idx, ok := rest[0].(hcl.TraverseIndex)
		if !ok {
			return value.Undefined, fmt.Errorf("%s: args must be indexed", rng)
		}
		key, err := FromCty(idx.Key)
		if err != nil {
			return value.Undefined, err
		}
		cur = ev.call.Arg(int(key.ToNumber()))
		rest = rest[1:]
	default:
		v, err := ev.scope.Lookup(root)
		if err != nil {
			return value.Undefined, fmt.Errorf("%s: %w", rng, err)
		}
		cur = v
	}
	return ev.traverseFrom(cur, rest, rng)
}

func (ev *evaluator) traverseFrom(cur value.Value, t hcl.Traversal, rng hcl.Range) (value.Value, error) {
	for _, step := range t {
		var err error
		switch s := step.(type) {
		case hcl.TraverseAttr:
			cur, err = ev.scope.Read(cur, s.Name)
		case hcl.TraverseIndex:
			var key value.Value
			if key, err = FromCty(s.Key); err == nil {
				cur, err = ev.index(cur, key, rng)
			}
		default:
			err = fmt.Errorf("%w: traversal step %T", ErrUnsupported, step)
		}
		if err != nil {
			return value.Undefined, fmt.Errorf("%s: %w", rng, err)
		}
	}
	return cur, nil
}

func (ev *evaluator) index(coll, key value.Value, rng hcl.Range) (value.Value, error) {
	if key.IsString() {
		return ev.scope.Read(coll, key.StringValue())
	}
	if coll.IsString() && key.IsNumber() {
		i := int(key.ToNumber())
		r := []rune(coll.StringValue())
		if i < 0 || i >= len(r) {
			return value.Undefined, nil
		}
		return value.String(string(r[i])), nil
	}
	if coll.IsNullish() {
		return value.Undefined, fmt.Errorf("%s: cannot index %s: %w", rng, coll, reactive.ErrNullAccess)
	}
	return value.Undefined, nil
}
