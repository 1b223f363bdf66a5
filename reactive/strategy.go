package reactive

import (
	"fmt"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/value"
)

// CallData carries the receiver and pre-bound arguments of a bound function.
type CallData struct {
	This value.Value
	Args []value.Value
}

func (c *CallData) Arg(i int) value.Value {
	if c == nil || i < 0 || i >= len(c.Args) {
		return value.Undefined
	}
	return c.Args[i]
}

// Expression is an interpreted expression. All property access must go
// through scope so that reads are tracked. call is nil unless the binding was
// created from a bound function. An undefined result means "no value".
type Expression interface {
	Evaluate(scope *Scope, call *CallData) (value.Value, error)
	Location() diag.Location
}

type ExpressionFunc func(scope *Scope, call *CallData) (value.Value, error)

func (f ExpressionFunc) Evaluate(scope *Scope, call *CallData) (value.Value, error) {
	return f(scope, call)
}

func (f ExpressionFunc) Location() diag.Location {
	return diag.Location{}
}

type locatedExpression struct {
	ExpressionFunc
	loc diag.Location
}

func (l locatedExpression) Location() diag.Location { return l.loc }

// Located attaches a source location to fn.
func Located(loc diag.Location, fn ExpressionFunc) Expression {
	return locatedExpression{ExpressionFunc: fn, loc: loc}
}

// AOTFunction is an ahead-of-time compiled form of an expression. Call
// returns the result in the exact storage form of ReturnType, or ok false for
// no value. Functions that read properties without going through the scope
// must set UntrackedReads.
type AOTFunction struct {
	ReturnType     *value.MetaType
	UntrackedReads bool
	Call           func(scope *Scope) (result any, ok bool, err error)
}

type Function struct {
	Name string
	Body Expression
	AOT  *AOTFunction
}

func (f *Function) Location() diag.Location {
	if f == nil || f.Body == nil {
		return diag.Location{}
	}
	return f.Body.Location()
}

// BoundFunction is a function with a fixed receiver and leading arguments.
type BoundFunction struct {
	Function *Function
	This     value.Value
	Args     []value.Value
}

type result struct {
	value     value.Value
	native    any
	typed     bool
	undefined bool
}

type evaluator interface {
	evaluate() (result, error)
	location() diag.Location
}

type interpreted struct {
	body  Expression
	scope *Scope
	call  *CallData
}

func (i *interpreted) evaluate() (result, error) {
	v, err := i.body.Evaluate(i.scope, i.call)
	if err != nil {
		return result{}, err
	}
	if v.IsUndefined() {
		return result{undefined: true}, nil
	}
	return result{value: v}, nil
}

func (i *interpreted) location() diag.Location { return i.body.Location() }

type compiled struct {
	fn    *AOTFunction
	scope *Scope
	loc   diag.Location
}

func (c *compiled) evaluate() (result, error) {
	x, ok, err := c.fn.Call(c.scope)
	if err != nil {
		return result{}, err
	}
	if !ok {
		return result{undefined: true}, nil
	}
	native, ok := c.fn.ReturnType.Convert(x)
	if !ok {
		return result{}, fmt.Errorf("compiled result %T is not a %s: %w", x, c.fn.ReturnType, ErrTypeCoercion)
	}
	return result{native: native, typed: true}, nil
}

func (c *compiled) location() diag.Location { return c.loc }

type translated struct {
	key      string
	tr       Translator
	language *Object
}

func (t *translated) evaluate() (result, error) {
	lang, err := t.language.Read(languageProperty)
	if err != nil {
		return result{}, err
	}
	return result{value: value.String(t.tr.Translate(lang.StringValue(), t.key))}, nil
}

func (t *translated) location() diag.Location { return diag.Location{} }

// selectStrategy picks the compiled fast path when fn has one whose return
// type is exactly the slot's type and whose reads are all tracked.
func selectStrategy(s *Slot, fn *Function, scope *Scope) evaluator {
	if aot := fn.AOT; aot != nil && aot.Call != nil && !aot.UntrackedReads && aot.ReturnType == s.def.Type {
		return &compiled{fn: aot, scope: scope, loc: fn.Location()}
	}
	return &interpreted{body: fn.Body, scope: scope}
}
