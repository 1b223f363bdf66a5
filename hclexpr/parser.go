// Package hclexpr evaluates binding expressions written in HCL native
// expression syntax with host-language value semantics.
package hclexpr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/value"
)

// Parser parses binding sources for reactive.Engine.
type Parser struct{}

func (Parser) Parse(source string, loc diag.Location) (reactive.Expression, error) {
	return Parse(source, loc)
}

// Expression is a parsed binding expression.
type Expression struct {
	source string
	loc    diag.Location
	expr   hclsyntax.Expression
}

func Parse(source string, loc diag.Location) (*Expression, error) {
	start := hcl.Pos{Line: loc.Line, Column: loc.Column, Byte: 0}
	if start.Line <= 0 {
		start.Line = 1
	}
	if start.Column <= 0 {
		start.Column = 1
	}
	expr, diags := hclsyntax.ParseExpression([]byte(source), loc.File, start)
	if diags.HasErrors() {
		return nil, fmt.Errorf("error while parsing expression %q: %w", source, diags)
	}
	return &Expression{
		source: source,
		loc:    diag.Location{File: loc.File, Line: start.Line, Column: start.Column},
		expr:   expr,
	}, nil
}

// MustParse is Parse for sources known to be valid.
func MustParse(source string) *Expression {
	e, err := Parse(source, diag.Location{})
	if err != nil {
		panic(err)
	}
	return e
}

// Compile parses source into a binding function.
func Compile(name, source string, loc diag.Location) (*reactive.Function, error) {
	e, err := Parse(source, loc)
	if err != nil {
		return nil, err
	}
	return &reactive.Function{Name: name, Body: e}, nil
}

func (e *Expression) Source() string          { return e.source }
func (e *Expression) Location() diag.Location { return e.loc }
func (e *Expression) String() string          { return e.source }

// Evaluate runs the expression. Only the taken branch of a conditional and
// the needed operand of && and || are evaluated, so only those reads become
// dependencies.
func (e *Expression) Evaluate(scope *reactive.Scope, call *reactive.CallData) (value.Value, error) {
	ev := &evaluator{scope: scope, call: call}
	return ev.eval(e.expr)
}
