package reactive

import (
	"fmt"

	"github.com/delaneyj/propbind/diag"
)

// CreateBinding attaches fn to target.property, replacing any binding the
// property had. Outside a construction stage the binding is evaluated before
// CreateBinding returns.
func (e *Engine) CreateBinding(target *Object, property string, fn *Function, scope *Scope) (*Binding, error) {
	s, err := target.lookup(property)
	if err != nil {
		return nil, err
	}
	return e.createFunctionBinding(s, fn, scope)
}

// CreateBindingAt is CreateBinding addressed by property index.
func (e *Engine) CreateBindingAt(target *Object, index PropertyIndex, fn *Function, scope *Scope) (*Binding, error) {
	if target.destroyed {
		return nil, fmt.Errorf("%s: %w", target, ErrObjectDestroyed)
	}
	if index.HasValueType() {
		return nil, fmt.Errorf("%s property %d.%d: %w", target, index.Core, index.ValueType, ErrValueTypeIndex)
	}
	s, ok := target.SlotAt(index)
	if !ok {
		return nil, fmt.Errorf("%s property %d: %w", target, index.Core, ErrPropertyNotFound)
	}
	return e.createFunctionBinding(s, fn, scope)
}

func (e *Engine) createFunctionBinding(s *Slot, fn *Function, scope *Scope) (*Binding, error) {
	if fn == nil {
		return nil, fmt.Errorf("binding for %s: %w", s, ErrNoFunction)
	}
	strategy := selectStrategy(s, fn, scope)
	if in, ok := strategy.(*interpreted); ok && in.body == nil {
		return nil, fmt.Errorf("binding for %s: function %q has no interpreted body: %w", s, fn.Name, ErrNoFunction)
	}
	return e.install(s, newBinding(s, strategy, 0)), nil
}

// CreateFromLiteralSource parses source with the engine's parser and binds
// the result to target.property.
func (e *Engine) CreateFromLiteralSource(target *Object, property, source string, loc diag.Location, scope *Scope) (*Binding, error) {
	if e.parser == nil {
		return nil, ErrNoParser
	}
	s, err := target.lookup(property)
	if err != nil {
		return nil, err
	}
	expr, err := e.parser.Parse(source, loc)
	if err != nil {
		return nil, fmt.Errorf("error while parsing binding for %s: %w", s, err)
	}
	return e.createFunctionBinding(s, &Function{Name: property, Body: expr}, scope)
}

// CreateFromBoundFunction binds a function with a fixed receiver and
// arguments. Bound functions always run interpreted.
func (e *Engine) CreateFromBoundFunction(target *Object, property string, fn *BoundFunction, scope *Scope) (*Binding, error) {
	s, err := target.lookup(property)
	if err != nil {
		return nil, err
	}
	if fn == nil || fn.Function == nil || fn.Function.Body == nil {
		return nil, fmt.Errorf("bound function binding for %s: %w", s, ErrNoFunction)
	}
	strategy := &interpreted{
		body:  fn.Function.Body,
		scope: scope,
		call:  &CallData{This: fn.This, Args: fn.Args},
	}
	return e.install(s, newBinding(s, strategy, fBoundFunction)), nil
}

// CreateTranslationBinding binds target.property to the translation of key
// in the engine's current UI language.
func (e *Engine) CreateTranslationBinding(target *Object, property, key string, tr Translator) (*Binding, error) {
	s, err := target.lookup(property)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("translation binding for %s: %w", s, ErrNoFunction)
	}
	strategy := &translated{key: key, tr: tr, language: e.language}
	return e.install(s, newBinding(s, strategy, 0)), nil
}

func (e *Engine) install(s *Slot, b *Binding) *Binding {
	s.attach(b)
	b.Ref()
	b.flags |= fAttached | fDirty
	if e.constructionDepth > 0 {
		e.pending = append(e.pending, b)
		return b
	}
	b.update()
	return b
}
