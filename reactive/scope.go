package reactive

import (
	"fmt"

	"github.com/delaneyj/propbind/value"
)

// Context is a naming context: a set of ids and an optional context object,
// chained to a parent context.
type Context struct {
	parent *Context
	object *Object
	ids    map[string]*Object
}

func NewContext(parent *Context, object *Object) *Context {
	return &Context{parent: parent, object: object, ids: map[string]*Object{}}
}

func (c *Context) Parent() *Context { return c.parent }
func (c *Context) Object() *Object  { return c.object }

func (c *Context) SetID(id string, o *Object) {
	c.ids[id] = o
}

// ID resolves id in c and its parents.
func (c *Context) ID(id string) (*Object, bool) {
	for ; c != nil; c = c.parent {
		if o, ok := c.ids[id]; ok {
			return o, true
		}
	}
	return nil, false
}

// Scope is the lexical environment captured by a binding: the scope object
// whose properties are visible unqualified, and its context.
type Scope struct {
	object  *Object
	context *Context
}

func NewScope(object *Object, context *Context) *Scope {
	return &Scope{object: object, context: context}
}

func (s *Scope) Object() *Object   { return s.object }
func (s *Scope) Context() *Context { return s.context }

// Lookup resolves an unqualified name. Scope object properties win over ids,
// ids over context object properties, and inner contexts over outer ones.
func (s *Scope) Lookup(name string) (value.Value, error) {
	if s == nil {
		return value.Undefined, fmt.Errorf("%q: %w", name, ErrUnresolvedName)
	}
	if s.object != nil {
		if _, ok := s.object.Slot(name); ok {
			return s.object.Read(name)
		}
	}
	for c := s.context; c != nil; c = c.parent {
		if o, ok := c.ids[name]; ok {
			return value.Object(o), nil
		}
		if c.object != nil {
			if _, ok := c.object.Slot(name); ok {
				return c.object.Read(name)
			}
		}
	}
	return value.Undefined, fmt.Errorf("%q is not defined: %w", name, ErrUnresolvedName)
}

// Read reads property name of target. Reading from null or undefined fails,
// reading a property the object does not have yields undefined.
func (s *Scope) Read(target value.Value, name string) (value.Value, error) {
	if target.IsNullish() {
		return value.Undefined, fmt.Errorf("cannot read property %q of %s: %w", name, target, ErrNullAccess)
	}
	o, ok := target.Ref().(*Object)
	if !ok {
		return value.Undefined, nil
	}
	return ReadProperty(o, name)
}

// ReadProperty is a tracked read of o.name that yields undefined for unknown
// properties.
func ReadProperty(o *Object, name string) (value.Value, error) {
	if o.destroyed {
		return value.Undefined, fmt.Errorf("%s: %w", o, ErrObjectDestroyed)
	}
	if _, ok := o.Slot(name); !ok {
		return value.Undefined, nil
	}
	return o.Read(name)
}
