package reactive

import (
	"fmt"
	"log/slog"

	"github.com/delaneyj/propbind/value"
)

// PropertyIndex identifies a property of an object. ValueType selects a
// sub-property of a value-type property and is -1 otherwise.
type PropertyIndex struct {
	Core      int
	ValueType int
}

func CoreIndex(core int) PropertyIndex {
	return PropertyIndex{Core: core, ValueType: -1}
}

func (i PropertyIndex) HasValueType() bool {
	return i.ValueType >= 0
}

type PropertyDef struct {
	Name string
	// Type defaults to value.TypeVar.
	Type *value.MetaType
	// Default is the initial value and, for resettable properties without a
	// Reset func, the value restored by a reset.
	Default    value.Value
	Resettable bool
	// Reset, when set, makes the property resettable and replaces the
	// default restore.
	Reset func(o *Object) error
}

func (d *PropertyDef) resettable() bool {
	return d.Resettable || d.Reset != nil
}

// Object is a host object exposing typed, bindable properties.
type Object struct {
	engine     *Engine
	typeName   string
	objectName string
	slots      []*Slot
	byName     map[string]int
	destroyed  bool
}

// NewObject creates an object whose property indices follow the order of defs.
func (e *Engine) NewObject(typeName, objectName string, defs ...PropertyDef) *Object {
	o := &Object{
		engine:     e,
		typeName:   typeName,
		objectName: objectName,
		slots:      make([]*Slot, 0, len(defs)),
		byName:     make(map[string]int, len(defs)),
	}
	for i, def := range defs {
		if def.Type == nil {
			def.Type = value.TypeVar
		}
		s := &Slot{
			owner:   o,
			index:   i,
			def:     def,
			storage: def.Type.Zero(),
		}
		if !def.Default.IsUndefined() {
			if x, ok := coerce(def.Type, def.Default); ok {
				s.storage = x
			}
		}
		o.slots = append(o.slots, s)
		o.byName[def.Name] = i
	}
	return o
}

func (o *Object) Engine() *Engine    { return o.engine }
func (o *Object) TypeName() string   { return o.typeName }
func (o *Object) ObjectName() string { return o.objectName }
func (o *Object) IsDestroyed() bool  { return o.destroyed }
func (o *Object) PropertyCount() int { return len(o.slots) }

func (o *Object) String() string {
	if o.objectName != "" {
		return o.typeName + "(" + o.objectName + ")"
	}
	return o.typeName
}

func (o *Object) Slot(name string) (*Slot, bool) {
	i, ok := o.byName[name]
	if !ok {
		return nil, false
	}
	return o.slots[i], true
}

func (o *Object) SlotAt(index PropertyIndex) (*Slot, bool) {
	if index.Core < 0 || index.Core >= len(o.slots) {
		return nil, false
	}
	return o.slots[index.Core], true
}

func (o *Object) IndexOf(name string) (PropertyIndex, bool) {
	i, ok := o.byName[name]
	if !ok {
		return PropertyIndex{}, false
	}
	return CoreIndex(i), true
}

// Binding returns the binding attached to the named property, if any.
func (o *Object) Binding(name string) *Binding {
	s, ok := o.Slot(name)
	if !ok {
		return nil
	}
	return s.Binding()
}

func (o *Object) lookup(name string) (*Slot, error) {
	if o.destroyed {
		return nil, fmt.Errorf("%s: %w", o, ErrObjectDestroyed)
	}
	s, ok := o.Slot(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", o, name, ErrPropertyNotFound)
	}
	return s, nil
}

// Read returns the property's current value, evaluating its binding first
// if needed. The read is recorded as a dependency of the evaluating binding.
func (o *Object) Read(name string) (value.Value, error) {
	s, err := o.lookup(name)
	if err != nil {
		return value.Undefined, err
	}
	return s.read(), nil
}

// Write assigns a plain value. Any attached binding is removed first.
// Writing undefined resets a resettable property.
func (o *Object) Write(name string, v value.Value) error {
	s, err := o.lookup(name)
	if err != nil {
		return err
	}
	s.removeBinding()
	if v.IsUndefined() {
		if s.def.resettable() {
			return o.reset(s)
		}
		return fmt.Errorf(`%s: unable to assign [undefined] to "%s": %w`, o.typeName, name, ErrUndefinedAssignment)
	}
	changed, ok := s.write(v)
	if !ok {
		return fmt.Errorf("%s.%s: cannot assign %s to %s: %w", o, name, v.Kind(), s.def.Type, ErrTypeCoercion)
	}
	if changed {
		s.notify()
	}
	return nil
}

// Reset removes any binding and restores the property through its reset.
func (o *Object) Reset(name string) error {
	s, err := o.lookup(name)
	if err != nil {
		return err
	}
	if !s.def.resettable() {
		return fmt.Errorf("%s.%s: %w", o, name, ErrNotResettable)
	}
	s.removeBinding()
	return o.reset(s)
}

func (o *Object) reset(s *Slot) error {
	if s.def.Reset != nil {
		if err := s.def.Reset(o); err != nil {
			return fmt.Errorf("reset %s.%s: %w", o, s.def.Name, err)
		}
		return nil
	}
	x := s.def.Type.Zero()
	if !s.def.Default.IsUndefined() {
		if d, ok := coerce(s.def.Type, s.def.Default); ok {
			x = d
		}
	}
	if s.commit(x) {
		s.notify()
	}
	return nil
}

// Watch registers a native observer called with the new value after every
// change of the named property.
func (o *Object) Watch(name string, fn func(v value.Value)) (stop func(), err error) {
	s, err := o.lookup(name)
	if err != nil {
		return nil, err
	}
	w := &watcher{fn: fn}
	s.addObserver(w)
	return func() {
		w.stopped = true
		s.removeObserver(w)
	}, nil
}

// Destroy removes every binding targeting the object and stops all
// notifications from its properties.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	for _, s := range o.slots {
		s.removeBinding()
		s.observers = nil
	}
	o.destroyed = true
	o.engine.logger.Debug("object destroyed", slog.String("object", o.String()))
}

type watcher struct {
	fn      func(v value.Value)
	stopped bool
}

func (w *watcher) propertyChanged(s *Slot) {
	if w.stopped {
		return
	}
	w.fn(s.peek())
}
