package reactive

import (
	"fmt"
	"log/slog"
	"weak"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/value"
)

type bindingFlags uint16

const (
	fBoundFunction bindingFlags = 1 << iota
	fUndefined
	fEvaluating
	fError
	fDirty
	fAttached
	fLoopDetected
	fDestroyed
)

// Binding keeps one property equal to the result of an expression. It
// re-evaluates when a property read by its last successful evaluation
// changes.
type Binding struct {
	engine   *Engine
	target   weak.Pointer[Object]
	index    PropertyIndex
	name     string
	typeName string
	object   string

	strategy evaluator
	flags    bindingFlags
	err      *diag.Diagnostic
	refs     int32

	deps      []*Slot
	depSet    mapset.Set[*Slot]
	snapshots []value.Value
}

func newBinding(s *Slot, strategy evaluator, flags bindingFlags) *Binding {
	return &Binding{
		engine:   s.owner.engine,
		target:   weak.Make(s.owner),
		index:    s.Index(),
		name:     s.def.Name,
		typeName: s.owner.typeName,
		object:   s.owner.String(),
		strategy: strategy,
		flags:    flags,
	}
}

// Target returns the target object, or nil once it is gone.
func (b *Binding) Target() *Object {
	return b.target.Value()
}

func (b *Binding) Property() string        { return b.name }
func (b *Binding) Index() PropertyIndex    { return b.index }
func (b *Binding) Location() diag.Location { return b.strategy.location() }
func (b *Binding) HasError() bool          { return b.flags&fError != 0 }
func (b *Binding) HasBoundFunction() bool  { return b.flags&fBoundFunction != 0 }
func (b *Binding) IsUndefined() bool       { return b.flags&fUndefined != 0 }
func (b *Binding) IsAttached() bool        { return b.flags&fAttached != 0 }
func (b *Binding) IsDirty() bool           { return b.flags&fDirty != 0 }
func (b *Binding) IsDestroyed() bool       { return b.flags&fDestroyed != 0 }
func (b *Binding) Refs() int32             { return b.refs }

// IsFastPath reports whether the binding runs an ahead-of-time compiled
// function.
func (b *Binding) IsFastPath() bool {
	_, ok := b.strategy.(*compiled)
	return ok
}

func (b *Binding) String() string {
	return "Binding(" + b.object + "." + b.name + ")"
}

// CurrentError returns the diagnostic of the last failed evaluation, or nil
// if the last evaluation succeeded.
func (b *Binding) CurrentError() *diag.Diagnostic {
	return b.err
}

func (b *Binding) slot() *Slot {
	o := b.target.Value()
	if o == nil || o.destroyed {
		return nil
	}
	return o.slots[b.index.Core]
}

// MarkDirty schedules a re-evaluation: at the end of the open construction
// stage if there is one, otherwise immediately.
func (b *Binding) MarkDirty() {
	if b.flags&fAttached == 0 {
		return
	}
	b.flags |= fDirty
	if b.engine.constructionDepth > 0 {
		b.engine.pending = append(b.engine.pending, b)
		return
	}
	b.update()
}

func (b *Binding) evaluateIfDirty() {
	if b.flags&(fDirty|fAttached|fDestroyed) != fDirty|fAttached {
		return
	}
	b.update()
}

func (b *Binding) propertyChanged(s *Slot) {
	if b.flags&fAttached == 0 || b.depSet == nil || !b.depSet.Contains(s) {
		return
	}
	if b.flags&fEvaluating != 0 {
		if b.engine.readingFresh(b, s) {
			return
		}
		b.reportLoop()
		return
	}
	b.MarkDirty()
}

// update evaluates the binding and notifies the target's observers if the
// stored value changed. The evaluating flag stays set while observers run so
// that a cascade coming back to this binding is reported as a loop.
func (b *Binding) update() {
	s := b.slot()
	if s == nil {
		b.flags &^= fDirty
		return
	}
	g, ok := b.beginEvaluation()
	if !ok {
		b.reportLoop()
		return
	}
	defer g.end()
	if b.evaluate(s) {
		s.notify()
	}
}

func (b *Binding) evaluate(s *Slot) (changed bool) {
	e := b.engine
	b.flags &^= fLoopDetected
	e.evaluations++

	t := e.beginTracking(b)
	res, err := b.call()
	e.endTracking(t)
	b.flags &^= fDirty

	if b.flags&fAttached == 0 {
		return false
	}
	if err != nil {
		b.fail(diag.EvaluationError, err.Error(), err)
		return false
	}
	t.commit()
	if b.flags&fLoopDetected != 0 {
		return false
	}
	b.clearError()
	if res.undefined {
		return b.handleUndefined(s)
	}
	b.flags &^= fUndefined

	if res.typed {
		return s.commit(res.native)
	}
	changed, ok := s.write(res.value)
	if !ok {
		b.fail(diag.TypeCoercionFailure, fmt.Sprintf(`%s: Unable to assign %s to "%s" of type %s`, b.typeName, res.value.Kind(), b.name, s.def.Type), ErrTypeCoercion)
		return false
	}
	return changed
}

func (b *Binding) call() (res result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrEvaluationPanic, r)
		}
	}()
	return b.strategy.evaluate()
}

func (b *Binding) fail(kind diag.Kind, msg string, err error) {
	d := &diag.Diagnostic{
		Kind:     kind,
		Location: b.strategy.location(),
		Object:   b.object,
		Property: b.name,
		Message:  msg,
		Err:      err,
	}
	b.err = d
	b.flags |= fError
	b.engine.warn(d)
}

func (b *Binding) clearError() {
	b.err = nil
	b.flags &^= fError
}

// Ref adds an external reference. The slot a binding is attached to holds
// one reference.
func (b *Binding) Ref() {
	b.refs++
}

// Release drops a reference. A binding with no references left is
// destroyed. The reference held by the slot a binding is attached to is only
// dropped when the binding is removed from it.
func (b *Binding) Release() {
	if b.refs == 0 || b.refs == 1 && b.flags&fAttached != 0 {
		return
	}
	b.refs--
	if b.refs == 0 {
		b.destroy()
	}
}

func (b *Binding) destroy() {
	if b.flags&fDestroyed != 0 {
		return
	}
	b.flags |= fDestroyed
	b.flags &^= fAttached | fDirty
	b.clearDependencies()
}

// unlink detaches the binding from its slot's bookkeeping: it stops
// receiving notifications and drops the slot's reference.
func (b *Binding) unlink() {
	if b.flags&fAttached == 0 {
		return
	}
	b.flags &^= fAttached | fDirty
	b.clearDependencies()
	b.engine.logger.Debug("binding removed", slog.String("binding", b.String()))
	b.Release()
}

// Dependency is one property read by the last successful evaluation.
type Dependency struct {
	Object   *Object
	Property string
	Index    PropertyIndex
	// Snapshot is the value when it was read.
	Snapshot value.Value

	slot *Slot
}

// Read returns the property's live value without recording a dependency.
func (d Dependency) Read() value.Value {
	var v value.Value
	d.Object.engine.Untracked(func() {
		v = d.slot.read()
	})
	return v
}

func (d Dependency) String() string {
	return d.Object.String() + "." + d.Property
}

// Dependencies lists the properties read by the last successful evaluation
// in first-read order. It is empty before the first evaluation.
func (b *Binding) Dependencies() []Dependency {
	out := make([]Dependency, len(b.deps))
	for i, s := range b.deps {
		out[i] = Dependency{
			Object:   s.owner,
			Property: s.def.Name,
			Index:    s.Index(),
			Snapshot: b.snapshots[i],
			slot:     s,
		}
	}
	return out
}
