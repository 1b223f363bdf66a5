package reactive

import (
	"slices"

	"github.com/delaneyj/propbind/value"
)

type slotState uint8

const (
	slotValue slotState = iota
	slotBound
)

// Observer is notified after the value of a slot it watches changed.
type Observer interface {
	propertyChanged(s *Slot)
}

// Slot is the storage cell of one property. It holds either a plain value or
// an attached binding, plus the passive observers of the property. Observers
// stay on the slot when bindings come and go.
type Slot struct {
	owner *Object
	index int
	def   PropertyDef

	state   slotState
	binding *Binding

	// storage holds the exact Go type of def.Type.
	storage   any
	observers []Observer
}

func (s *Slot) Object() *Object       { return s.owner }
func (s *Slot) Name() string          { return s.def.Name }
func (s *Slot) Index() PropertyIndex  { return CoreIndex(s.index) }
func (s *Slot) Type() *value.MetaType { return s.def.Type }
func (s *Slot) Resettable() bool      { return s.def.resettable() }
func (s *Slot) ObserverCount() int    { return len(s.observers) }
func (s *Slot) String() string        { return s.owner.String() + "." + s.def.Name }

// Binding returns the attached binding or nil.
func (s *Slot) Binding() *Binding {
	if s.state != slotBound {
		return nil
	}
	return s.binding
}

// peek returns the stored value without evaluating or tracking.
func (s *Slot) peek() value.Value {
	return s.def.Type.ToValue(s.storage)
}

func (s *Slot) read() value.Value {
	if s.state == slotBound {
		s.owner.engine.evaluateForRead(s)
	}
	s.owner.engine.captureRead(s)
	return s.peek()
}

func (s *Slot) notify() {
	if len(s.observers) == 0 || s.owner.destroyed {
		return
	}
	for _, o := range slices.Clone(s.observers) {
		o.propertyChanged(s)
	}
}

func (s *Slot) addObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Slot) removeObserver(o Observer) {
	if i := slices.Index(s.observers, o); i >= 0 {
		s.observers = slices.Delete(s.observers, i, i+1)
	}
}

// attach makes b the slot's binding, unlinking the previous one.
func (s *Slot) attach(b *Binding) {
	if old := s.Binding(); old != nil && old != b {
		old.unlink()
	}
	s.state = slotBound
	s.binding = b
}

// detach clears the binding pointer without touching the binding itself.
func (s *Slot) detach() *Binding {
	b := s.Binding()
	s.state = slotValue
	s.binding = nil
	return b
}

func (s *Slot) removeBinding() {
	if b := s.detach(); b != nil {
		b.unlink()
	}
}
