package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/propbind/value"
)

// tracker records the slots read by one evaluation. Trackers nest through
// prev when an evaluation reads a dirty property and evaluates its binding.
type tracker struct {
	binding *Binding
	prev    *tracker

	reads []*Slot
	seen  mapset.Set[*Slot]
	snaps []value.Value

	// reading is the slot whose dirty binding is being evaluated on behalf
	// of this pass, nil otherwise.
	reading *Slot
}

func (e *Engine) beginTracking(b *Binding) *tracker {
	t := &tracker{
		binding: b,
		prev:    e.current,
		seen:    mapset.NewThreadUnsafeSet[*Slot](),
	}
	e.current = t
	return t
}

func (e *Engine) endTracking(t *tracker) {
	e.current = t.prev
}

func (e *Engine) captureRead(s *Slot) {
	t := e.current
	if t == nil || t.seen.Contains(s) {
		return
	}
	t.seen.Add(s)
	t.reads = append(t.reads, s)
	t.snaps = append(t.snaps, s.peek())
}

// evaluateForRead brings the binding on s up to date before the current
// pass reads it.
func (e *Engine) evaluateForRead(s *Slot) {
	t := e.current
	if t == nil {
		s.binding.evaluateIfDirty()
		return
	}
	prev := t.reading
	t.reading = s
	s.binding.evaluateIfDirty()
	t.reading = prev
}

// readingFresh reports whether b is further down the evaluation chain,
// waiting on a lazy read, and has not read s yet in its current pass. A
// change of s then reaches b through the pending read instead of a
// re-evaluation.
func (e *Engine) readingFresh(b *Binding, s *Slot) bool {
	for t := e.current; t != nil; t = t.prev {
		if t.binding == b {
			return t.reading != nil && !t.seen.Contains(s)
		}
	}
	return false
}

// commit replaces the binding's dependency set with the reads of this pass.
// Slots read only by the previous pass stop notifying the binding, slots read
// only by this pass start.
func (t *tracker) commit() {
	b := t.binding
	if b.depSet != nil {
		for _, s := range b.deps {
			if !t.seen.Contains(s) {
				s.removeObserver(b)
			}
		}
	}
	for _, s := range t.reads {
		if b.depSet == nil || !b.depSet.Contains(s) {
			s.addObserver(b)
		}
	}
	b.deps = t.reads
	b.depSet = t.seen
	b.snapshots = t.snaps
}

// clearDependencies drops every subscription of b.
func (b *Binding) clearDependencies() {
	for _, s := range b.deps {
		s.removeObserver(b)
	}
	b.deps = nil
	b.depSet = nil
	b.snapshots = nil
}
