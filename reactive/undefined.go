package reactive

import (
	"fmt"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/value"
)

// handleUndefined runs when an evaluation produced no value. Resettable
// properties fall back to their reset with the binding detached for the
// duration, other properties keep their value and report the assignment.
// Observers are notified by the reset itself, never from here.
func (b *Binding) handleUndefined(s *Slot) bool {
	if b.flags&fUndefined != 0 {
		return false
	}
	if !s.def.resettable() {
		b.fail(diag.UndefinedAssignment, fmt.Sprintf(`%s: Unable to assign [undefined] to "%s"`, b.typeName, b.name), ErrUndefinedAssignment)
		return false
	}

	s.detach()
	b.flags |= fUndefined

	var (
		current  value.Value
		resetErr error
	)
	b.engine.Untracked(func() {
		resetErr = s.owner.reset(s)
		current = s.read()
	})
	if resetErr != nil {
		b.fail(diag.EvaluationError, resetErr.Error(), resetErr)
	}
	s.write(current)

	if other := s.Binding(); other != nil {
		b.fail(diag.BindingSuperseded, fmt.Sprintf(`%s: resetting "%s" installed a new binding, the old binding is abandoned`, b.typeName, b.name), nil)
		b.unlink()
		return false
	}
	s.state = slotBound
	s.binding = b
	return false
}
