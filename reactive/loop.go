package reactive

import (
	"fmt"

	"github.com/delaneyj/propbind/diag"
)

// evaluationGuard holds a binding's evaluating flag for the duration of one
// pass. end must run on every exit path.
type evaluationGuard struct {
	b *Binding
}

func (b *Binding) beginEvaluation() (evaluationGuard, bool) {
	if b.flags&fEvaluating != 0 {
		return evaluationGuard{}, false
	}
	b.flags |= fEvaluating
	return evaluationGuard{b: b}, true
}

func (g evaluationGuard) end() {
	if g.b != nil {
		g.b.flags &^= fEvaluating
	}
}

// reportLoop is called on a binding that was re-entered while evaluating.
// The evaluation in progress finishes but does not write its result. A pass
// reports at most one loop.
func (b *Binding) reportLoop() {
	if b.flags&fLoopDetected != 0 {
		return
	}
	b.flags |= fLoopDetected
	b.fail(diag.BindingLoop, fmt.Sprintf(`%s: Binding loop detected for property "%s"`, b.typeName, b.name), nil)
}
