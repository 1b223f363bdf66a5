// Package diag carries binding diagnostics from the engine to a warning sink.
package diag

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

type Kind uint8

const (
	EvaluationError Kind = iota
	BindingLoop
	UndefinedAssignment
	TypeCoercionFailure
	BindingSuperseded
)

func (k Kind) String() string {
	switch k {
	case EvaluationError:
		return "evaluation-error"
	case BindingLoop:
		return "binding-loop"
	case UndefinedAssignment:
		return "undefined-assignment"
	case TypeCoercionFailure:
		return "type-coercion-failure"
	case BindingSuperseded:
		return "binding-superseded"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Location is the source position of a binding's expression.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) IsValid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<expression>"
	}
	if !l.IsValid() {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Diagnostic is a non-fatal report about one binding.
type Diagnostic struct {
	Kind     Kind
	Location Location
	// Object describes the binding's target object, Property names its property.
	Object   string
	Property string
	Message  string
	Err      error
}

func (d *Diagnostic) Error() string {
	return d.Location.String() + ": " + d.Message
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Fingerprint identifies repeated reports of the same problem.
func (d *Diagnostic) Fingerprint() uint64 {
	h := xxhash.New()
	h.WriteString(d.Kind.String())
	h.WriteString("\x00")
	h.WriteString(d.Location.String())
	h.WriteString("\x00")
	h.WriteString(d.Object)
	h.WriteString("\x00")
	h.WriteString(d.Property)
	h.WriteString("\x00")
	h.WriteString(d.Message)
	return h.Sum64()
}
