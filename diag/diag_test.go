package diag_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/delaneyj/propbind/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	assert.Equal(t, "main.qml:3:7", diag.Location{File: "main.qml", Line: 3, Column: 7}.String())
	assert.Equal(t, "<expression>:1:1", diag.Location{Line: 1, Column: 1}.String())
	assert.Equal(t, "main.qml", diag.Location{File: "main.qml"}.String())
	assert.False(t, diag.Location{}.IsValid())
}

func TestDiagnosticError(t *testing.T) {
	cause := errors.New("cause")
	d := &diag.Diagnostic{
		Kind:     diag.EvaluationError,
		Location: diag.Location{File: "a.hcl", Line: 2, Column: 5},
		Message:  "boom",
		Err:      cause,
	}
	assert.EqualError(t, d, "a.hcl:2:5: boom")
	assert.ErrorIs(t, d, cause)

	var target *diag.Diagnostic
	require.ErrorAs(t, error(d), &target)
	assert.Equal(t, diag.EvaluationError, target.Kind)
}

func TestRecorderUnique(t *testing.T) {
	rec := &diag.Recorder{}
	loop := &diag.Diagnostic{Kind: diag.BindingLoop, Object: "Item(a)", Property: "x", Message: "loop"}
	undef := &diag.Diagnostic{Kind: diag.UndefinedAssignment, Object: "Item(a)", Property: "y", Message: "undef"}
	rec.Warn(loop)
	rec.Warn(undef)
	rec.Warn(&diag.Diagnostic{Kind: diag.BindingLoop, Object: "Item(a)", Property: "x", Message: "loop"})

	assert.Equal(t, 3, rec.Len())
	assert.Len(t, rec.OfKind(diag.BindingLoop), 2)

	unique, counts := rec.Unique()
	require.Len(t, unique, 2)
	assert.Same(t, loop, unique[0])
	assert.Equal(t, 2, counts[loop.Fingerprint()])
	assert.Equal(t, 1, counts[undef.Fingerprint()])
	assert.NotEqual(t, loop.Fingerprint(), undef.Fingerprint())

	rec.Reset()
	assert.Zero(t, rec.Len())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := diag.NewLogSink(logger)
	sink.Warn(&diag.Diagnostic{
		Kind:     diag.BindingLoop,
		Location: diag.Location{File: "main.qml", Line: 4, Column: 2},
		Object:   "Rectangle(rect)",
		Property: "width",
		Message:  `Rectangle: Binding loop detected for property "width"`,
	})
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "kind=binding-loop")
	assert.Contains(t, out, "property=width")
	assert.Contains(t, out, "line=4")
}

func TestMultiAndDefault(t *testing.T) {
	a, b := &diag.Recorder{}, &diag.Recorder{}
	restore := diag.SetDefault(diag.Multi(a, b))
	diag.Default().Warn(&diag.Diagnostic{Message: "x"})
	restore()
	diag.Default().Warn(&diag.Diagnostic{Message: "y"})

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, "evaluation-error", diag.EvaluationError.String())
	assert.Equal(t, "binding-superseded", diag.BindingSuperseded.String())
}
