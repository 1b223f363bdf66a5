package reactive_test

import (
	"testing"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/value"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*reactive.Engine, *diag.Recorder) {
	t.Helper()
	rec := &diag.Recorder{}
	return reactive.NewEngine(reactive.WithSink(rec)), rec
}

// fn wraps a Go closure as an interpreted binding function.
func fn(body func(s *reactive.Scope) (value.Value, error)) *reactive.Function {
	return &reactive.Function{
		Body: reactive.ExpressionFunc(func(s *reactive.Scope, _ *reactive.CallData) (value.Value, error) {
			return body(s)
		}),
	}
}

func read(t *testing.T, o *reactive.Object, name string) value.Value {
	t.Helper()
	v, err := o.Read(name)
	require.NoError(t, err)
	return v
}

func write(t *testing.T, o *reactive.Object, name string, v value.Value) {
	t.Helper()
	require.NoError(t, o.Write(name, v))
}

func depNames(b *reactive.Binding) []string {
	var out []string
	for _, d := range b.Dependencies() {
		out = append(out, d.String())
	}
	return out
}

func prop(name string, t *value.MetaType) reactive.PropertyDef {
	return reactive.PropertyDef{Name: name, Type: t}
}
