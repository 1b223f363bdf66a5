package reactive_test

import (
	"math"
	"testing"

	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueWriter(t *testing.T) {
	e, _ := newEngine(t)

	tests := []struct {
		name string
		typ  *value.MetaType
		in   value.Value
		want value.Value
	}{
		{"bool from bool", value.TypeBool, value.Bool(true), value.Bool(true)},
		{"bool from zero", value.TypeBool, value.Int(0), value.Bool(false)},
		{"bool from number", value.TypeBool, value.Double(0.5), value.Bool(true)},
		{"bool from empty string", value.TypeBool, value.String(""), value.Bool(false)},
		{"bool from NaN", value.TypeBool, value.Double(math.NaN()), value.Bool(false)},
		{"int from int", value.TypeInt, value.Int(-7), value.Int(-7)},
		{"int truncates", value.TypeInt, value.Double(3.9), value.Int(3)},
		{"int truncates toward zero", value.TypeInt, value.Double(-3.9), value.Int(-3)},
		{"int from NaN", value.TypeInt, value.Double(math.NaN()), value.Int(0)},
		{"int out of range", value.TypeInt, value.Double(1e12), value.Int(math.MinInt32)},
		{"int from numeric string", value.TypeInt, value.String("12"), value.Int(12)},
		{"int from bool", value.TypeInt, value.Bool(true), value.Int(1)},
		{"double from int", value.TypeDouble, value.Int(2), value.Double(2)},
		{"double from string", value.TypeDouble, value.String("2.5"), value.Double(2.5)},
		{"float narrows", value.TypeFloat, value.Double(0.1), value.Double(float64(float32(0.1)))},
		{"string from string", value.TypeString, value.String("x"), value.String("x")},
		{"string from int", value.TypeString, value.Int(5), value.String("5")},
		{"string from double", value.TypeString, value.Double(0.5), value.String("0.5")},
		{"var keeps null", value.TypeVar, value.Null, value.Null},
		{"var keeps double", value.TypeVar, value.Double(1.5), value.Double(1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := e.NewObject("Item", tt.name, prop("p", tt.typ))
			require.NoError(t, o.Write("p", tt.in))
			got := read(t, o, "p")
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.True(t, value.StrictEquals(tt.want, got), "got %v", got)
		})
	}
}

func TestValueWriterRejects(t *testing.T) {
	e, _ := newEngine(t)
	other := e.NewObject("Item", "other")

	tests := []struct {
		name string
		typ  *value.MetaType
		in   value.Value
	}{
		{"double from object", value.TypeDouble, value.Object(other)},
		{"int from word", value.TypeInt, value.String("twelve")},
		{"string from null", value.TypeString, value.Null},
		{"object from number", value.TypeObject, value.Int(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := e.NewObject("Item", tt.name, prop("p", tt.typ))
			before := read(t, o, "p")
			assert.ErrorIs(t, o.Write("p", tt.in), reactive.ErrTypeCoercion)
			assert.Equal(t, before, read(t, o, "p"))
		})
	}
}

func TestWriteNotifiesOnlyOnChange(t *testing.T) {
	e, _ := newEngine(t)
	o := e.NewObject("Item", "o", prop("d", value.TypeDouble), prop("obj", value.TypeObject))
	other := e.NewObject("Item", "other")

	count := 0
	stopD, err := o.Watch("d", func(value.Value) { count++ })
	require.NoError(t, err)
	defer stopD()
	stopObj, err := o.Watch("obj", func(value.Value) { count++ })
	require.NoError(t, err)

	write(t, o, "d", value.Int(1))
	write(t, o, "d", value.Double(1))
	assert.Equal(t, 1, count)

	write(t, o, "d", value.Double(math.NaN()))
	write(t, o, "d", value.Double(math.NaN()))
	assert.Equal(t, 2, count, "NaN is bit-equal to itself")

	write(t, o, "d", value.Double(math.Copysign(0, -1)))
	write(t, o, "d", value.Double(0))
	assert.Equal(t, 4, count, "signed zeros differ")

	write(t, o, "obj", value.Object(other))
	write(t, o, "obj", value.Object(other))
	assert.Equal(t, 5, count)
	write(t, o, "obj", value.Null)
	assert.Equal(t, 6, count)

	stopObj()
	write(t, o, "obj", value.Object(other))
	assert.Equal(t, 6, count)
}

func TestWriteUndefined(t *testing.T) {
	e, _ := newEngine(t)
	o := e.NewObject("Item", "o",
		prop("plain", value.TypeInt),
		reactive.PropertyDef{Name: "resettable", Type: value.TypeString, Default: value.String("initial"), Resettable: true},
	)

	assert.ErrorIs(t, o.Write("plain", value.Undefined), reactive.ErrUndefinedAssignment)

	write(t, o, "resettable", value.String("changed"))
	write(t, o, "resettable", value.Undefined)
	assert.Equal(t, "initial", read(t, o, "resettable").StringValue())

	write(t, o, "resettable", value.String("again"))
	require.NoError(t, o.Reset("resettable"))
	assert.Equal(t, "initial", read(t, o, "resettable").StringValue())

	assert.ErrorIs(t, o.Write("missing", value.Int(1)), reactive.ErrPropertyNotFound)
}

func TestUserMetaType(t *testing.T) {
	type point struct{ X, Y float64 }
	pointType, err := value.Register(value.TypeDef{
		Name:  "test.point",
		Zero:  func() any { return point{} },
		Equal: func(a, b any) bool { return a.(point) == b.(point) },
		Convert: func(x any) (any, bool) {
			switch x := x.(type) {
			case point:
				return x, true
			case string:
				var p point
				if x == "origin" {
					return p, true
				}
			}
			return nil, false
		},
		ToValue: func(x any) value.Value { return value.Object(x) },
	})
	require.NoError(t, err)

	e, _ := newEngine(t)
	o := e.NewObject("Item", "o", reactive.PropertyDef{Name: "pos", Type: pointType, Default: value.Object(point{1, 2})})
	assert.Equal(t, point{1, 2}, read(t, o, "pos").Ref())

	changes := 0
	_, err = o.Watch("pos", func(value.Value) { changes++ })
	require.NoError(t, err)

	write(t, o, "pos", value.Object(point{1, 2}))
	assert.Zero(t, changes)
	write(t, o, "pos", value.String("origin"))
	assert.Equal(t, 1, changes)
	assert.Equal(t, point{}, read(t, o, "pos").Ref())
	assert.ErrorIs(t, o.Write("pos", value.Int(3)), reactive.ErrTypeCoercion)
}
