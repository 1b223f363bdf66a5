package value_test

import (
	"math"
	"testing"

	"github.com/delaneyj/propbind/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberNormalizes(t *testing.T) {
	assert.True(t, value.Number(3).IsInteger())
	assert.False(t, value.Number(3.5).IsInteger())
	assert.False(t, value.Number(math.Copysign(0, -1)).IsInteger())
	assert.False(t, value.Number(1e10).IsInteger())
	assert.True(t, value.Number(math.MinInt32).IsInteger())
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		in   value.Value
		want bool
	}{
		{value.Undefined, false},
		{value.Null, false},
		{value.Bool(false), false},
		{value.Int(0), false},
		{value.Int(-1), true},
		{value.Double(math.NaN()), false},
		{value.Double(0.1), true},
		{value.String(""), false},
		{value.String("false"), true},
		{value.Object(struct{}{}), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.ToBoolean(), "%v", tt.in)
	}
}

func TestToNumberAndString(t *testing.T) {
	assert.Equal(t, 0.0, value.Null.ToNumber())
	assert.True(t, math.IsNaN(value.Undefined.ToNumber()))
	assert.Equal(t, 1.0, value.Bool(true).ToNumber())
	assert.Equal(t, 42.5, value.String(" 42.5 ").ToNumber())
	assert.True(t, math.IsNaN(value.String("abc").ToNumber()))

	assert.Equal(t, "undefined", value.Undefined.ToString())
	assert.Equal(t, "null", value.Null.ToString())
	assert.Equal(t, "3", value.Int(3).ToString())
	assert.Equal(t, `"x"`, value.String("x").String())
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		0:             "0",
		1.5:           "1.5",
		-2:            "-2",
		1e21:          "1e+21",
		1e-7:          "1e-7",
		123456789:     "123456789",
		math.Inf(1):   "Infinity",
		math.Inf(-1):  "-Infinity",
		0.000001:      "0.000001",
		1.2345678e-10: "1.2345678e-10",
	}
	for in, want := range tests {
		assert.Equal(t, want, value.FormatNumber(in))
	}
	assert.Equal(t, "NaN", value.FormatNumber(math.NaN()))
}

func TestToInt32(t *testing.T) {
	assert.Equal(t, int32(3), value.ToInt32(3.99))
	assert.Equal(t, int32(-3), value.ToInt32(-3.99))
	assert.Equal(t, int32(0), value.ToInt32(math.NaN()))
	assert.Equal(t, int32(math.MinInt32), value.ToInt32(math.Inf(1)))
	assert.Equal(t, int32(math.MinInt32), value.ToInt32(3e9))
	assert.Equal(t, int32(math.MaxInt32), value.ToInt32(math.MaxInt32))
}

func TestStrictEquals(t *testing.T) {
	ref := &struct{ n int }{1}
	assert.True(t, value.StrictEquals(value.Int(1), value.Double(1)))
	assert.False(t, value.StrictEquals(value.Double(math.NaN()), value.Double(math.NaN())))
	assert.False(t, value.StrictEquals(value.Int(1), value.String("1")))
	assert.True(t, value.StrictEquals(value.Null, value.Null))
	assert.False(t, value.StrictEquals(value.Null, value.Undefined))
	assert.True(t, value.StrictEquals(value.Object(ref), value.Object(ref)))
}

func TestVariantRoundTrip(t *testing.T) {
	for _, v := range []value.Value{value.Bool(true), value.Int(4), value.Double(4.5), value.String("s")} {
		assert.Equal(t, v, value.FromVariant(v.Variant()))
	}
	assert.True(t, value.FromVariant(nil).IsNull())
	assert.True(t, value.FromVariant(7).IsInteger())
}

func TestMetaTypes(t *testing.T) {
	for _, name := range []string{"bool", "int", "double", "real", "float", "string", "var", "object"} {
		_, ok := value.Lookup(name)
		assert.True(t, ok, name)
	}
	double, _ := value.Lookup("real")
	assert.Same(t, value.TypeDouble, double)

	x, ok := value.TypeBool.Convert("false")
	require.True(t, ok)
	assert.Equal(t, false, x)

	x, ok = value.TypeInt.Convert(" 17 ")
	require.True(t, ok)
	assert.Equal(t, int32(17), x)

	_, ok = value.TypeObject.Convert([]int{1})
	assert.False(t, ok, "uncomparable references are rejected")

	assert.True(t, value.TypeVar.Equal(value.Double(math.NaN()), value.Double(math.NaN())))
	assert.False(t, value.TypeDouble.Equal(0.0, math.Copysign(0, -1)))

	_, err := value.Register(value.TypeDef{Name: "int"})
	assert.Error(t, err)
}
