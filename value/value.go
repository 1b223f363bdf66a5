package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindDouble
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a dynamically typed host value, the result of evaluating an
// expression. The zero Value is undefined.
type Value struct {
	kind Kind
	b    bool
	i    int32
	d    float64
	s    string
	ref  any
}

var (
	Undefined = Value{}
	Null      = Value{kind: KindNull}
)

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func Int(i int32) Value {
	return Value{kind: KindInt, i: i}
}

func Double(d float64) Value {
	return Value{kind: KindDouble, d: d}
}

// Number returns an integer value when d is integral and fits in 32 bits,
// otherwise a double.
func Number(d float64) Value {
	if d == math.Trunc(d) && d >= math.MinInt32 && d <= math.MaxInt32 && !(d == 0 && math.Signbit(d)) {
		return Int(int32(d))
	}
	return Double(d)
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Object wraps a host object reference. A nil reference is null.
func Object(ref any) Value {
	if ref == nil {
		return Null
	}
	return Value{kind: KindObject, ref: ref}
}

func (v Value) Kind() Kind          { return v.kind }
func (v Value) IsUndefined() bool   { return v.kind == KindUndefined }
func (v Value) IsNull() bool        { return v.kind == KindNull }
func (v Value) IsNullish() bool     { return v.kind == KindUndefined || v.kind == KindNull }
func (v Value) IsBool() bool        { return v.kind == KindBool }
func (v Value) IsInteger() bool     { return v.kind == KindInt }
func (v Value) IsNumber() bool      { return v.kind == KindInt || v.kind == KindDouble }
func (v Value) IsString() bool      { return v.kind == KindString }
func (v Value) IsObject() bool      { return v.kind == KindObject }
func (v Value) BoolValue() bool     { return v.b }
func (v Value) IntValue() int32     { return v.i }
func (v Value) StringValue() string { return v.s }
func (v Value) Ref() any            { return v.ref }

// AsDouble returns the numeric value of an int or double.
func (v Value) AsDouble() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.d
}

// ToBoolean applies host truthiness.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindDouble:
		return v.d != 0 && !math.IsNaN(v.d)
	case KindString:
		return v.s != ""
	case KindObject:
		return true
	default:
		return false
	}
}

func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindInt:
		return float64(v.i)
	case KindDouble:
		return v.d
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return 0
		}
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return d
	default:
		return math.NaN()
	}
}

func (v Value) ToString() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.Itoa(int(v.i))
	case KindDouble:
		return FormatNumber(v.d)
	case KindString:
		return v.s
	default:
		if s, ok := v.ref.(fmt.Stringer); ok {
			return s.String()
		}
		return "[object Object]"
	}
}

func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.ToString()
}

// Variant converts the value into its generic Go form: nil, bool, int32,
// float64, string or the object reference.
func (v Value) Variant() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.d
	case KindString:
		return v.s
	case KindObject:
		return v.ref
	default:
		return nil
	}
}

// FromVariant is the inverse of Variant for the common Go scalar types.
func FromVariant(x any) Value {
	switch x := x.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return Bool(x)
	case int32:
		return Int(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case float32:
		return Double(float64(x))
	case float64:
		return Double(x)
	case string:
		return String(x)
	default:
		return Object(x)
	}
}

// StrictEquals compares without type coercion, except that ints and doubles
// compare numerically. NaN is never equal to itself.
func StrictEquals(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.AsDouble() == b.AsDouble()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	default:
		return a.ref == b.ref
	}
}

// FormatNumber renders a double the way the host language prints numbers.
func FormatNumber(d float64) string {
	switch {
	case math.IsNaN(d):
		return "NaN"
	case math.IsInf(d, 1):
		return "Infinity"
	case math.IsInf(d, -1):
		return "-Infinity"
	case d == 0:
		return "0"
	}
	if abs := math.Abs(d); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(d, 'f', -1, 64)
	}
	s := strconv.FormatFloat(d, 'g', -1, 64)
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		mant, exp := s[:i], s[i+1:]
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		s = mant + "e" + sign + digits
	}
	return s
}

// ToInt32 truncates toward zero. NaN becomes 0; values outside the int32
// range become math.MinInt32, the integer-indefinite result of the hardware
// conversion.
func ToInt32(d float64) int32 {
	if math.IsNaN(d) {
		return 0
	}
	t := math.Trunc(d)
	if t < math.MinInt32 || t > math.MaxInt32 {
		return math.MinInt32
	}
	return int32(t)
}
