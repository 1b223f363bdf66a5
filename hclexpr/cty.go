package hclexpr

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/delaneyj/propbind/value"
)

// FromCty converts an HCL literal into a host value. null becomes undefined.
func FromCty(v cty.Value) (value.Value, error) {
	if v.IsNull() {
		return value.Undefined, nil
	}
	if !v.IsKnown() {
		return value.Undefined, fmt.Errorf("unknown value of type %s", v.Type().FriendlyName())
	}

	switch ty := v.Type(); {
	case ty == cty.String:
		return value.String(v.AsString()), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return value.Undefined, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return value.Number(f), nil

	case ty == cty.Bool:
		return value.Bool(v.True()), nil

	default:
		return value.Undefined, fmt.Errorf("unsupported literal type %s", ty.FriendlyName())
	}
}

// ToCty converts a host value into an HCL value. Object references have no
// HCL form and are rendered as their string.
func ToCty(v value.Value) cty.Value {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return cty.NullVal(cty.DynamicPseudoType)
	case value.KindBool:
		return cty.BoolVal(v.BoolValue())
	case value.KindInt:
		return cty.NumberIntVal(int64(v.IntValue()))
	case value.KindDouble:
		d := v.AsDouble()
		if math.IsNaN(d) {
			return cty.StringVal("NaN")
		}
		return cty.NumberFloatVal(d)
	default:
		return cty.StringVal(v.ToString())
	}
}
