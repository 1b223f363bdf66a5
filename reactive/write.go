package reactive

import (
	"github.com/delaneyj/propbind/value"
)

// coerce converts a host value into the exact storage form of t. The
// primitive destinations take their fast branch first and fall through to
// the type's variant conversion when the source does not fit.
func coerce(t *value.MetaType, v value.Value) (any, bool) {
	switch t.ID() {
	case value.BoolID:
		if v.IsBool() {
			return v.BoolValue(), true
		}
		return v.ToBoolean(), true
	case value.IntID:
		if v.IsInteger() {
			return v.IntValue(), true
		}
		if v.IsNumber() {
			return value.ToInt32(v.AsDouble()), true
		}
	case value.DoubleID:
		if v.IsNumber() {
			return v.AsDouble(), true
		}
	case value.FloatID:
		if v.IsNumber() {
			return float32(v.AsDouble()), true
		}
	case value.StringID:
		if v.IsString() {
			return v.StringValue(), true
		}
	case value.VarID:
		return v, true
	}
	return t.Convert(v.Variant())
}

// write stores v and reports whether the stored value changed. ok is false
// when v cannot be converted, in which case the storage is untouched.
func (s *Slot) write(v value.Value) (changed, ok bool) {
	x, ok := coerce(s.def.Type, v)
	if !ok {
		return false, false
	}
	return s.commit(x), true
}

// commit replaces the storage with x unless the type considers them equal.
func (s *Slot) commit(x any) bool {
	if s.def.Type.Equal(s.storage, x) {
		return false
	}
	s.storage = x
	return true
}
