package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

type TypeID uint16

const (
	InvalidID TypeID = iota
	BoolID
	IntID
	DoubleID
	FloatID
	StringID
	VarID
	ObjectID

	firstUserID TypeID = 64
)

// TypeDef describes a storage type. Convert receives a variant (see
// Value.Variant) and returns the exact Go value stored for the type.
type TypeDef struct {
	Name    string
	Zero    func() any
	Equal   func(a, b any) bool
	Convert func(variant any) (any, bool)
	ToValue func(stored any) Value
}

// MetaType is the static type tag of a property's storage.
type MetaType struct {
	id  TypeID
	def TypeDef
}

func (t *MetaType) ID() TypeID     { return t.id }
func (t *MetaType) Name() string   { return t.def.Name }
func (t *MetaType) String() string { return t.def.Name }
func (t *MetaType) Zero() any      { return t.def.Zero() }

func (t *MetaType) Equal(a, b any) bool {
	return t.def.Equal(a, b)
}

func (t *MetaType) Convert(variant any) (any, bool) {
	return t.def.Convert(variant)
}

func (t *MetaType) ToValue(stored any) Value {
	return t.def.ToValue(stored)
}

var (
	TypeBool = &MetaType{id: BoolID, def: TypeDef{
		Name:    "bool",
		Zero:    func() any { return false },
		Equal:   func(a, b any) bool { return a.(bool) == b.(bool) },
		Convert: convertBool,
		ToValue: func(x any) Value { return Bool(x.(bool)) },
	}}

	TypeInt = &MetaType{id: IntID, def: TypeDef{
		Name:    "int",
		Zero:    func() any { return int32(0) },
		Equal:   func(a, b any) bool { return a.(int32) == b.(int32) },
		Convert: convertInt,
		ToValue: func(x any) Value { return Int(x.(int32)) },
	}}

	TypeDouble = &MetaType{id: DoubleID, def: TypeDef{
		Name: "double",
		Zero: func() any { return float64(0) },
		Equal: func(a, b any) bool {
			return math.Float64bits(a.(float64)) == math.Float64bits(b.(float64))
		},
		Convert: convertDouble,
		ToValue: func(x any) Value { return Double(x.(float64)) },
	}}

	TypeFloat = &MetaType{id: FloatID, def: TypeDef{
		Name: "float",
		Zero: func() any { return float32(0) },
		Equal: func(a, b any) bool {
			return math.Float32bits(a.(float32)) == math.Float32bits(b.(float32))
		},
		Convert: func(x any) (any, bool) {
			d, ok := convertDouble(x)
			if !ok {
				return nil, false
			}
			return float32(d.(float64)), true
		},
		ToValue: func(x any) Value { return Double(float64(x.(float32))) },
	}}

	TypeString = &MetaType{id: StringID, def: TypeDef{
		Name:    "string",
		Zero:    func() any { return "" },
		Equal:   func(a, b any) bool { return a.(string) == b.(string) },
		Convert: convertString,
		ToValue: func(x any) Value { return String(x.(string)) },
	}}

	// TypeVar stores any host value as-is.
	TypeVar = &MetaType{id: VarID, def: TypeDef{
		Name:    "var",
		Zero:    func() any { return Undefined },
		Equal:   func(a, b any) bool { return sameVar(a.(Value), b.(Value)) },
		Convert: func(x any) (any, bool) { return FromVariant(x), true },
		ToValue: func(x any) Value { return x.(Value) },
	}}

	// TypeObject stores an object reference or nil.
	TypeObject = &MetaType{id: ObjectID, def: TypeDef{
		Name:    "object",
		Zero:    func() any { return nil },
		Equal:   func(a, b any) bool { return a == b },
		Convert: convertObject,
		ToValue: func(x any) Value { return Object(x) },
	}}
)

var registry = struct {
	sync.RWMutex
	byName map[string]*MetaType
	nextID TypeID
}{
	byName: map[string]*MetaType{
		"bool":   TypeBool,
		"int":    TypeInt,
		"double": TypeDouble,
		"real":   TypeDouble,
		"float":  TypeFloat,
		"string": TypeString,
		"var":    TypeVar,
		"object": TypeObject,
	},
	nextID: firstUserID,
}

// Register adds a user storage type. Registering a name twice fails.
func Register(def TypeDef) (*MetaType, error) {
	if def.Name == "" || def.Zero == nil || def.Equal == nil || def.Convert == nil || def.ToValue == nil {
		return nil, fmt.Errorf("register type %q: incomplete definition", def.Name)
	}
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.byName[def.Name]; ok {
		return nil, fmt.Errorf("register type %q: already registered", def.Name)
	}
	t := &MetaType{id: registry.nextID, def: def}
	registry.nextID++
	registry.byName[def.Name] = t
	return t, nil
}

func Lookup(name string) (*MetaType, bool) {
	registry.RLock()
	defer registry.RUnlock()
	t, ok := registry.byName[name]
	return t, ok
}

func sameVar(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.AsDouble(), b.AsDouble()
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	}
	return StrictEquals(a, b)
}

func convertBool(x any) (any, bool) {
	switch x := x.(type) {
	case bool:
		return x, true
	case int32:
		return x != 0, true
	case float64:
		return x != 0 && !math.IsNaN(x), true
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		return !(s == "" || s == "0" || s == "false"), true
	default:
		return nil, false
	}
}

func convertInt(x any) (any, bool) {
	switch x := x.(type) {
	case bool:
		if x {
			return int32(1), true
		}
		return int32(0), true
	case int32:
		return x, true
	case float64:
		return ToInt32(x), true
	case float32:
		return ToInt32(float64(x)), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 32)
		if err != nil {
			return nil, false
		}
		return int32(i), true
	default:
		return nil, false
	}
}

func convertDouble(x any) (any, bool) {
	switch x := x.(type) {
	case bool:
		if x {
			return float64(1), true
		}
		return float64(0), true
	case int32:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		d, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, false
		}
		return d, true
	default:
		return nil, false
	}
}

func convertString(x any) (any, bool) {
	switch x := x.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int32:
		return strconv.Itoa(int(x)), true
	case float64:
		return FormatNumber(x), true
	case float32:
		return FormatNumber(float64(x)), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return nil, false
	}
}

func convertObject(x any) (any, bool) {
	switch x.(type) {
	case nil:
		return nil, true
	case bool, int32, float64, float32, string:
		return nil, false
	}
	if !reflect.TypeOf(x).Comparable() {
		return nil, false
	}
	return x, true
}
