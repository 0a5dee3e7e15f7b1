package schema

import (
	"cmp"
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

// Supported value kinds, in the order Order ranks them.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindDate
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindBool:   "boolean",
	KindNumber: "number",
	KindString: "string",
	KindDate:   "date",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a tagged union over the value kinds a Document field may hold.
// The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
	arr  []Value
	obj  any
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Array returns an array value over the given elements.
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// ValueOf classifies an arbitrary Go value. Every integer, unsigned and
// float width becomes a Number, time.Time becomes a Date, slices and arrays
// become Arrays, and maps or structs become Objects. Non-nil pointers are
// dereferenced.
func ValueOf(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case int:
		return Number(float64(val))
	case int8:
		return Number(float64(val))
	case int16:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case float32:
		return Number(float64(val))
	case float64:
		return Number(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return Number(f)
		}
		return String(val.String())
	case time.Time:
		return Date(val)
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = ValueOf(item)
		}
		return Array(items...)
	}
	return reflectValueOf(reflect.ValueOf(v))
}

func reflectValueOf(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Slice:
		if rv.IsNil() {
			return Null()
		}
		fallthrough
	case reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = ValueOf(rv.Index(i).Interface())
		}
		return Array(items...)
	default:
		return Value{kind: KindObject, obj: rv.Interface()}
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload when v is a String.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload when v is a Number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload when v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsDate returns the time payload when v is a Date.
func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == KindDate }

// AsArray returns the elements when v is an Array.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Equal is strict equality: values of different kinds are never equal, so
// the string "1" does not equal the number 1. Dates compare by instant,
// arrays element by element and objects by deep equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindDate:
		return v.t.Equal(other.t)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(v.obj, other.obj)
	}
}

// Compare orders two values of the same ordered kind (Bool, Number, String,
// Date). ok is false when the kinds differ or are not ordered.
func (v Value) Compare(other Value) (c int, ok bool) {
	if v.kind != other.kind {
		return 0, false
	}
	switch v.kind {
	case KindBool:
		return compareBool(v.b, other.b), true
	case KindNumber:
		if v.num != v.num || other.num != other.num {
			return 0, false
		}
		return cmp.Compare(v.num, other.num), true
	case KindString:
		return strings.Compare(v.str, other.str), true
	case KindDate:
		return v.t.Compare(other.t), true
	}
	return 0, false
}

// Order is a total order used for sorting. Values of different kinds are
// ranked by kind (null first); values of the same kind use their natural
// order. Objects never order against each other and report 0.
func Order(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}
	switch a.kind {
	case KindBool:
		return compareBool(a.b, b.b)
	case KindNumber:
		return cmp.Compare(a.num, b.num)
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindDate:
		return a.t.Compare(b.t)
	case KindArray:
		for i := 0; i < len(a.arr) && i < len(b.arr); i++ {
			if c := Order(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.arr), len(b.arr))
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
