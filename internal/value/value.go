// Package value implements the tagged value used to carry heterogeneous
// parameters and per-entity overrides between the engine and methods.
//
// A Value holds exactly one payload whose Go type always matches its Kind.
// Setters replace tag and payload together, and accessors check the tag
// before touching the payload.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the active payload of a Value.
type Kind int

const (
	Unset Kind = iota
	Bool
	Int
	Long
	Float
	String
	BoolList
	IntList
	LongList
	FloatList
	StringList
)

var kindNames = map[Kind]string{
	Unset:      "unset",
	Bool:       "bool",
	Int:        "int",
	Long:       "long",
	Float:      "float",
	String:     "string",
	BoolList:   "bool_list",
	IntList:    "int_list",
	LongList:   "long_list",
	FloatList:  "float_list",
	StringList: "string_list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsList reports whether the kind carries a homogeneous list payload.
func (k Kind) IsList() bool {
	return k >= BoolList && k <= StringList
}

// ParseKind maps a schema type name such as "int" or "string_list" to a Kind.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for kind, candidate := range kindNames {
		if candidate == normalized {
			return kind, nil
		}
	}
	return Unset, fmt.Errorf("unknown value kind %q", name)
}

// Value is a tagged union over scalars and homogeneous lists. The zero value
// is Unset.
type Value struct {
	kind Kind
	data any
}

// Of wraps a Go value in a Value of the matching kind.
func Of[T bool | int | int64 | float64 | string | []bool | []int | []int64 | []float64 | []string](v T) Value {
	var out Value
	switch x := any(v).(type) {
	case bool:
		out.SetBool(x)
	case int:
		out.SetInt(x)
	case int64:
		out.SetLong(x)
	case float64:
		out.SetFloat(x)
	case string:
		out.SetString(x)
	case []bool:
		out.SetBoolList(x)
	case []int:
		out.SetIntList(x)
	case []int64:
		out.SetLongList(x)
	case []float64:
		out.SetFloatList(x)
	case []string:
		out.SetStringList(x)
	}
	return out
}

// Kind returns the active tag.
func (v Value) Kind() Kind { return v.kind }

// IsSet reports whether a payload is active.
func (v Value) IsSet() bool { return v.kind != Unset }

func (v *Value) set(kind Kind, data any) {
	*v = Value{kind: kind, data: data}
}

// Clear releases the payload and resets the tag to Unset.
func (v *Value) Clear() { v.set(Unset, nil) }

// SetBool replaces the payload with b.
func (v *Value) SetBool(b bool) { v.set(Bool, b) }

// SetInt replaces the payload with i.
func (v *Value) SetInt(i int) { v.set(Int, i) }

// SetLong replaces the payload with i.
func (v *Value) SetLong(i int64) { v.set(Long, i) }

// SetFloat replaces the payload with f.
func (v *Value) SetFloat(f float64) { v.set(Float, f) }

// SetString replaces the payload with s.
func (v *Value) SetString(s string) { v.set(String, s) }

// SetBoolList replaces the payload with a copy of l.
func (v *Value) SetBoolList(l []bool) { v.set(BoolList, append([]bool{}, l...)) }

// SetIntList replaces the payload with a copy of l.
func (v *Value) SetIntList(l []int) { v.set(IntList, append([]int{}, l...)) }

// SetLongList replaces the payload with a copy of l.
func (v *Value) SetLongList(l []int64) { v.set(LongList, append([]int64{}, l...)) }

// SetFloatList replaces the payload with a copy of l.
func (v *Value) SetFloatList(l []float64) { v.set(FloatList, append([]float64{}, l...)) }

// SetStringList replaces the payload with a copy of l.
func (v *Value) SetStringList(l []string) { v.set(StringList, append([]string{}, l...)) }

// Bool returns the payload when the tag is Bool.
func (v Value) Bool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.data.(bool), true
}

// Int returns the payload when the tag is Int.
func (v Value) Int() (int, bool) {
	if v.kind != Int {
		return 0, false
	}
	return v.data.(int), true
}

// Long returns the payload when the tag is Long.
func (v Value) Long() (int64, bool) {
	if v.kind != Long {
		return 0, false
	}
	return v.data.(int64), true
}

// Float returns the payload when the tag is Float.
func (v Value) Float() (float64, bool) {
	if v.kind != Float {
		return 0, false
	}
	return v.data.(float64), true
}

// Str returns the payload when the tag is String.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.data.(string), true
}

// BoolList returns a copy of the payload when the tag is BoolList.
func (v Value) BoolList() ([]bool, bool) {
	if v.kind != BoolList {
		return nil, false
	}
	return append([]bool{}, v.data.([]bool)...), true
}

// IntList returns a copy of the payload when the tag is IntList.
func (v Value) IntList() ([]int, bool) {
	if v.kind != IntList {
		return nil, false
	}
	return append([]int{}, v.data.([]int)...), true
}

// LongList returns a copy of the payload when the tag is LongList.
func (v Value) LongList() ([]int64, bool) {
	if v.kind != LongList {
		return nil, false
	}
	return append([]int64{}, v.data.([]int64)...), true
}

// FloatList returns a copy of the payload when the tag is FloatList.
func (v Value) FloatList() ([]float64, bool) {
	if v.kind != FloatList {
		return nil, false
	}
	return append([]float64{}, v.data.([]float64)...), true
}

// StringList returns a copy of the payload when the tag is StringList.
func (v Value) StringList() ([]string, bool) {
	if v.kind != StringList {
		return nil, false
	}
	return append([]string{}, v.data.([]string)...), true
}

// Len returns the number of list elements, or zero for scalars.
func (v Value) Len() int {
	switch v.kind {
	case BoolList:
		return len(v.data.([]bool))
	case IntList:
		return len(v.data.([]int))
	case LongList:
		return len(v.data.([]int64))
	case FloatList:
		return len(v.data.([]float64))
	case StringList:
		return len(v.data.([]string))
	}
	return 0
}

// Clone returns a deep copy. List payloads are never shared between values.
func (v Value) Clone() Value {
	var out Value
	switch v.kind {
	case Unset:
	case Bool, Int, Long, Float, String:
		out.set(v.kind, v.data)
	case BoolList:
		out.SetBoolList(v.data.([]bool))
	case IntList:
		out.SetIntList(v.data.([]int))
	case LongList:
		out.SetLongList(v.data.([]int64))
	case FloatList:
		out.SetFloatList(v.data.([]float64))
	case StringList:
		out.SetStringList(v.data.([]string))
	}
	return out
}

// Interface returns the payload as a plain Go value, or nil when Unset.
func (v Value) Interface() any {
	return v.Clone().data
}

// String renders the value in a form Parse reads back to the same kind.
// String payloads render unquoted; use Quote for a round-trippable form.
func (v Value) String() string {
	switch v.kind {
	case Unset:
		return ""
	case Bool:
		return strconv.FormatBool(v.data.(bool))
	case Int:
		return strconv.Itoa(v.data.(int))
	case Long:
		return strconv.FormatInt(v.data.(int64), 10)
	case Float:
		return formatFloat(v.data.(float64))
	case String:
		return v.data.(string)
	case BoolList:
		return joinList(v.data.([]bool), strconv.FormatBool)
	case IntList:
		return joinList(v.data.([]int), strconv.Itoa)
	case LongList:
		return joinList(v.data.([]int64), func(i int64) string { return strconv.FormatInt(i, 10) })
	case FloatList:
		return joinList(v.data.([]float64), formatFloat)
	case StringList:
		return joinList(v.data.([]string), func(s string) string { return `"` + s + `"` })
	}
	return ""
}

// Quote renders strings wrapped in double quotes and everything else as String.
func (v Value) Quote() string {
	if s, ok := v.Str(); ok {
		return `"` + s + `"`
	}
	return v.String()
}

// formatFloat keeps a decimal point so that whole floats parse back as floats.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func joinList[T any](items []T, format func(T) string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = format(item)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
