package value

import (
	"fmt"
	"math"
)

// Convert returns v as the requested kind. Only lossless widening is allowed:
// Int to Long or Float, Long to Float, and the element-wise equivalents for
// lists. Converting to the current kind returns a clone.
func Convert(v Value, kind Kind) (Value, error) {
	if v.kind == kind {
		return v.Clone(), nil
	}

	switch {
	case v.kind == Int && kind == Long:
		return Of(int64(v.data.(int))), nil
	case v.kind == Int && kind == Float:
		return Of(float64(v.data.(int))), nil
	case v.kind == Long && kind == Float:
		return Of(float64(v.data.(int64))), nil
	case v.kind == IntList && kind == LongList:
		return Of(mapSlice(v.data.([]int), func(i int) int64 { return int64(i) })), nil
	case v.kind == IntList && kind == FloatList:
		return Of(mapSlice(v.data.([]int), func(i int) float64 { return float64(i) })), nil
	case v.kind == LongList && kind == FloatList:
		return Of(mapSlice(v.data.([]int64), func(i int64) float64 { return float64(i) })), nil
	}
	return Value{}, fmt.Errorf("cannot convert %s to %s", v.kind, kind)
}

// FromAny builds a Value from a decoded YAML or TOML scalar or sequence.
// Sequences must be homogeneous; integer sequences that mix with floats
// become FloatList. nil yields Unset.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t.Clone(), nil
	case bool:
		return Of(t), nil
	case int:
		return fromInt64(int64(t)), nil
	case int32:
		return Of(int(t)), nil
	case int64:
		return fromInt64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return Of(float64(t)), nil
		}
		return fromInt64(int64(t)), nil
	case float32:
		return Of(float64(t)), nil
	case float64:
		return Of(t), nil
	case string:
		return Of(t), nil
	case []bool:
		return Of(t), nil
	case []int:
		return Of(t), nil
	case []int64:
		return Of(t), nil
	case []float64:
		return Of(t), nil
	case []string:
		return Of(t), nil
	case []any:
		return fromSequence(t)
	}
	return Value{}, fmt.Errorf("unsupported value type %T", x)
}

func fromInt64(n int64) Value {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return Of(n)
	}
	return Of(int(n))
}

func fromSequence(items []any) (Value, error) {
	if len(items) == 0 {
		return Of([]string{}), nil
	}

	elems := make([]Value, len(items))
	for i, item := range items {
		v, err := FromAny(item)
		if err != nil {
			return Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		if v.kind.IsList() || v.kind == Unset {
			return Value{}, fmt.Errorf("element %d: nested or empty elements are not supported", i)
		}
		elems[i] = v
	}

	target := elems[0].kind
	for _, e := range elems[1:] {
		target = widest(target, e.kind)
		if target == Unset {
			return Value{}, fmt.Errorf("sequence mixes %s and %s elements", elems[0].kind, e.kind)
		}
	}

	switch target {
	case Bool:
		return Of(mapSlice(elems, func(v Value) bool { return v.data.(bool) })), nil
	case Int:
		return Of(mapSlice(elems, func(v Value) int { return v.data.(int) })), nil
	case String:
		return Of(mapSlice(elems, func(v Value) string { return v.data.(string) })), nil
	case Long, Float:
		converted := make([]Value, len(elems))
		for i, e := range elems {
			c, err := Convert(e, target)
			if err != nil {
				return Value{}, err
			}
			converted[i] = c
		}
		if target == Long {
			return Of(mapSlice(converted, func(v Value) int64 { return v.data.(int64) })), nil
		}
		return Of(mapSlice(converted, func(v Value) float64 { return v.data.(float64) })), nil
	}
	return Value{}, fmt.Errorf("unsupported sequence element kind %s", target)
}

// widest returns the common kind two scalar kinds widen to, or Unset.
func widest(a, b Kind) Kind {
	if a == b {
		return a
	}
	numeric := func(k Kind) bool { return k == Int || k == Long || k == Float }
	if !numeric(a) || !numeric(b) {
		return Unset
	}
	return max(a, b)
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
