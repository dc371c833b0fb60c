package value

import (
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/peakflow/internal/logger"
)

// Equal reports whether v and other carry the same kind and payload. Values of
// different kinds never compare equal; the mismatch is logged.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		logMismatch("equal", v.kind, other.kind)
		return false
	}
	switch v.kind {
	case Unset:
		return true
	case Bool, Int, Long, Float, String:
		return v.data == other.data
	case BoolList:
		return slices.Equal(v.data.([]bool), other.data.([]bool))
	case IntList:
		return slices.Equal(v.data.([]int), other.data.([]int))
	case LongList:
		return slices.Equal(v.data.([]int64), other.data.([]int64))
	case FloatList:
		return slices.Equal(v.data.([]float64), other.data.([]float64))
	case StringList:
		return slices.Equal(v.data.([]string), other.data.([]string))
	}
	return false
}

// Less orders two scalars of the same kind. false < true for booleans.
// Mismatched kinds, Unset, and lists are unordered and return false.
func (v Value) Less(other Value) bool {
	return v.less(other, false)
}

// LessFold is Less with case-insensitive string ordering.
func (v Value) LessFold(other Value) bool {
	return v.less(other, true)
}

func (v Value) less(other Value, fold bool) bool {
	if v.kind != other.kind {
		logMismatch("less", v.kind, other.kind)
		return false
	}
	switch v.kind {
	case Bool:
		return !v.data.(bool) && other.data.(bool)
	case Int:
		return v.data.(int) < other.data.(int)
	case Long:
		return v.data.(int64) < other.data.(int64)
	case Float:
		return v.data.(float64) < other.data.(float64)
	case String:
		a, b := v.data.(string), other.data.(string)
		if fold {
			return strings.ToLower(a) < strings.ToLower(b)
		}
		return a < b
	case Unset:
		return false
	}
	logger.Default().
		WithFields(map[string]any{"component": "value", "kind": v.kind.String()}).
		Warn("ordering is not defined for list values")
	return false
}

func logMismatch(op string, left, right Kind) {
	logger.Default().WithFields(map[string]any{
		"component": "value",
		"op":        op,
		"left":      left.String(),
		"right":     right.String(),
	}).Warn("comparing values of different kinds")
}
