package value

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reInt       = regexp.MustCompile(`^[+-]?\d+$`)
	reFloat     = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?$`)
	reBool      = regexp.MustCompile(`(?i)^(?:true|false)$`)
	reIntList   = regexp.MustCompile(`^[+-]?\d+(?:,[+-]?\d+)*$`)
	reFloatList = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?(?:,[+-]?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)*$`)
	reBoolList  = regexp.MustCompile(`(?i)^(?:true|false)(?:,(?:true|false))*$`)
	reQuoted    = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
)

// Parse infers a Value from its textual form. Surrounding spaces are ignored.
// Candidates are tried in order: integer, float, boolean, bracketed list,
// quoted string, and finally the raw text as a string. Integers that do not
// fit in 32 bits become Long. A quoted string is unwrapped as-is and its
// contents are not parsed again, so "42" in quotes stays the string 42. Quote
// a value to force it to be a string.
func Parse(raw string) Value {
	trimmed := strings.TrimSpace(raw)

	var out Value
	switch {
	case reInt.MatchString(trimmed):
		out = parseInteger(trimmed)
	case reFloat.MatchString(trimmed):
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			out.SetString(trimmed)
			break
		}
		out.SetFloat(f)
	case reBool.MatchString(trimmed):
		out.SetBool(strings.EqualFold(trimmed, "true"))
	case len(trimmed) >= 2 && trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']':
		out = parseList(trimmed)
	case len(trimmed) >= 2 && trimmed[0] == trimmed[len(trimmed)-1] && (trimmed[0] == '"' || trimmed[0] == '\''):
		out.SetString(trimmed[1 : len(trimmed)-1])
	default:
		out.SetString(trimmed)
	}
	return out
}

func parseInteger(text string) Value {
	var out Value
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// Beyond int64: keep the magnitude as a float rather than failing.
		f, _ := strconv.ParseFloat(text, 64)
		out.SetFloat(f)
		return out
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		out.SetLong(n)
		return out
	}
	out.SetInt(int(n))
	return out
}

func parseList(trimmed string) Value {
	inner := trimmed[1 : len(trimmed)-1]
	stripped := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, inner)

	var out Value
	switch {
	case reIntList.MatchString(stripped):
		items := strings.Split(stripped, ",")
		ints := make([]int, 0, len(items))
		longs := make([]int64, 0, len(items))
		wide := false
		for _, item := range items {
			n, err := strconv.ParseInt(item, 10, 64)
			if err != nil {
				return parseFloatList(items)
			}
			if n < math.MinInt32 || n > math.MaxInt32 {
				wide = true
			}
			ints = append(ints, int(n))
			longs = append(longs, n)
		}
		if wide {
			out.SetLongList(longs)
		} else {
			out.SetIntList(ints)
		}
	case reFloatList.MatchString(stripped):
		return parseFloatList(strings.Split(stripped, ","))
	case reBoolList.MatchString(stripped):
		items := strings.Split(stripped, ",")
		bools := make([]bool, len(items))
		for i, item := range items {
			bools[i] = strings.EqualFold(item, "true")
		}
		out.SetBoolList(bools)
	default:
		matches := reQuoted.FindAllStringSubmatch(inner, -1)
		if len(matches) == 0 {
			out.SetStringList(splitBare(inner))
			break
		}
		strs := make([]string, 0, len(matches))
		for _, m := range matches {
			if strings.HasPrefix(m[0], `"`) {
				strs = append(strs, m[1])
			} else {
				strs = append(strs, m[2])
			}
		}
		out.SetStringList(strs)
	}
	return out
}

func parseFloatList(items []string) Value {
	floats := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return Of(items)
		}
		floats = append(floats, f)
	}
	return Of(floats)
}

// splitBare handles unquoted string lists such as [a, b].
func splitBare(inner string) []string {
	if strings.TrimSpace(inner) == "" {
		return []string{}
	}
	parts := strings.Split(inner, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
