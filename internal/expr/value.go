// Package expr implements the expression and template language used in
// rule definitions: ${...} placeholder interpolation with helper chains,
// and a small boolean expression grammar evaluated against a decoded
// JSON payload. The package is pure, no I/O and no side effects, so
// evaluation is a function of (expression, value, payload, store).
//
// Values follow the encoding/json mapping: nil, bool, float64, string,
// map[string]any and []any. A distinct Undefined sentinel marks missing
// payload paths so that "absent" and "JSON null" stay distinguishable.
package expr

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type undefinedType struct{}

// Undefined is the result of looking up a path that does not exist in
// the payload. It renders as the empty string in templates and as
// "undefined" in comparisons.
var Undefined undefinedType

// IsUndefined reports whether v is the missing-value sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}

// Normalize converts string values that look like booleans or numbers
// into their typed form: "true"/"false" become bool, numeric strings
// become float64. Everything else passes through unchanged. Equality in
// the expression language and dependency checks compare normalized
// values, so a store holding "true" satisfies a dependency declaring
// state true.
func Normalize(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if s == "" {
		return s
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return v
}

// Stringify renders a value the way the comparison rules expect:
// undefined → "undefined", null → "null", booleans and numbers in their
// canonical form, objects and arrays as their JSON text.
func Stringify(v any) string {
	switch t := v.(type) {
	case undefinedType:
		return "undefined"
	case nil:
		return "null"
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return FormatNumber(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Render is the template flavor of Stringify: missing values and JSON
// null become the empty string instead of "undefined"/"null".
func Render(v any) string {
	switch v.(type) {
	case undefinedType, nil:
		return ""
	}
	return Stringify(v)
}

// FormatNumber formats a float the way JSON does: integral values
// without a decimal point, everything else in the shortest round-trip
// representation.
func FormatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy implements the boolean cast used by ! and by condition
// results: non-empty strings are true, zero and NaN are false, null and
// undefined are false, objects and arrays are true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case undefinedType, nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// numericOperand reports whether v participates in numeric ordering:
// finite numbers and numeric strings qualify; booleans, null, undefined
// and the empty string force the lexicographic branch.
func numericOperand(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case string:
		if t == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

// Equal compares two values under normalization: both sides are
// normalized, then compared by their stringified forms.
func Equal(a, b any) bool {
	return Stringify(Normalize(a)) == Stringify(Normalize(b))
}

// Compare orders two values for the relational operators. Numeric when
// both sides qualify, otherwise lexicographic on the stringified forms.
// Returns -1, 0 or 1.
func Compare(a, b any) int {
	fa, aok := numericOperand(a)
	fb, bok := numericOperand(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	sa, sb := Stringify(a), Stringify(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

// ToNumber coerces a value to float64 for the numeric helpers. The
// second return is false when the value has no numeric reading.
func ToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		if t == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
