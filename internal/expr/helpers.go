package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// helperFunc transforms a resolved placeholder value. Helpers never
// fail: inputs they cannot handle pass through unchanged.
type helperFunc func(v any, args []any) any

var helpers = map[string]helperFunc{
	"upper": func(v any, _ []any) any {
		return strings.ToUpper(helperString(v))
	},
	"lower": func(v any, _ []any) any {
		return strings.ToLower(helperString(v))
	},
	"trim": func(v any, _ []any) any {
		return strings.TrimSpace(helperString(v))
	},
	"len": func(v any, _ []any) any {
		return float64(len([]rune(helperString(v))))
	},
	"sub": func(v any, args []any) any {
		r := []rune(helperString(v))
		start := clampIndex(argInt(args, 0, 0), len(r))
		n := argInt(args, 1, len(r)-start)
		if n < 0 {
			n = 0
		}
		end := start + n
		if end > len(r) {
			end = len(r)
		}
		return string(r[start:end])
	},
	"slice": func(v any, args []any) any {
		r := []rune(helperString(v))
		start := sliceIndex(argInt(args, 0, 0), len(r))
		end := sliceIndex(argInt(args, 1, len(r)), len(r))
		if start > end {
			return ""
		}
		return string(r[start:end])
	},
	"cat": func(v any, args []any) any {
		return helperString(v) + argString(args, 0, "")
	},
	"padStart": func(v any, args []any) any {
		return pad(helperString(v), argInt(args, 0, 0), argString(args, 1, " "), true)
	},
	"padEnd": func(v any, args []any) any {
		return pad(helperString(v), argInt(args, 0, 0), argString(args, 1, " "), false)
	},
	"round": func(v any, args []any) any {
		f, ok := ToNumber(v)
		if !ok {
			return v
		}
		pow := math.Pow(10, float64(argInt(args, 0, 0)))
		return math.Round(f*pow) / pow
	},
	"toFixed": func(v any, args []any) any {
		f, ok := ToNumber(v)
		if !ok {
			return v
		}
		return strconv.FormatFloat(f, 'f', argInt(args, 0, 0), 64)
	},
	"bytes": func(v any, _ []any) any {
		f, ok := ToNumber(v)
		if !ok {
			return v
		}
		return humanBytes(f)
	},
	"pct": func(v any, args []any) any {
		// Without a decimals argument the value keeps its current
		// formatting, so toFixed(n):pct() round-trips.
		if len(args) == 0 {
			return helperString(v) + "%"
		}
		f, ok := ToNumber(v)
		if !ok {
			return v
		}
		return strconv.FormatFloat(f, 'f', argInt(args, 0, 0), 64) + "%"
	},
}

// applyHelper runs a single helper by name. Unknown helpers are a
// no-op, returning the input untouched.
func applyHelper(name string, v any, args []any) any {
	fn, ok := helpers[name]
	if !ok {
		return v
	}
	return fn(v, args)
}

// helperString is the string coercion used by the text helpers: missing
// values and null become "", everything else its canonical text.
func helperString(v any) string {
	return Render(v)
}

func argInt(args []any, i, def int) int {
	if i >= len(args) {
		return def
	}
	f, ok := ToNumber(args[i])
	if !ok {
		return def
	}
	return int(f)
}

func argString(args []any, i int, def string) string {
	if i >= len(args) {
		return def
	}
	return Render(args[i])
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// sliceIndex resolves a half-open slice bound, supporting negative
// offsets counted from the end.
func sliceIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return clampIndex(i, n)
}

func pad(s string, width int, fill string, start bool) string {
	if fill == "" {
		fill = " "
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	need := width - len(r)
	fr := []rune(fill)
	padRunes := make([]rune, 0, need)
	for len(padRunes) < need {
		padRunes = append(padRunes, fr...)
	}
	padRunes = padRunes[:need]
	if start {
		return string(padRunes) + s
	}
	return s + string(padRunes)
}

// humanBytes formats a byte count with 1024 steps. One decimal below
// ten units, none otherwise.
func humanBytes(f float64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}
	i := 0
	for math.Abs(f) >= 1024 && i < len(units)-1 {
		f /= 1024
		i++
	}
	if math.Abs(f) >= 10 || f == math.Trunc(f) {
		return fmt.Sprintf("%.0f %s", f, units[i])
	}
	return fmt.Sprintf("%.1f %s", f, units[i])
}
