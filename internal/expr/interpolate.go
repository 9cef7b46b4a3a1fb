package expr

import (
	"errors"
	"strings"
)

// Interpolate substitutes every ${...} occurrence in a template with
// its resolved, rendered value. Nested braces inside a placeholder are
// matched by depth counting. Non-string inputs are returned unchanged.
//
// Resolution failures render as the empty string; the first error is
// returned so callers can log it, but the result is always usable.
func Interpolate(input any, env Env) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	out, err := InterpolateString(s, env)
	return out, err
}

// InterpolateString is Interpolate for a known-string template.
func InterpolateString(s string, env Env) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var b strings.Builder
	var firstErr error
	i := 0
	for i < len(s) {
		open := strings.Index(s[i:], "${")
		if open < 0 {
			b.WriteString(s[i:])
			break
		}
		open += i
		b.WriteString(s[i:open])

		spec, end, ok := scanPlaceholder(s, open+2)
		if !ok {
			// Unterminated placeholder: emit the rest verbatim.
			b.WriteString(s[open:])
			if firstErr == nil {
				firstErr = errors.New("unterminated placeholder")
			}
			break
		}

		v, err := ResolveSpec(spec, env)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err == nil {
			b.WriteString(Render(v))
		}
		i = end
	}
	return b.String(), firstErr
}

// scanPlaceholder scans from just past "${" to the matching "}",
// counting brace depth. Returns the inner spec and the index after the
// closing brace.
func scanPlaceholder(s string, start int) (spec string, end int, ok bool) {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start:i], i + 1, true
			}
		}
	}
	return "", 0, false
}
