package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// StoreReader is the read side of the cross-watcher global store. The
// concrete store is passed in by the caller so this package stays free
// of process state.
type StoreReader interface {
	// Get returns the last value some watcher observed for a subject,
	// or false when nothing has been recorded.
	Get(watcherID, subject string) (any, bool)
}

// Env carries the context a placeholder resolves against: the decoded
// payload, the current subject value (bound to the "value" keyword),
// and the global store for store.<watcher>.<subject> reads.
type Env struct {
	Payload map[string]any
	Value   any
	Store   StoreReader
}

// ResolveSpec resolves the inside of a ${...} placeholder: a source
// followed by an optional colon-separated helper chain. The source is
// "value", "store.<watcher>.<subject>", or a dotted payload path.
// Unknown helpers pass the value through; a malformed store reference
// is an error.
func ResolveSpec(spec string, env Env) (any, error) {
	parts := splitChain(spec)
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return Undefined, fmt.Errorf("empty placeholder")
	}

	source := strings.TrimSpace(parts[0])
	var v any
	switch {
	case source == "value":
		v = env.Value
	case strings.HasPrefix(source, "store."):
		ref := strings.SplitN(strings.TrimPrefix(source, "store."), ".", 2)
		if len(ref) != 2 || ref[0] == "" || ref[1] == "" {
			return Undefined, fmt.Errorf("malformed store reference %q", source)
		}
		if env.Store == nil {
			v = Undefined
		} else if sv, ok := env.Store.Get(ref[0], ref[1]); ok {
			v = sv
		} else {
			v = Undefined
		}
	default:
		v = LookupPath(env.Payload, source)
	}

	for _, h := range parts[1:] {
		name, args, err := parseHelper(h)
		if err != nil {
			return v, err
		}
		v = applyHelper(name, v, args)
	}
	return v, nil
}

// splitChain splits a placeholder spec on colons, keeping colons inside
// parenthesized argument lists and quoted strings intact.
func splitChain(spec string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ':' && depth == 0:
			parts = append(parts, spec[start:i])
			start = i + 1
		}
	}
	parts = append(parts, spec[start:])
	return parts
}

// parseHelper parses "name" or "name(arg, arg)" into its name and
// argument values.
func parseHelper(s string) (string, []any, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("unterminated helper arguments in %q", s)
	}
	name := strings.TrimSpace(s[:open])
	argSrc := s[open+1 : len(s)-1]
	args, err := parseArgs(argSrc)
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

// parseArgs parses a comma-separated argument list. Arguments are
// quoted strings, true/false, decimal numbers, or bare words taken as
// string literals. An empty list yields no arguments.
func parseArgs(src string) ([]any, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}
	var args []any
	for _, raw := range splitArgs(src) {
		a := strings.TrimSpace(raw)
		switch {
		case a == "":
			args = append(args, "")
		case a[0] == '\'' || a[0] == '"':
			if len(a) < 2 || a[len(a)-1] != a[0] {
				return nil, fmt.Errorf("unterminated string argument %q", a)
			}
			args = append(args, a[1:len(a)-1])
		case a == "true":
			args = append(args, true)
		case a == "false":
			args = append(args, false)
		default:
			if f, err := strconv.ParseFloat(a, 64); err == nil {
				args = append(args, f)
			} else {
				args = append(args, a)
			}
		}
	}
	return args, nil
}

// splitArgs splits on top-level commas, respecting quotes.
func splitArgs(src string) []string {
	var out []string
	var quote byte
	start := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			out = append(out, src[start:i])
			start = i + 1
		}
	}
	out = append(out, src[start:])
	return out
}
