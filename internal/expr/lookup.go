package expr

import (
	"strconv"
	"strings"
)

// LookupPath walks a dotted path through a decoded JSON payload one
// segment at a time. Object segments index maps; integer segments index
// arrays. Any missing segment yields Undefined, which makes comparisons
// against it false rather than an error.
func LookupPath(payload map[string]any, path string) any {
	if path == "" {
		return Undefined
	}
	var cur any = payload
	for _, seg := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[seg]
			if !ok {
				return Undefined
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return Undefined
			}
			cur = t[i]
		default:
			return Undefined
		}
	}
	if cur == nil {
		return nil
	}
	return cur
}
