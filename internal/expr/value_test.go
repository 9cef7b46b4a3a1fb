package expr

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"true string", "true", true},
		{"false string", "false", false},
		{"numeric string", "42", float64(42)},
		{"decimal string", "3.5", 3.5},
		{"negative string", "-7", float64(-7)},
		{"plain string", "hello", "hello"},
		{"empty string", "", ""},
		{"bool passthrough", true, true},
		{"number passthrough", 2.5, 2.5},
		{"nil passthrough", nil, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%#v) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"undefined", Undefined, "undefined"},
		{"nil", nil, "null"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"integral float", float64(42), "42"},
		{"decimal float", 3.5, "3.5"},
		{"string", "abc", "abc"},
		{"object", map[string]any{"a": float64(1)}, `{"a":1}`},
		{"array", []any{float64(1), "x"}, `[1,"x"]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Stringify(tc.in); got != tc.want {
				t.Errorf("Stringify(%#v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	if got := Render(Undefined); got != "" {
		t.Errorf("Render(Undefined) = %q, want empty", got)
	}
	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
	if got := Render(float64(7)); got != "7" {
		t.Errorf("Render(7) = %q, want 7", got)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"undefined", Undefined, false},
		{"nil", nil, false},
		{"zero", float64(0), false},
		{"nonzero", 0.1, true},
		{"empty string", "", false},
		{"nonempty string", "no", true},
		{"string false is still nonempty", "false", true},
		{"true", true, true},
		{"false", false, false},
		{"object", map[string]any{}, true},
		{"array", []any{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truthy(tc.in); got != tc.want {
				t.Errorf("Truthy(%#v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"string number vs number", "42", float64(42), true},
		{"string true vs bool", "true", true, true},
		{"number vs same text", float64(3.5), "3.5", true},
		{"different numbers", float64(1), float64(2), false},
		{"string vs string", "on", "on", true},
		{"nil vs nil", nil, nil, true},
		{"nil vs false", nil, false, false},
		{"empty string vs zero", "", float64(0), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"numeric both", float64(2), float64(10), -1},
		{"numeric string pair", "2", "10", -1},
		{"mixed numeric", "15", float64(9), 1},
		{"lexicographic strings", "abc", "abd", -1},
		{"number vs word is lexicographic", float64(15), "high", -1},
		{"equal numbers", float64(5), "5", 0},
		{"empty string forces lexicographic", "", float64(0), -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compare(tc.a, tc.b); got != tc.want {
				t.Errorf("Compare(%#v, %#v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestLookupPath(t *testing.T) {
	doc := map[string]any{
		"fields": map[string]any{
			"usage": 87.5,
			"list":  []any{"a", "b"},
		},
		"name": "disk",
		"null": nil,
	}

	tests := []struct {
		name string
		path string
		want any
	}{
		{"top level", "name", "disk"},
		{"nested", "fields.usage", 87.5},
		{"array index", "fields.list.1", "b"},
		{"explicit null", "null", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LookupPath(doc, tc.path)
			if got != tc.want {
				t.Errorf("LookupPath(%q) = %#v, want %#v", tc.path, got, tc.want)
			}
		})
	}

	for _, path := range []string{"missing", "fields.missing", "name.deeper", "fields.list.9"} {
		if got := LookupPath(doc, path); !IsUndefined(got) {
			t.Errorf("LookupPath(%q) = %#v, want Undefined", path, got)
		}
	}
}
