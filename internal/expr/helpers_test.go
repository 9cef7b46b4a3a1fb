package expr

import "testing"

func TestHelpers(t *testing.T) {
	tests := []struct {
		name string
		spec string
		env  Env
		want string
	}{
		{"upper", "value:upper", Env{Value: "warn"}, "WARN"},
		{"lower", "value:lower", Env{Value: "WARN"}, "warn"},
		{"trim", "value:trim", Env{Value: "  x  "}, "x"},
		{"len", "value:len", Env{Value: "abcd"}, "4"},
		{"sub", "value:sub(1, 2)", Env{Value: "abcd"}, "bc"},
		{"sub past end", "value:sub(2, 10)", Env{Value: "abcd"}, "cd"},
		{"slice", "value:slice(1, 3)", Env{Value: "abcd"}, "bc"},
		{"slice negative", "value:slice(-2)", Env{Value: "abcd"}, "cd"},
		{"cat", "value:cat(' rpm')", Env{Value: float64(900)}, "900 rpm"},
		{"padStart", "value:padStart(5, '0')", Env{Value: "42"}, "00042"},
		{"padEnd", "value:padEnd(4)", Env{Value: "ab"}, "ab  "},
		{"round", "value:round(1)", Env{Value: 87.46}, "87.5"},
		{"toFixed", "value:toFixed(2)", Env{Value: float64(5)}, "5.00"},
		{"pct", "value:pct(1)", Env{Value: 87.46}, "87.5%"},
		{"pct no args keeps formatting", "value:toFixed(1):pct()", Env{Value: 91.234}, "91.2%"},
		{"bytes small", "value:bytes", Env{Value: float64(512)}, "512 B"},
		{"bytes kib", "value:bytes", Env{Value: float64(2048)}, "2 KiB"},
		{"bytes decimal", "value:bytes", Env{Value: float64(1536)}, "1.5 KiB"},
		{"bytes gib", "value:bytes", Env{Value: float64(64424509440)}, "60 GiB"},
		{"chained", "value:trim:upper:cat('!')", Env{Value: " ok "}, "OK!"},
		{"unknown helper passes through", "value:nosuch", Env{Value: "x"}, "x"},
		{"numeric helper on word passes through", "value:round", Env{Value: "word"}, "word"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ResolveSpec(tc.spec, tc.env)
			if err != nil {
				t.Fatalf("ResolveSpec(%q) error: %v", tc.spec, err)
			}
			if got := Render(v); got != tc.want {
				t.Errorf("ResolveSpec(%q) = %q, want %q", tc.spec, got, tc.want)
			}
		})
	}
}

func TestResolveSpecSources(t *testing.T) {
	st := fakeStore{"disk": {"fields.usage": "87.5"}}
	env := Env{
		Payload: map[string]any{"tags": map[string]any{"host": "web1"}},
		Value:   float64(42),
		Store:   st,
	}

	t.Run("value", func(t *testing.T) {
		v, err := ResolveSpec("value", env)
		if err != nil || Render(v) != "42" {
			t.Errorf("value resolved to (%v, %v), want 42", v, err)
		}
	})

	t.Run("payload path", func(t *testing.T) {
		v, err := ResolveSpec("tags.host", env)
		if err != nil || Render(v) != "web1" {
			t.Errorf("tags.host resolved to (%v, %v), want web1", v, err)
		}
	})

	t.Run("store reference", func(t *testing.T) {
		v, err := ResolveSpec("store.disk.fields.usage", env)
		if err != nil || Render(v) != "87.5" {
			t.Errorf("store ref resolved to (%v, %v), want 87.5", v, err)
		}
	})

	t.Run("store miss is undefined", func(t *testing.T) {
		v, err := ResolveSpec("store.disk.nope", env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsUndefined(v) {
			t.Errorf("store miss = %#v, want Undefined", v)
		}
	})

	t.Run("malformed store reference", func(t *testing.T) {
		if _, err := ResolveSpec("store.disk", env); err == nil {
			t.Error("expected error for store reference without subject")
		}
	})

	t.Run("missing payload path is undefined", func(t *testing.T) {
		v, err := ResolveSpec("tags.missing", env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsUndefined(v) {
			t.Errorf("missing path = %#v, want Undefined", v)
		}
	})
}

type fakeStore map[string]map[string]any

func (f fakeStore) Get(watcherID, subject string) (any, bool) {
	v, ok := f[watcherID][subject]
	return v, ok
}
