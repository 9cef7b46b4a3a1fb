package expr

import "testing"

func TestInterpolateString(t *testing.T) {
	env := Env{
		Payload: map[string]any{
			"tags":   map[string]any{"host": "web1", "path": "/var"},
			"fields": map[string]any{"usage": 87.5},
		},
		Value: 87.5,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"value", "usage is ${value}", "usage is 87.5"},
		{"payload path", "host ${tags.host} path ${tags.path}", "host web1 path /var"},
		{"helper chain", "host ${tags.host:upper}", "host WEB1"},
		{"missing path renders empty", "x=${tags.missing}!", "x=!"},
		{"multiple same line", "${value}% on ${tags.host}", "87.5% on web1"},
		{"adjacent placeholders", "${tags.host}${tags.path}", "web1/var"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := InterpolateString(tc.template, env)
			if err != nil {
				t.Fatalf("InterpolateString(%q) error: %v", tc.template, err)
			}
			if got != tc.want {
				t.Errorf("InterpolateString(%q) = %q, want %q", tc.template, got, tc.want)
			}
		})
	}
}

func TestInterpolateStringUnterminated(t *testing.T) {
	got, err := InterpolateString("broken ${tags.host", Env{})
	if err == nil {
		t.Error("expected error for unterminated placeholder")
	}
	if got != "broken ${tags.host" {
		t.Errorf("unterminated placeholder rendered %q, want verbatim tail", got)
	}
}

func TestInterpolateStringErrorStillRenders(t *testing.T) {
	// A malformed store reference renders empty but the rest of the
	// template still comes through, with the error reported.
	got, err := InterpolateString("a ${store.x} b", Env{})
	if err == nil {
		t.Error("expected advisory error for malformed store reference")
	}
	if got != "a  b" {
		t.Errorf("got %q, want %q", got, "a  b")
	}
}

func TestInterpolateNonString(t *testing.T) {
	v, err := Interpolate(float64(5), Env{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != float64(5) {
		t.Errorf("Interpolate(5) = %#v, want 5", v)
	}
}
