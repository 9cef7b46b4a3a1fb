package expr

import "testing"

func TestEvaluate(t *testing.T) {
	env := Env{
		Payload: map[string]any{
			"fields": map[string]any{"usage": "42", "state": "on"},
			"tags":   map[string]any{"host": "web1"},
		},
		Value: "",
	}

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"string number equals number", "${fields.usage} == 42", true},
		{"numeric comparison over string operands", `${fields.usage} > "9"`, true},
		{"string true equals bool literal", `"true" == true`, true},
		{"not of empty value", "!value", true},
		{"bare word literal", "${fields.state} == on", true},
		{"not equal", "${fields.state} != off", true},
		{"and", "${fields.usage} > 10 && ${fields.state} == on", true},
		{"or short side", "${fields.usage} > 100 || ${fields.state} == on", true},
		{"parens", "(${fields.usage} > 100 || ${fields.usage} > 10) && true", true},
		{"less than", "${fields.usage} < 10", false},
		{"lte boundary", "${fields.usage} <= 42", true},
		{"gte boundary", "${fields.usage} >= 42", true},
		{"missing path compares as undefined", `${fields.missing} == "undefined"`, true},
		{"not of missing path", "!${fields.missing}", true},
		{"case insensitive bool literal", "${fields.state} != off && TRUE", true},
		{"negation binds tighter than and", "!false && false", false},
		{"quoted string with space", `${tags.host} == "web1"`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.src, env)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tc.src, err)
			}
			if got != tc.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tc.src, got, tc.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"chained comparison", "1 < value < 10"},
		{"single equals", "value = 1"},
		{"single ampersand", "true & false"},
		{"single pipe", "true | false"},
		{"unbalanced open paren", "(value == 1"},
		{"unbalanced close paren", "value == 1)"},
		{"unterminated string", `value == "abc`},
		{"unterminated placeholder", "${fields.usage == 1"},
		{"dangling operator", "value =="},
		{"empty expression", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Evaluate(tc.src, Env{}); err == nil {
				t.Errorf("Evaluate(%q) should fail", tc.src)
			}
		})
	}
}
