package notify

import "testing"

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"debug", SeverityDebug, false},
		{"info", SeverityInfo, false},
		{"warning", SeverityWarning, false},
		{"critical", SeverityCritical, false},
		{"", SeverityInfo, false},
		{"panic", SeverityInfo, true},
	}

	for _, tc := range tests {
		got, err := ParseSeverity(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSeverity(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSeverity(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSeverityOrdering(t *testing.T) {
	order := []Severity{SeverityDebug, SeverityInfo, SeverityWarning, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("severity %v should rank below %v", order[i-1], order[i])
		}
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		in   Severity
		want string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityCritical, "critical"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}
