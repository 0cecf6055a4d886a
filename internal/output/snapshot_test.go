package output

import (
	"strings"
	"testing"
)

func TestNormalizeSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf", "a\r\nb\r\n", "a\nb"},
		{"bare cr", "a\rb", "a\nb"},
		{"trailing spaces", "a  \nb\t\n\n", "a\nb"},
		{"leading whitespace kept", "  a\n", "  a"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(NormalizeSnapshot([]byte(tt.input)))
			if got != tt.want {
				t.Errorf("NormalizeSnapshot(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareSnapshots(t *testing.T) {
	tests := []struct {
		name      string
		verified  string
		received  string
		wantEqual bool
	}{
		{"identical", "{\n  \"a\": 1\n}", "{\n  \"a\": 1\n}", true},
		{"line endings differ", "a\r\nb\r\n", "a\nb", true},
		{"value differs", "a\nb", "a\nc", false},
		{"key order differs", `{"a":1,"b":2}`, `{"b":2,"a":1}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equal, diff := CompareSnapshots([]byte(tt.verified), []byte(tt.received))
			if equal != tt.wantEqual {
				t.Errorf("CompareSnapshots() = %v, want %v\n%s", equal, tt.wantEqual, diff)
			}
			if equal && diff != "" {
				t.Errorf("CompareSnapshots() diff = %q, want empty", diff)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	lines := []string{"one", "two", "three", "four", "five", "six", "seven",
		"eight", "nine", "ten", "eleven", "twelve", "thirteen", "fourteen"}
	want := strings.Join(lines, "\n")
	changed := append([]string{}, lines...)
	changed[1] = "TWO"
	got := strings.Join(append(changed, "fifteen"), "\n")

	diff := Diff(want, got, "verified", "received")

	for _, line := range []string{
		"--- verified",
		"+++ received",
		"-two",
		"+TWO",
		" one",
		" fourteen",
		"+fifteen",
	} {
		if !strings.Contains(diff, line+"\n") {
			t.Errorf("Diff() missing line %q:\n%s", line, diff)
		}
	}
	if strings.Contains(diff, " eight\n") {
		t.Errorf("Diff() included lines outside the context window:\n%s", diff)
	}
	if strings.Count(diff, "@@") != 4 {
		t.Errorf("Diff() should have two hunks:\n%s", diff)
	}
}

func TestDiff_Identical(t *testing.T) {
	diff := Diff("a\nb", "a\nb", "x", "y")
	if diff != "" {
		t.Errorf("Diff() = %q", diff)
	}
}
