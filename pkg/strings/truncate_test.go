package strings

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"fits", "npx server", 20, "npx server"},
		{"exact", "hello", 5, "hello"},
		{"whitespace flattened", "run\n\tthe   hook", 40, "run the hook"},
		{"cut at word boundary", "run the tidy hook on save", 15, "run the..."},
		{"boundary too early", "npx -y @acme/search-server --index", 24, "npx -y @acme/search-s..."},
		{"cut inside long word", "pre_tool_use(Bash) blocking", 12, "pre_tool_..."},
		{"tiny budget clamped", "abcdef", 1, "a..."},
		{"empty", "", 10, ""},
		{"runes not bytes", "ünïcödé wörds everywhere", 10, "ünïcödé..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateDescription(tt.in, tt.maxLen)
			if got != tt.want {
				t.Errorf("TruncateDescription(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
			limit := max(tt.maxLen, 4)
			if n := utf8.RuneCountInString(got); n > limit {
				t.Errorf("result has %d runes, limit %d", n, limit)
			}
		})
	}
}
