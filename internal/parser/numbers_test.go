// internal/parser/numbers_test.go
package parser

import "testing"

func TestParseAbbreviatedNumber(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"12.3K", 12300, true},
		{"1.2k", 1200, true},
		{"1M", 1000000, true},
		{"2.5m", 2500000, true},
		{"1B", 1000000000, true},
		{"1,234", 1234, true},
		{"1,234,567", 1234567, true},
		{"42", 42, true},
		{"12,3K", 12300, true}, // comma as decimal separator
		{"  987  ", 987, true},
		{"", 0, false},
		{"no digits here", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAbbreviatedNumber(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseAbbreviatedNumber(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("ParseAbbreviatedNumber(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractFirstCount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"25 comments", 25},
		{"1.2K reactions and counting", 1200},
		{"shared 3 times", 3},
		{"Like · Share", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := extractFirstCount(tt.input); got != tt.want {
			t.Errorf("extractFirstCount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
