package logger

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "empty", input: "", maxLength: 10, want: ""},
		{name: "plain", input: "lock in", maxLength: 10, want: "lock in"},
		{name: "control characters removed", input: "fake\nlog\x00line", maxLength: 50, want: "fakelogline"},
		{name: "truncated", input: "abcdefghij", maxLength: 4, want: "abcd..."},
		{name: "invalid utf8 repaired", input: "ok\xffok", maxLength: 10, want: "okok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_KeepsRunesWhole(t *testing.T) {
	t.Parallel()

	got := SanitizeString(strings.Repeat("é", 10), 5)
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune: %q", got)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q", got)
	}
	long := errors.New(strings.Repeat("x", MaxErrorMessageLength+10))
	if got := SanitizeError(long); len(got) != MaxErrorMessageLength+3 {
		t.Errorf("len(SanitizeError()) = %d", len(got))
	}
	if got := SanitizeTitle(strings.Repeat("t", 300)); len(got) != MaxTitleLength+3 {
		t.Errorf("len(SanitizeTitle()) = %d", len(got))
	}
}
