package validation

import (
	"errors"
	"math"
	"testing"
)

func TestIsISODate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"2024-03-15", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-3-15", false},
		{"15/03/2024", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := IsISODate(tt.in); got != tt.want {
				t.Errorf("IsISODate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateHours(t *testing.T) {
	t.Parallel()

	for _, h := range []float64{0, 7.5, 24} {
		if err := ValidateHours(h); err != nil {
			t.Errorf("ValidateHours(%v) = %v", h, err)
		}
	}
	for _, h := range []float64{-1, 24.01, math.NaN()} {
		if err := ValidateHours(h); err == nil {
			t.Errorf("ValidateHours(%v) = nil, want error", h)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims", in: "  ship it  ", want: "ship it"},
		{name: "strips markup", in: "<b>grind</b><script>x()</script>", want: "grind"},
		{name: "drops control chars", in: "a\x07b", want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateStructTags(t *testing.T) {
	t.Parallel()

	type req struct {
		Title string `validate:"notblank,max=200"`
		Date  string `validate:"isodate"`
	}

	if err := Validate.Struct(req{Title: "ok", Date: "2024-01-01"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}

	err := Validate.Struct(req{Title: "   ", Date: "nope"})
	if err == nil {
		t.Fatal("invalid struct accepted")
	}
	msgs := Messages(err)
	if len(msgs) != 2 {
		t.Errorf("Messages() = %v, want 2 entries", msgs)
	}

	if got := Messages(errors.New("boom")); len(got) != 1 || got[0] != "boom" {
		t.Errorf("Messages(plain) = %v", got)
	}
}
