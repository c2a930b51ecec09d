package validation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/benvon/lockin/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	strict = bluemonday.StrictPolicy()
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("isodate", validateISODate); err != nil {
		panic(fmt.Sprintf("failed to register isodate validator: %v", err))
	}
	if err := Validate.RegisterValidation("notblank", validateNotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validator: %v", err))
	}
}

// validateISODate accepts calendar dates in YYYY-MM-DD form
func validateISODate(fl validator.FieldLevel) bool {
	return IsISODate(fl.Field().String())
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// IsISODate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsISODate(s string) bool {
	if len(s) != len(models.DateLayout) {
		return false
	}
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

// SanitizeText trims whitespace, strips markup and removes control characters
// except newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(strict.Sanitize(text))

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateHours checks a work log value.
func ValidateHours(hours float64) error {
	if math.IsNaN(hours) || hours < 0 || hours > 24 {
		return fmt.Errorf("invalid hours: %v (must be between 0 and 24)", hours)
	}
	return nil
}

// Messages flattens validator errors into "field: tag" strings.
func Messages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := strings.ToLower(fe.Field()) + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out = append(out, msg)
	}
	return out
}
