package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxUserIDLength is the maximum length for user IDs in logs (UUIDs are 36 chars)
	MaxUserIDLength = 128
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxTitleLength bounds task titles and goals in logs
	MaxTitleLength = 200
	// MaxGeneralStringLength is the default for SanitizeString
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength bounds prompts and completions logged in debug mode
	MaxDebugContentLength = 10000
)

// SanitizeString strips control characters, repairs invalid UTF-8 and
// truncates to maxLength bytes. maxLength <= 0 uses MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeUserID sanitizes a user ID for safe logging
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// SanitizeTitle sanitizes a task title or goal for safe logging
func SanitizeTitle(title string) string {
	return SanitizeString(title, MaxTitleLength)
}

// SanitizeDebugContent sanitizes prompts and completions for debug logs
func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}
