package observability

import (
	"strings"
	"unicode"
)

const maxFieldRunes = 256

// sanitizeString strips control characters other than whitespace escapes and
// caps the value at limit runes so attacker-supplied input cannot break log
// lines or bloat entries.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = maxFieldRunes
	}

	var b strings.Builder
	b.Grow(len(value))
	kept := 0
	for _, r := range value {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		if kept == limit {
			break
		}
		b.WriteRune(r)
		kept++
	}
	return b.String()
}

// SanitizeRoute normalises a route template for logging. Empty routes collapse
// to "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

// SanitizeMethod cleans an HTTP method string for logging.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 10)
}

// SanitizeUserID truncates user identifiers before they reach log output.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return sanitizeString(uid, 64)
}
