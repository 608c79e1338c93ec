package common

import (
	"strings"
	"time"
)

// If given `value` is not empty, returns it. Else `defaultValue` will be returned.
func GetStrOr(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	} else {
		return value
	}
}

// GetDurationOr takes two duration value, if the first value is greater
// than zero, then this function return this value, else the second value
// will be returned.
func GetDurationOr(timeout, defaultValue time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultValue
	} else {
		return timeout
	}
}

// GetIntOr returns `value` when it is positive, else `defaultValue`.
func GetIntOr(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	} else {
		return value
	}
}

// SanitizeName returns a copy of `name` safe to use as file or archive entry
// name. Alphanumeric runes and `.`, `_`, `-`, space are kept, every other
// rune is replaced with `_`.
func SanitizeName(name string) string {
	var builder strings.Builder
	builder.Grow(len(name))

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '.', r == '_', r == '-', r == ' ':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}

	return builder.String()
}

// TruncateString shortens `s` to at most `maxLen` bytes, appending ellipsis
// when truncation happens.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
