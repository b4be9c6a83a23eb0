package logger

import (
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

func redactPIIValue(key string, val interface{}) interface{} {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "dob") || strings.Contains(key, "birth"):
		return redacted
	case strings.Contains(key, "name"):
		return RedactName(fmt.Sprintf("%v", val))
	default:
		return val
	}
}

// RedactName masks a person's name for safe logging.
// "Alice" → "Al***"
// Short names (≤2 chars) are fully masked: "Al" → "***"
func RedactName(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}
	return "***"
}
