package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID v4 string.
func GenerateUUID() string {
	return uuid.New().String()
}

// NormalizeDigits converts Arabic-Indic, Persian and fullwidth numerals to
// ASCII digits. Everything else is kept as is.
func NormalizeDigits(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= '٠' && r <= '٩':
			result.WriteRune(r - '٠' + '0')
		case r >= '۰' && r <= '۹':
			result.WriteRune(r - '۰' + '0')
		case r >= '０' && r <= '９':
			result.WriteRune(r - '０' + '0')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ParseInt safely converts string to int with a default value.
func ParseInt(s string, defaultVal int) int {
	s = strings.TrimSpace(NormalizeDigits(s))
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
