// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

var lichessUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,30}$`)

// ValidateLichessUsername checks the username against the character set and
// length Lichess allows.
func ValidateLichessUsername(username string) bool {
	return lichessUsernamePattern.MatchString(username)
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}
