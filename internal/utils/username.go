package utils

import "regexp"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// ValidUsername reports whether s is 3-30 characters of letters,
// digits, and underscores.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}
