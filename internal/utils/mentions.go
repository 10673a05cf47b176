package utils

import (
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]{3,30})`)

// ExtractMentions pulls @username tokens out of comment text. Names are
// normalized to lower case and deduplicated; whether they resolve to
// real users is decided by the caller.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		mentions = append(mentions, name)
	}

	return mentions
}
