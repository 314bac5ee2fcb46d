// Package security masks credentials before they reach logs or output.
package security

import (
	"regexp"
	"strings"
)

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token|password)([=:]\s*|\s+)["']?([^\s"',]+)["']?`),
	regexp.MustCompile(`(?i)bearer\s+([A-Za-z0-9_\-\.]+)`),
	regexp.MustCompile(`sk-[A-Za-z0-9_\-]{8,}`), // OpenAI keys
}

// MaskCredential keeps the first and last four characters of long values
// and masks everything else.
func MaskCredential(value string) string {
	switch {
	case value == "":
		return ""
	case len(value) <= 4:
		return strings.Repeat("*", len(value))
	case len(value) <= 8:
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// MaskSecrets masks credential-looking substrings in free text such as
// error messages returned by HTTP clients.
func MaskSecrets(s string) string {
	for _, re := range secretPatterns {
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			sub := re.FindStringSubmatchIndex(match)
			// Mask the last capture group, or the whole match when there is none.
			start, end := 0, len(match)
			if n := len(sub) / 2; n > 1 {
				start, end = sub[2*(n-1)], sub[2*(n-1)+1]
			}
			return match[:start] + MaskCredential(match[start:end]) + match[end:]
		})
	}
	return s
}
