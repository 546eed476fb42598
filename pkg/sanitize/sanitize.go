// Package sanitize redacts credentials from error text before it is logged,
// persisted, or alerted on.
package sanitize

import "regexp"

// MaxErrorLength bounds sanitized error text. Longer text is truncated with
// an ellipsis marker.
const MaxErrorLength = 500

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules is an ordered table; the anthropic key pattern must run before the
// generic sk- pattern so the vendor prefix is not left behind.
var rules = []rule{
	{regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]+`), "[REDACTED_API_KEY]"},
	{regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`), "[REDACTED_API_KEY]"},
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{30,}`), "[REDACTED_API_KEY]"},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`), "://[REDACTED]@"},
	{regexp.MustCompile(`(?i)(api[_-]?key|access[_-]?token|secret|password|token)=[^&\s"']+`), "$1=[REDACTED]"},
	{regexp.MustCompile(`(?i)(api[_-]?key|access[_-]?token|secret|password|token)(["']?\s*[:=]\s*["'])[^"'\s]+`), "$1$2[REDACTED]"},
}

// Error redacts credentials from an error's text and truncates the result.
// A nil error yields an empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Text(err.Error())
}

// Text applies the redaction rules in order, then truncates.
func Text(s string) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return Truncate(s, MaxErrorLength)
}

// Truncate shortens s to at most limit bytes, appending "..." when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
