package content

import (
	"regexp"
	"strings"
)

// SuiteCloseToken closes a Cypress describe block
const SuiteCloseToken = "});"

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```[ \t]*$")
)

// StripCodeFence removes a leading ```lang marker and a trailing ``` marker if present.
func StripCodeFence(code string) string {
	code = strings.TrimSpace(code)
	code = leadingFence.ReplaceAllString(code, "")
	code = trailingFence.ReplaceAllString(code, "")
	return strings.TrimSpace(code)
}

// TruncateAfterLast cuts everything after the last occurrence of token.
// The input is returned unchanged when token does not occur.
func TruncateAfterLast(code, token string) string {
	idx := strings.LastIndex(code, token)
	if idx < 0 {
		return code
	}
	return code[:idx+len(token)]
}

// SanitizeTestSource strips code fences and trailing prose from model output.
func SanitizeTestSource(raw string) string {
	return TruncateAfterLast(StripCodeFence(raw), SuiteCloseToken)
}
