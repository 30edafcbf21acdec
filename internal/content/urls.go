package content

import (
	"regexp"
	"strings"
)

// urlPattern matches http(s) URLs up to the next whitespace
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURLs returns the URLs found in body in order of appearance,
// skipping any that contain excludeDomain. Duplicates are kept.
func ExtractURLs(body, excludeDomain string) []string {
	matches := urlPattern.FindAllString(body, -1)

	urls := make([]string, 0, len(matches))
	for _, u := range matches {
		if excludeDomain != "" && strings.Contains(u, excludeDomain) {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}
