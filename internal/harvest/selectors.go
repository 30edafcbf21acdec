package harvest

import (
	"strings"

	"github.com/qiniu/testagent/pkg/models"

	"github.com/PuerkitoBio/goquery"
)

// DeriveSelectors returns up to models.MaxSelectorsPerURL unique compound class
// selectors in order of first appearance. class="foo bar" becomes ".foo.bar".
func DeriveSelectors(markup string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return []string{}
	}

	selectors := make([]string, 0, models.MaxSelectorsPerURL)
	seen := make(map[string]bool)

	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		classes := strings.Fields(s.AttrOr("class", ""))
		if len(classes) == 0 {
			return true
		}

		selector := "." + strings.Join(classes, ".")
		if seen[selector] {
			return true
		}
		seen[selector] = true
		selectors = append(selectors, selector)

		return len(selectors) < models.MaxSelectorsPerURL
	})

	return selectors
}
