package scenario

import (
	"strings"

	"github.com/qiniu/testagent/pkg/models"
)

// Heading 返回章节标题行，例如 "### Positive Test Scenarios:"
func Heading(title string) string {
	return models.HeadingMarker + " " + title + ":"
}

// ExtractSection 返回标题之后、下一个 "###" 或文本结尾之前的内容（去除首尾空白）。
// 标题不存在时返回 false。
func ExtractSection(content, title string) (string, bool) {
	heading := Heading(title)
	start := strings.Index(content, heading)
	if start < 0 {
		return "", false
	}

	body := content[start+len(heading):]
	if end := strings.Index(body, models.HeadingMarker); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

// ParseBundle 从模型输出中解析三个章节，缺失的章节填充占位值
func ParseBundle(content string) (models.ScenarioBundle, []string) {
	var missing []string
	section := func(title string) string {
		text, ok := ExtractSection(content, title)
		if !ok {
			missing = append(missing, title)
			return models.NoDataGenerated
		}
		return text
	}

	bundle := models.ScenarioBundle{
		Steps:     section(models.HeadingTestSteps),
		Positives: section(models.HeadingPositiveScenarios),
		Negatives: section(models.HeadingNegativeScenarios),
	}
	return bundle, missing
}
