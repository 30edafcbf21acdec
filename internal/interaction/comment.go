package interaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/qiniu/testagent/pkg/models"
)

// AbortNoURLs 没有可测试 URL 时回写到 issue 的说明
const AbortNoURLs = "**Error: No valid test URLs extracted. Skipping Cypress test execution.**"

// ScenarioComment 将场景集渲染为 issue 评论，每段使用加粗标题
func ScenarioComment(bundle models.ScenarioBundle) string {
	var sb strings.Builder

	sb.WriteString(boldHeading(models.HeadingTestSteps))
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(bundle.Steps))
	sb.WriteString("\n\n")

	sb.WriteString(boldHeading(models.HeadingPositiveScenarios))
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(bundle.Positives))
	sb.WriteString("\n\n")

	sb.WriteString(boldHeading(models.HeadingNegativeScenarios))
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(bundle.Negatives))
	sb.WriteString("\n")

	return sb.String()
}

// boldHeading 评论中的段落标题，如 "**Positive Test Scenarios:**"
func boldHeading(title string) string {
	return "**" + title + ":**"
}

// ResultComment 将一次测试运行结果渲染为 issue 评论
func ResultComment(outcome models.RunOutcome, reportURL string) string {
	var sb strings.Builder

	sb.WriteString("**Test Results Table:**\n\n")
	sb.WriteString(fence(outcome.Stdout))

	if reportURL != "" {
		sb.WriteString(fmt.Sprintf("\n[📄 View Mocha Report](%s)\n", reportURL))
	}

	if strings.TrimSpace(outcome.Stderr) != "" {
		sb.WriteString("\n**Errors:**\n\n")
		sb.WriteString(fence(outcome.Stderr))
	}

	sb.WriteString("\n---\n")
	if outcome.Failed {
		sb.WriteString(fmt.Sprintf("❌ Tests failed (exit code %d)", outcome.ExitCode))
	} else {
		sb.WriteString("✅ Tests passed")
	}
	if outcome.Duration > 0 {
		sb.WriteString(fmt.Sprintf(" in %s", formatDuration(outcome.Duration)))
	}
	sb.WriteString("\n")

	return sb.String()
}

// fence 把文本包进代码块，文本自身含 ``` 时使用更长的围栏
func fence(text string) string {
	marker := "```"
	for strings.Contains(text, marker) {
		marker += "`"
	}
	return marker + "\n" + strings.TrimRight(text, "\n") + "\n" + marker + "\n"
}

// formatDuration 格式化持续时间
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
