package interaction

import (
	"fmt"
	"io"
	"strings"

	"github.com/qiniu/testagent/pkg/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	listingWidth     = 80
	descriptionLines = 3
)

var (
	numberStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderIssueList 在终端中列出 open issue：编号、标题、描述，每条之间用分隔线隔开
func RenderIssueList(w io.Writer, issues []*models.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No open issues found."))
		return err
	}

	rule := mutedStyle.Render(strings.Repeat("─", listingWidth))
	for _, issue := range issues {
		var sb strings.Builder
		sb.WriteString(numberStyle.Render(fmt.Sprintf("#%d", issue.Number)))
		sb.WriteString(" ")
		sb.WriteString(titleStyle.Render(truncate(issue.Title, listingWidth-runewidth.StringWidth(fmt.Sprintf("#%d ", issue.Number)))))
		sb.WriteString("\n")
		for _, line := range describe(issue.Body) {
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString(rule)
		sb.WriteString("\n")

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return fmt.Errorf("failed to write issue listing: %w", err)
		}
	}
	return nil
}

// describe 取描述的前几行非空内容，按终端显示宽度截断
func describe(body string) []string {
	var lines []string
	more := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(lines) == descriptionLines {
			more = true
			break
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{mutedStyle.Render("(no description)")}
	}
	// 先拼接省略标记再截断，超宽时只保留一个 "…"
	if more {
		lines[len(lines)-1] += " …"
	}
	for i, line := range lines {
		lines[i] = truncate(line, listingWidth-2)
	}
	return lines
}

// truncate 按显示宽度截断，正确处理中文等宽字符
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
