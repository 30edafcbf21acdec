package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/qiniu/testagent/pkg/models"
)

// Rendered 渲染后的 prompt
type Rendered struct {
	System string
	User   string
}

// ScenarioVars 场景生成模板变量
type ScenarioVars struct {
	IssueBody       string
	Marker          string
	StepsHeading    string
	PositiveHeading string
	NegativeHeading string
}

// URLSelectors 单个 URL 及其候选选择器
type URLSelectors struct {
	URL       string
	Selectors []string
}

// TestScriptVars 测试脚本生成模板变量
type TestScriptVars struct {
	IssueBody string
	URLs      []string
	Selectors []URLSelectors
	Steps     string
	Positives string
	Negatives string
}

// Builder Prompt 构建器
type Builder struct {
	manager *Manager
}

// NewBuilder 创建 Prompt 构建器
func NewBuilder(manager *Manager) *Builder {
	return &Builder{manager: manager}
}

// Scenario 构建场景生成 prompt，标题格式统一来自 models
func (b *Builder) Scenario(issueBody string) (*Rendered, error) {
	return b.render(TemplateScenario, ScenarioVars{
		IssueBody:       issueBody,
		Marker:          models.HeadingMarker,
		StepsHeading:    models.HeadingTestSteps,
		PositiveHeading: models.HeadingPositiveScenarios,
		NegativeHeading: models.HeadingNegativeScenarios,
	})
}

// TestScript 构建测试脚本生成 prompt，选择器按 URL 出现顺序排列
func (b *Builder) TestScript(issueBody string, urls []string, selectors models.SelectorSet, bundle models.ScenarioBundle) (*Rendered, error) {
	vars := TestScriptVars{
		IssueBody: issueBody,
		URLs:      urls,
		Steps:     bundle.Steps,
		Positives: bundle.Positives,
		Negatives: bundle.Negatives,
	}
	for _, u := range selectors.URLs(urls) {
		vars.Selectors = append(vars.Selectors, URLSelectors{URL: u, Selectors: selectors[u]})
	}
	return b.render(TemplateTestScript, vars)
}

// render 渲染模板
func (b *Builder) render(id string, vars interface{}) (*Rendered, error) {
	tmpl, err := b.manager.GetTemplate(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	t, err := template.New(tmpl.ID).Funcs(template.FuncMap{"join": strings.Join}).Parse(tmpl.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return &Rendered{
		System: tmpl.System,
		User:   buf.String(),
	}, nil
}
