package testscript

import (
	"context"
	"fmt"
	"strings"

	"github.com/qiniu/testagent/internal/content"
	"github.com/qiniu/testagent/internal/llm"
	"github.com/qiniu/testagent/internal/prompt"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/models"
)

// Synthesizer 生成受真实选择器约束的 Cypress 测试代码
type Synthesizer struct {
	completer llm.Completer
	builder   *prompt.Builder
	maxTokens int
}

// NewSynthesizer 创建测试脚本生成器
func NewSynthesizer(completer llm.Completer, builder *prompt.Builder, maxTokens int) *Synthesizer {
	return &Synthesizer{
		completer: completer,
		builder:   builder,
		maxTokens: maxTokens,
	}
}

// Synthesize 返回清理后的测试源码：去掉代码围栏，并截断最后一个 "});" 之后的内容。
// 不做语法校验，格式错误的代码会在 runner 执行时失败。
func (s *Synthesizer) Synthesize(ctx context.Context, issueBody string, urls []string, selectors models.SelectorSet, bundle models.ScenarioBundle) (string, error) {
	xl := trace.Logger(ctx)

	if len(urls) == 0 {
		return "", models.NewStageError("synthesize test script", models.ErrEmptyInput, fmt.Errorf("no URLs to test"))
	}

	rendered, err := s.builder.TestScript(issueBody, urls, selectors, bundle)
	if err != nil {
		return "", models.NewStageError("synthesize test script", models.ErrGeneration, err)
	}

	raw, err := s.completer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: rendered.System},
			{Role: llm.RoleUser, Content: rendered.User},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate test script: %w", err)
	}

	source := content.SanitizeTestSource(raw)
	if strings.TrimSpace(source) == "" {
		return "", models.NewStageError("synthesize test script", models.ErrGeneration, fmt.Errorf("model returned no code"))
	}
	if len(source) < len(strings.TrimSpace(raw)) {
		xl.Infof("Trimmed %d bytes of fencing or trailing prose from generated test", len(strings.TrimSpace(raw))-len(source))
	}

	xl.Debugf("Generated Cypress test code:\n%s", source)
	return source, nil
}
