package scenario

import (
	"context"
	"strings"

	"github.com/qiniu/testagent/internal/llm"
	"github.com/qiniu/testagent/internal/prompt"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/models"
)

// Synthesizer 根据 Issue 描述生成测试步骤和正/反向场景
type Synthesizer struct {
	completer llm.Completer
	builder   *prompt.Builder
	maxTokens int
}

// NewSynthesizer 创建场景生成器
func NewSynthesizer(completer llm.Completer, builder *prompt.Builder, maxTokens int) *Synthesizer {
	return &Synthesizer{
		completer: completer,
		builder:   builder,
		maxTokens: maxTokens,
	}
}

// Synthesize 总是返回 bundle。模型调用失败时返回 models.FailedScenarioBundle，
// 单个章节缺失时只有该字段为 models.NoDataGenerated。
func (s *Synthesizer) Synthesize(ctx context.Context, issueBody string) models.ScenarioBundle {
	xl := trace.Logger(ctx)

	rendered, err := s.builder.Scenario(issueBody)
	if err != nil {
		xl.Errorf("Failed to build scenario prompt: %v", err)
		return models.FailedScenarioBundle()
	}

	content, err := s.completer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: rendered.System},
			{Role: llm.RoleUser, Content: rendered.User},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		xl.Errorf("Error generating test steps and scenarios: %v", err)
		return models.FailedScenarioBundle()
	}

	content = strings.TrimSpace(content)
	xl.Debugf("Full model response:\n%s", content)

	bundle, missing := ParseBundle(content)
	if len(missing) > 0 {
		xl.Warnf("Model response is missing sections: %s", strings.Join(missing, ", "))
	}
	return bundle
}
