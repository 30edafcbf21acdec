package pipeline

import (
	"fmt"

	"github.com/qiniu/testagent/internal/config"
	ghclient "github.com/qiniu/testagent/internal/github"
	"github.com/qiniu/testagent/internal/harvest"
	"github.com/qiniu/testagent/internal/llm"
	"github.com/qiniu/testagent/internal/prompt"
	"github.com/qiniu/testagent/internal/runner"
	"github.com/qiniu/testagent/internal/scenario"
	"github.com/qiniu/testagent/internal/testscript"
)

// Components 由配置构建出的全部协作者
type Components struct {
	GitHub       *ghclient.Client
	Completer    llm.Completer
	Orchestrator *Orchestrator
}

// Build 根据配置创建 GitHub 客户端、模型客户端和 Orchestrator
func Build(cfg *config.Config) (*Components, error) {
	gh, err := ghclient.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	completer, err := llm.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	manager, err := prompt.NewManager(cfg.Prompt.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	builder := prompt.NewBuilder(manager)

	orchestrator := New(Deps{
		Gateway:   gh,
		Scenarios: scenario.NewSynthesizer(completer, builder, cfg.LLM.ScenarioMaxTokens),
		Harvester: harvest.New(cfg.Harvest),
		Scripts:   testscript.NewSynthesizer(completer, builder, cfg.LLM.ScriptMaxTokens),
		Runner:    runner.New(cfg.Runner),
	}, Options{
		ExcludeDomain: cfg.GitHub.ExcludeDomain,
		ReportURL:     cfg.Runner.ReportURL,
	})

	return &Components{
		GitHub:       gh,
		Completer:    completer,
		Orchestrator: orchestrator,
	}, nil
}
