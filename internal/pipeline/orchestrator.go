package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/qiniu/testagent/internal/content"
	"github.com/qiniu/testagent/internal/interaction"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/models"
)

// Stage pipeline 中的阶段
type Stage string

const (
	StageStart                Stage = "start"
	StageFetchIssue           Stage = "fetch_issue"
	StageExtractContext       Stage = "extract_context"
	StageSynthesizeScenarios  Stage = "synthesize_scenarios"
	StageHarvestSelectors     Stage = "harvest_selectors"
	StageSynthesizeTestScript Stage = "synthesize_test_script"
	StagePersistAndConfigure  Stage = "persist_and_configure"
	StageExecute              Stage = "execute"
	StageReportResult         Stage = "report_result"
	StageDone                 Stage = "done"
)

// IssueGateway issue 读取与评论回写
type IssueGateway interface {
	FetchIssue(ctx context.Context, number int) *models.Issue
	PostComment(ctx context.Context, number int, body string) bool
}

// ScenarioSynthesizer 由 issue 描述生成场景集
type ScenarioSynthesizer interface {
	Synthesize(ctx context.Context, issueBody string) models.ScenarioBundle
}

// SelectorHarvester 抓取页面并提取候选选择器
type SelectorHarvester interface {
	Harvest(ctx context.Context, urls []string) models.SelectorSet
}

// TestScriptSynthesizer 生成测试源码
type TestScriptSynthesizer interface {
	Synthesize(ctx context.Context, issueBody string, urls []string, selectors models.SelectorSet, bundle models.ScenarioBundle) (string, error)
}

// Runner 写入测试文件并执行测试
type Runner interface {
	PersistTest(ctx context.Context, source string) error
	EnsureConfig(ctx context.Context) (bool, error)
	Execute(ctx context.Context) models.RunOutcome
}

// Deps Orchestrator 的协作者
type Deps struct {
	Gateway   IssueGateway
	Scenarios ScenarioSynthesizer
	Harvester SelectorHarvester
	Scripts   TestScriptSynthesizer
	Runner    Runner
}

// Options 与具体仓库相关的设置
type Options struct {
	ExcludeDomain string
	ReportURL     string
}

// Result 一次 pipeline 的结果。Stage 为结束时所处的阶段，成功时为 StageDone。
type Result struct {
	IssueNumber int
	Stage       Stage
	Err         error
	URLs        []string
	Bundle      models.ScenarioBundle
	Selectors   models.SelectorSet
	Outcome     *models.RunOutcome
	Duration    time.Duration
}

// Completed 是否跑完了所有阶段
func (r *Result) Completed() bool {
	return r.Stage == StageDone && r.Err == nil
}

// Orchestrator 按固定顺序串联各阶段，任一阶段失败即结束
type Orchestrator struct {
	deps Deps
	opts Options
}

// New 创建 Orchestrator
func New(deps Deps, opts Options) *Orchestrator {
	return &Orchestrator{deps: deps, opts: opts}
}

// Run 针对单个 issue 执行完整流程。不会 panic，失败原因记录在 Result.Err 中。
func (o *Orchestrator) Run(ctx context.Context, issueNumber int) *Result {
	xl := trace.Logger(ctx)
	start := time.Now()
	result := &Result{IssueNumber: issueNumber, Stage: StageStart}

	defer func() {
		result.Duration = time.Since(start)
		if result.Err != nil {
			xl.Warnf("Pipeline for issue #%d stopped at %s: %v", issueNumber, result.Stage, result.Err)
		} else {
			xl.Infof("Pipeline for issue #%d finished in %s", issueNumber, result.Duration)
		}
	}()

	// 1. 获取 issue
	result.Stage = StageFetchIssue
	issue := o.deps.Gateway.FetchIssue(ctx, issueNumber)
	if issue == nil {
		result.Err = models.NewStageError(string(StageFetchIssue), models.ErrNetworkOrAuth,
			fmt.Errorf("issue #%d is not available", issueNumber))
		return result
	}
	xl.Infof("Fetched issue #%d: %s", issue.Number, issue.Title)

	// 2. 提取 URL
	result.Stage = StageExtractContext
	result.URLs = content.ExtractURLs(issue.Body, o.opts.ExcludeDomain)
	xl.Infof("Extracted %d URL(s) from issue #%d: %v", len(result.URLs), issueNumber, result.URLs)

	// 3. 生成场景并回写
	result.Stage = StageSynthesizeScenarios
	result.Bundle = o.deps.Scenarios.Synthesize(ctx, issue.Body)
	if !o.deps.Gateway.PostComment(ctx, issueNumber, interaction.ScenarioComment(result.Bundle)) {
		xl.Warnf("Failed to post scenarios to issue #%d, continuing", issueNumber)
	}
	if !result.Bundle.Usable() {
		result.Err = models.NewStageError(string(StageSynthesizeScenarios), models.ErrGeneration,
			fmt.Errorf("test steps could not be generated"))
		return result
	}

	if len(result.URLs) == 0 {
		result.Stage = StageExtractContext
		if !o.deps.Gateway.PostComment(ctx, issueNumber, interaction.AbortNoURLs) {
			xl.Warnf("Failed to post abort notice to issue #%d", issueNumber)
		}
		result.Err = models.NewStageError(string(StageExtractContext), models.ErrEmptyInput,
			fmt.Errorf("no test URLs in issue #%d", issueNumber))
		return result
	}

	// 4. 提取选择器，单个 URL 失败不影响其他 URL
	result.Stage = StageHarvestSelectors
	result.Selectors = o.deps.Harvester.Harvest(ctx, result.URLs)

	// 5. 生成测试脚本
	result.Stage = StageSynthesizeTestScript
	source, err := o.deps.Scripts.Synthesize(ctx, issue.Body, result.URLs, result.Selectors, result.Bundle)
	if err != nil {
		result.Err = err
		return result
	}

	// 6. 写入测试文件和 runner 配置
	result.Stage = StagePersistAndConfigure
	if err := o.deps.Runner.PersistTest(ctx, source); err != nil {
		result.Err = &models.StageError{Stage: string(StagePersistAndConfigure), Err: err}
		return result
	}
	if _, err := o.deps.Runner.EnsureConfig(ctx); err != nil {
		result.Err = &models.StageError{Stage: string(StagePersistAndConfigure), Err: err}
		return result
	}

	// 7. 执行测试，非零退出码只作为结果的一部分回写
	result.Stage = StageExecute
	outcome := o.deps.Runner.Execute(ctx)
	result.Outcome = &outcome

	// 8. 回写结果
	result.Stage = StageReportResult
	if !o.deps.Gateway.PostComment(ctx, issueNumber, interaction.ResultComment(outcome, o.opts.ReportURL)) {
		xl.Warnf("Failed to post test results to issue #%d", issueNumber)
	}

	result.Stage = StageDone
	return result
}
