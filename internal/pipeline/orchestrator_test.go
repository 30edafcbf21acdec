package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/qiniu/testagent/internal/interaction"
	"github.com/qiniu/testagent/internal/llm"
	"github.com/qiniu/testagent/internal/prompt"
	"github.com/qiniu/testagent/internal/scenario"
	"github.com/qiniu/testagent/internal/testscript"
	"github.com/qiniu/testagent/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioResponse = `### Detailed Test Steps for UI Testing:
1. Visit https://example.com/page
2. Scroll to the footer

### Positive Test Scenarios:
- The banner is fully visible above the footer

### Negative Test Scenarios:
- The banner covers footer links
`

const scriptResponse = "```javascript\n" + `describe('Banner', () => {
  it('does not overlap the footer', () => {
    cy.visit('https://example.com/page');
    cy.get('.site-banner', { timeout: 10000 }).should('exist');
  });
});` + "\n```\nThis test checks the banner."

// mockGateway 记录所有回写的评论
type mockGateway struct {
	issue      *models.Issue
	comments   []string
	commentErr bool
}

func (m *mockGateway) FetchIssue(ctx context.Context, number int) *models.Issue {
	return m.issue
}

func (m *mockGateway) PostComment(ctx context.Context, number int, body string) bool {
	if m.commentErr {
		return false
	}
	m.comments = append(m.comments, body)
	return true
}

type mockScenarios struct {
	bundle models.ScenarioBundle
	calls  int
}

func (m *mockScenarios) Synthesize(ctx context.Context, issueBody string) models.ScenarioBundle {
	m.calls++
	return m.bundle
}

type mockHarvester struct {
	urls []string
}

func (m *mockHarvester) Harvest(ctx context.Context, urls []string) models.SelectorSet {
	m.urls = urls
	set := make(models.SelectorSet, len(urls))
	for _, u := range urls {
		set[u] = []string{".site-banner"}
	}
	return set
}

type mockScripts struct {
	source string
	err    error
	calls  int
}

func (m *mockScripts) Synthesize(ctx context.Context, issueBody string, urls []string, selectors models.SelectorSet, bundle models.ScenarioBundle) (string, error) {
	m.calls++
	return m.source, m.err
}

// mockRunner 记录写入的测试文件和执行次数
type mockRunner struct {
	outcome      models.RunOutcome
	persisted    []string
	configCalls  int
	executeCalls int
	persistErr   error
}

func (m *mockRunner) PersistTest(ctx context.Context, source string) error {
	if m.persistErr != nil {
		return m.persistErr
	}
	m.persisted = append(m.persisted, source)
	return nil
}

func (m *mockRunner) EnsureConfig(ctx context.Context) (bool, error) {
	m.configCalls++
	return m.configCalls == 1, nil
}

func (m *mockRunner) Execute(ctx context.Context) models.RunOutcome {
	m.executeCalls++
	return m.outcome
}

// scriptedCompleter 按调用顺序返回预设响应
type scriptedCompleter struct {
	responses []string
	requests  []llm.Request
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	if len(s.requests) > len(s.responses) {
		return "", fmt.Errorf("unexpected completion call %d", len(s.requests))
	}
	return s.responses[len(s.requests)-1], nil
}

func usableBundle() models.ScenarioBundle {
	return models.ScenarioBundle{Steps: "1. open", Positives: "- ok", Negatives: "- not ok"}
}

func TestRunEndToEnd(t *testing.T) {
	manager, err := prompt.NewManager("")
	require.NoError(t, err)
	builder := prompt.NewBuilder(manager)

	completer := &scriptedCompleter{responses: []string{scenarioResponse, scriptResponse}}
	gateway := &mockGateway{issue: &models.Issue{
		Number: 42,
		Title:  "Banner overlaps footer",
		Body:   "Banner overlaps footer. See https://example.com/page for repro.",
	}}
	harvester := &mockHarvester{}
	runner := &mockRunner{outcome: models.RunOutcome{
		Stdout:   "  1 failing\n  AssertionError: expected .site-banner to exist",
		ExitCode: 1,
		Failed:   true,
	}}

	o := New(Deps{
		Gateway:   gateway,
		Scenarios: scenario.NewSynthesizer(completer, builder, 1500),
		Harvester: harvester,
		Scripts:   testscript.NewSynthesizer(completer, builder, 3000),
		Runner:    runner,
	}, Options{ExcludeDomain: "github.com", ReportURL: "https://example.test/report.html"})

	result := o.Run(context.Background(), 42)

	require.NoError(t, result.Err)
	assert.True(t, result.Completed())
	assert.Equal(t, []string{"https://example.com/page"}, result.URLs)
	assert.Equal(t, []string{"https://example.com/page"}, harvester.urls)

	assert.NotEqual(t, models.NoDataGenerated, result.Bundle.Steps)
	assert.NotEqual(t, models.StepsGenerationFail, result.Bundle.Steps)
	assert.NotEqual(t, models.NoDataGenerated, result.Bundle.Positives)
	assert.NotEqual(t, models.NoDataGenerated, result.Bundle.Negatives)

	require.Len(t, runner.persisted, 1)
	assert.True(t, strings.HasSuffix(runner.persisted[0], "});"))
	assert.NotContains(t, runner.persisted[0], "This test checks the banner.")
	assert.Equal(t, 1, runner.configCalls)
	assert.Equal(t, 1, runner.executeCalls)

	require.Len(t, gateway.comments, 2)
	assert.Equal(t, interaction.ScenarioComment(result.Bundle), gateway.comments[0])
	assert.Contains(t, gateway.comments[1], runner.outcome.Stdout)
	assert.Contains(t, gateway.comments[1], "exit code 1")
	require.NotNil(t, result.Outcome)
	assert.True(t, result.Outcome.Failed)
}

func TestRunAbortsWithoutURLs(t *testing.T) {
	gateway := &mockGateway{issue: &models.Issue{
		Number: 7,
		Body:   "The banner is broken, see https://github.com/org/repo/issues/3",
	}}
	scripts := &mockScripts{source: "describe('x', () => {});"}
	runner := &mockRunner{}

	o := New(Deps{
		Gateway:   gateway,
		Scenarios: &mockScenarios{bundle: usableBundle()},
		Harvester: &mockHarvester{},
		Scripts:   scripts,
		Runner:    runner,
	}, Options{ExcludeDomain: "github.com"})

	result := o.Run(context.Background(), 7)

	assert.Equal(t, StageExtractContext, result.Stage)
	assert.True(t, errors.Is(result.Err, models.ErrEmptyInput))
	assert.Empty(t, result.URLs)
	assert.Equal(t, 0, scripts.calls)
	assert.Empty(t, runner.persisted)
	assert.Equal(t, 0, runner.executeCalls)
	require.Len(t, gateway.comments, 2)
	assert.Equal(t, interaction.AbortNoURLs, gateway.comments[1])
}

func TestRunStopsOnFailedScenarios(t *testing.T) {
	gateway := &mockGateway{issue: &models.Issue{Number: 3, Body: "See https://example.com/page"}}
	harvester := &mockHarvester{}
	scripts := &mockScripts{source: "describe('x', () => {});"}
	runner := &mockRunner{}

	o := New(Deps{
		Gateway:   gateway,
		Scenarios: &mockScenarios{bundle: models.FailedScenarioBundle()},
		Harvester: harvester,
		Scripts:   scripts,
		Runner:    runner,
	}, Options{})

	result := o.Run(context.Background(), 3)

	assert.Equal(t, StageSynthesizeScenarios, result.Stage)
	assert.True(t, errors.Is(result.Err, models.ErrGeneration))
	assert.Nil(t, harvester.urls)
	assert.Equal(t, 0, scripts.calls)
	assert.Empty(t, runner.persisted)
	assert.Equal(t, 0, runner.executeCalls)
	assert.Nil(t, result.Outcome)
}

func TestRunMissingIssue(t *testing.T) {
	scenarios := &mockScenarios{bundle: usableBundle()}
	gateway := &mockGateway{}

	o := New(Deps{
		Gateway:   gateway,
		Scenarios: scenarios,
		Harvester: &mockHarvester{},
		Scripts:   &mockScripts{},
		Runner:    &mockRunner{},
	}, Options{})

	result := o.Run(context.Background(), 99)

	assert.Equal(t, StageFetchIssue, result.Stage)
	assert.True(t, errors.Is(result.Err, models.ErrNetworkOrAuth))
	assert.Equal(t, 0, scenarios.calls)
	assert.Empty(t, gateway.comments)
}

func TestRunStopsOnScriptFailure(t *testing.T) {
	scriptErr := models.NewStageError("synthesize test script", models.ErrGeneration, errors.New("model returned no code"))
	runner := &mockRunner{}

	o := New(Deps{
		Gateway:   &mockGateway{issue: &models.Issue{Number: 5, Body: "https://example.com/a"}},
		Scenarios: &mockScenarios{bundle: usableBundle()},
		Harvester: &mockHarvester{},
		Scripts:   &mockScripts{err: scriptErr},
		Runner:    runner,
	}, Options{})

	result := o.Run(context.Background(), 5)

	assert.Equal(t, StageSynthesizeTestScript, result.Stage)
	assert.True(t, errors.Is(result.Err, models.ErrGeneration))
	assert.Empty(t, runner.persisted)
	assert.Equal(t, 0, runner.executeCalls)
}

func TestRunStopsOnPersistFailure(t *testing.T) {
	runner := &mockRunner{persistErr: errors.New("read-only file system")}

	o := New(Deps{
		Gateway:   &mockGateway{issue: &models.Issue{Number: 5, Body: "https://example.com/a"}},
		Scenarios: &mockScenarios{bundle: usableBundle()},
		Harvester: &mockHarvester{},
		Scripts:   &mockScripts{source: "describe('x', () => {});"},
		Runner:    runner,
	}, Options{})

	result := o.Run(context.Background(), 5)

	assert.Equal(t, StagePersistAndConfigure, result.Stage)
	assert.Error(t, result.Err)
	assert.Equal(t, 0, runner.configCalls)
	assert.Equal(t, 0, runner.executeCalls)
}

func TestRunCompletesWhenCommentsFail(t *testing.T) {
	runner := &mockRunner{outcome: models.RunOutcome{Stdout: "1 passing"}}

	o := New(Deps{
		Gateway:   &mockGateway{issue: &models.Issue{Number: 8, Body: "https://example.com/a"}, commentErr: true},
		Scenarios: &mockScenarios{bundle: usableBundle()},
		Harvester: &mockHarvester{},
		Scripts:   &mockScripts{source: "describe('x', () => {});"},
		Runner:    runner,
	}, Options{})

	result := o.Run(context.Background(), 8)

	assert.True(t, result.Completed())
	assert.Equal(t, 1, runner.executeCalls)
}
