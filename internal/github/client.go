package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/models"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v58/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Client issue tracker 的薄封装：拉取单个 Issue、列出 Issue、发表评论
type Client struct {
	client  *github.Client
	graphql *githubv4.Client
	owner   string
	repo    string
	monitor *RateLimitMonitor
}

// NewClient 优先使用 token，未配置 token 时使用 GitHub App 安装身份
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
		return nil, fmt.Errorf("GitHub owner and repo are required")
	}

	tc, err := newHTTPClient(cfg.GitHub)
	if err != nil {
		return nil, err
	}
	client := github.NewClient(tc)

	if cfg.GitHub.APIBaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.GitHub.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API base URL: %w", err)
		}
		client.BaseURL = baseURL
	}

	return &Client{
		client:  client,
		graphql: newGraphQLClient(cfg.GitHub.APIBaseURL, tc),
		owner:   cfg.GitHub.Owner,
		repo:    cfg.GitHub.Repo,
		monitor: NewRateLimitMonitor(defaultRateLimitThreshold),
	}, nil
}

// newHTTPClient 创建带鉴权的 http.Client
func newHTTPClient(cfg config.GitHubConfig) (*http.Client, error) {
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		return oauth2.NewClient(context.Background(), ts), nil
	}

	app := cfg.App
	if !app.IsConfigured() {
		return nil, fmt.Errorf("GitHub token is required")
	}

	var (
		tr  *ghinstallation.Transport
		err error
	)
	if app.PrivateKeyPath != "" {
		tr, err = ghinstallation.NewKeyFromFile(http.DefaultTransport, app.AppID, app.InstallationID, app.PrivateKeyPath)
	} else {
		tr, err = ghinstallation.New(http.DefaultTransport, app.AppID, app.InstallationID, []byte(app.PrivateKey))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	if cfg.APIBaseURL != "" {
		tr.BaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	}
	return &http.Client{Transport: tr}, nil
}

// GetIssue 获取单个 Issue
func (c *Client) GetIssue(ctx context.Context, number int) (*models.Issue, error) {
	issue, resp, err := c.client.Issues.Get(ctx, c.owner, c.repo, number)
	c.monitor.Record(ctx, resp)
	if err != nil {
		return nil, classify("get issue", err)
	}
	return toIssue(issue)
}

// ListOpenIssues 列出仓库中所有打开的 Issue（不包含 PR），通过 GraphQL 分页读取
func (c *Client) ListOpenIssues(ctx context.Context) ([]*models.Issue, error) {
	nodes, err := c.queryOpenIssues(ctx)
	if err != nil {
		return nil, models.NewStageError("list issues", models.ErrNetworkOrAuth, err)
	}

	issues := make([]*models.Issue, 0, len(nodes))
	for _, node := range nodes {
		if node.Number == 0 {
			return nil, models.NewStageError("decode issue", models.ErrParse, fmt.Errorf("issue number missing"))
		}
		issues = append(issues, &models.Issue{
			Number:  node.Number,
			Title:   node.Title,
			Body:    node.Body,
			HTMLURL: node.URL,
		})
	}
	return issues, nil
}

// CreateComment 在 Issue 上创建评论，返回评论链接
func (c *Client) CreateComment(ctx context.Context, number int, body string) (string, error) {
	comment := &github.IssueComment{
		Body: &body,
	}

	created, resp, err := c.client.Issues.CreateComment(ctx, c.owner, c.repo, number, comment)
	c.monitor.Record(ctx, resp)
	if err != nil {
		return "", classify("create comment", err)
	}
	return created.GetHTMLURL(), nil
}

// RateLimit 返回最近一次观察到的 API 限流状态
func (c *Client) RateLimit() RateLimitStatus {
	return c.monitor.Status()
}

// FetchIssue 获取 Issue，失败时记录日志并返回 nil
func (c *Client) FetchIssue(ctx context.Context, number int) *models.Issue {
	xl := trace.Logger(ctx)

	issue, err := c.GetIssue(ctx, number)
	if err != nil {
		xl.Errorf("Failed to fetch issue #%d: %v", number, err)
		return nil
	}
	return issue
}

// ListIssues 列出 Issue，失败时记录日志并返回空列表
func (c *Client) ListIssues(ctx context.Context) []*models.Issue {
	xl := trace.Logger(ctx)

	issues, err := c.ListOpenIssues(ctx)
	if err != nil {
		xl.Errorf("Failed to list issues: %v", err)
		return []*models.Issue{}
	}
	return issues
}

// PostComment 尽力发表评论，失败只记录日志
func (c *Client) PostComment(ctx context.Context, number int, body string) bool {
	xl := trace.Logger(ctx)

	commentURL, err := c.CreateComment(ctx, number, body)
	if err != nil {
		xl.Errorf("Failed to post comment to issue #%d: %v", number, err)
		return false
	}
	xl.Infof("Comment posted successfully: %s", commentURL)
	return true
}

// toIssue 校验并转换 GitHub 返回的 Issue
func toIssue(issue *github.Issue) (*models.Issue, error) {
	if issue == nil || issue.Number == nil {
		return nil, models.NewStageError("decode issue", models.ErrParse, fmt.Errorf("issue number missing"))
	}
	return &models.Issue{
		Number:  issue.GetNumber(),
		Title:   issue.GetTitle(),
		Body:    issue.GetBody(),
		HTMLURL: issue.GetHTMLURL(),
	}, nil
}

// classify 将 go-github 的错误归类为网络/鉴权失败
func classify(op string, err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return models.NewStageError(op, models.ErrNetworkOrAuth,
			fmt.Errorf("HTTP %d: %s", errResp.Response.StatusCode, errResp.Message))
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return models.NewStageError(op, models.ErrNetworkOrAuth, fmt.Errorf("rate limited: %s", rateErr.Message))
	}
	return models.NewStageError(op, models.ErrNetworkOrAuth, err)
}
