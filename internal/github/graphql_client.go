package github

import (
	"context"
	"net/http"
	"strings"

	"github.com/shurcooL/githubv4"
)

// openIssuesQuery issues 连接本身不包含 PR，无需再过滤
type openIssuesQuery struct {
	Repository struct {
		Issues struct {
			Nodes []struct {
				Number githubv4.Int
				Title  githubv4.String
				Body   githubv4.String
				URL    githubv4.String `graphql:"url"`
			}
			PageInfo struct {
				EndCursor   githubv4.String
				HasNextPage githubv4.Boolean
			}
		} `graphql:"issues(first: 100, after: $cursor, states: OPEN, orderBy: {field: CREATED_AT, direction: ASC})"`
	} `graphql:"repository(owner: $owner, name: $name)"`
	RateLimit struct {
		Limit     githubv4.Int
		Cost      githubv4.Int
		Remaining githubv4.Int
		ResetAt   githubv4.DateTime
	}
}

// graphQLEndpoint 由 REST 地址推导 GraphQL 地址
// GitHub Enterprise: https://host/api/v3 -> https://host/api/graphql
func graphQLEndpoint(apiBaseURL string) string {
	base := strings.TrimSuffix(apiBaseURL, "/")
	if strings.HasSuffix(base, "/api/v3") {
		return strings.TrimSuffix(base, "/v3") + "/graphql"
	}
	return base + "/graphql"
}

// newGraphQLClient 创建 GraphQL 客户端，apiBaseURL 为空时使用 api.github.com
func newGraphQLClient(apiBaseURL string, httpClient *http.Client) *githubv4.Client {
	if apiBaseURL == "" {
		return githubv4.NewClient(httpClient)
	}
	return githubv4.NewEnterpriseClient(graphQLEndpoint(apiBaseURL), httpClient)
}

// queryOpenIssues 分页读取所有 open issue
func (c *Client) queryOpenIssues(ctx context.Context) ([]openIssueNode, error) {
	variables := map[string]interface{}{
		"owner":  githubv4.String(c.owner),
		"name":   githubv4.String(c.repo),
		"cursor": (*githubv4.String)(nil),
	}

	var all []openIssueNode
	for {
		var query openIssuesQuery
		if err := c.graphql.Query(ctx, &query, variables); err != nil {
			c.monitor.Record(ctx, nil)
			return nil, err
		}
		c.monitor.RecordGraphQL(ctx, int(query.RateLimit.Limit), int(query.RateLimit.Remaining),
			int(query.RateLimit.Cost), query.RateLimit.ResetAt.Time)

		for _, node := range query.Repository.Issues.Nodes {
			all = append(all, openIssueNode{
				Number: int(node.Number),
				Title:  string(node.Title),
				Body:   string(node.Body),
				URL:    string(node.URL),
			})
		}

		if !query.Repository.Issues.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(query.Repository.Issues.PageInfo.EndCursor)
	}
	return all, nil
}

type openIssueNode struct {
	Number int
	Title  string
	Body   string
	URL    string
}
