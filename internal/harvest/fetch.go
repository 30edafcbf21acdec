package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MarkupFetcher 获取页面的原始 HTML
type MarkupFetcher interface {
	FetchMarkup(ctx context.Context, url string) (string, error)
}

// HTTPFetcher 使用一次 GET 请求获取 HTML，重定向交给 net/http 默认处理
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewHTTPFetcher 创建 HTTP 抓取器
func NewHTTPFetcher(userAgent string, maxBodyBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
	}
}

// FetchMarkup 实现 MarkupFetcher 接口
func (f *HTTPFetcher) FetchMarkup(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	var body io.Reader = resp.Body
	if f.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(data), nil
}
