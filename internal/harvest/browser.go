package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher 使用 headless Chrome 渲染页面后读取 DOM，
// 适用于 class 由前端脚本生成的页面
type BrowserFetcher struct {
	execPath string
	settle   time.Duration
	timeout  time.Duration
}

// NewBrowserFetcher 创建浏览器抓取器，execPath 为空时自动查找 Chrome
func NewBrowserFetcher(execPath string) *BrowserFetcher {
	return &BrowserFetcher{
		execPath: execPath,
		settle:   time.Second,
		timeout:  30 * time.Second,
	}
}

// FetchMarkup 实现 MarkupFetcher 接口
func (f *BrowserFetcher) FetchMarkup(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
	)
	if f.execPath != "" {
		opts = append(opts, chromedp.ExecPath(f.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, f.timeout)
	defer runCancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle), // 等待异步内容
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}
