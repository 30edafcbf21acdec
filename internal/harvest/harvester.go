package harvest

import (
	"context"
	"sync"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/models"

	"golang.org/x/time/rate"
)

// Harvester 为每个 URL 获取页面并提取候选选择器
type Harvester struct {
	fetcher MarkupFetcher
	limiter *rate.Limiter
}

// New 根据配置创建 Harvester
func New(cfg config.HarvestConfig) *Harvester {
	var fetcher MarkupFetcher
	if cfg.Render {
		fetcher = NewBrowserFetcher(cfg.ChromePath)
	} else {
		fetcher = NewHTTPFetcher(cfg.UserAgent, cfg.MaxBodyBytes)
	}
	return NewWithFetcher(fetcher, cfg.RequestsPerSecond)
}

// NewWithFetcher 使用指定抓取器创建 Harvester，rps <= 0 表示不限速
func NewWithFetcher(fetcher MarkupFetcher, rps float64) *Harvester {
	h := &Harvester{fetcher: fetcher}
	if rps > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return h
}

// FetchMarkup 获取页面 HTML，任何错误都记录日志并返回 false
func (h *Harvester) FetchMarkup(ctx context.Context, url string) (string, bool) {
	xl := trace.Logger(ctx)

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			xl.Warnf("Rate limiter aborted fetch for %s: %v", url, err)
			return "", false
		}
	}

	markup, err := h.fetcher.FetchMarkup(ctx, url)
	if err != nil {
		xl.Errorf("Failed to fetch HTML for %s: %v", url, err)
		return "", false
	}
	return markup, true
}

// Harvest 并发抓取所有 URL，单个 URL 失败不影响其他 URL，
// 失败的 URL 不会出现在结果中
func (h *Harvester) Harvest(ctx context.Context, urls []string) models.SelectorSet {
	xl := trace.Logger(ctx)

	unique := dedupe(urls)
	results := make([][]string, len(unique))
	ok := make([]bool, len(unique))

	var wg sync.WaitGroup
	for i, u := range unique {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			markup, fetched := h.FetchMarkup(ctx, u)
			if !fetched {
				return
			}
			results[i] = DeriveSelectors(markup)
			ok[i] = true
		}(i, u)
	}
	wg.Wait()

	set := make(models.SelectorSet, len(unique))
	for i, u := range unique {
		if ok[i] {
			set[u] = results[i]
			xl.Infof("Extracted %d selectors from %s", len(results[i]), u)
		}
	}
	return set
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
