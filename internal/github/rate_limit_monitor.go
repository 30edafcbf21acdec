package github

import (
	"context"
	"sync"
	"time"

	"github.com/qiniu/testagent/internal/trace"

	"github.com/google/go-github/v58/github"
)

// defaultRateLimitThreshold 剩余调用次数低于该值时告警
const defaultRateLimitThreshold = 100

// RateLimitMonitor 记录 REST 与 GraphQL 调用返回的限流信息，余量不足时告警
type RateLimitMonitor struct {
	threshold int

	mutex   sync.RWMutex
	calls   int64
	rest    RateLimitStatus
	graphQL RateLimitStatus
}

// RateLimitStatus 最近一次观察到的限流状态
type RateLimitStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	LastCheck time.Time `json:"last_check"`
}

// NewRateLimitMonitor 创建限流监控，threshold <= 0 时使用默认阈值
func NewRateLimitMonitor(threshold int) *RateLimitMonitor {
	if threshold <= 0 {
		threshold = defaultRateLimitThreshold
	}
	return &RateLimitMonitor{threshold: threshold}
}

// Record 记录一次 REST 调用。resp 为 nil（例如网络错误）或不带限流头时只计数。
func (m *RateLimitMonitor) Record(ctx context.Context, resp *github.Response) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}

	m.rest = RateLimitStatus{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		ResetAt:   resp.Rate.Reset.Time,
		LastCheck: time.Now(),
	}
	m.warn(ctx, "REST", m.rest)
}

// RecordGraphQL 记录一次 GraphQL 查询的限流信息
func (m *RateLimitMonitor) RecordGraphQL(ctx context.Context, limit, remaining, cost int, resetAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	if limit == 0 {
		return
	}

	m.graphQL = RateLimitStatus{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		LastCheck: time.Now(),
	}
	trace.Logger(ctx).Debugf("GraphQL API call cost: %d", cost)
	m.warn(ctx, "GraphQL", m.graphQL)
}

func (m *RateLimitMonitor) warn(ctx context.Context, apiType string, status RateLimitStatus) {
	xl := trace.Logger(ctx)
	if status.Remaining <= m.threshold {
		percentage := float64(status.Remaining) / float64(status.Limit) * 100
		xl.Warnf("%s API rate limit warning: %d/%d remaining (%.1f%%), resets at %s",
			apiType, status.Remaining, status.Limit, percentage, status.ResetAt.Format("15:04:05"))
		return
	}
	xl.Debugf("%s API rate limit: %d/%d remaining, resets at %s",
		apiType, status.Remaining, status.Limit, status.ResetAt.Format("15:04:05"))
}

// Status 返回最近一次 REST 调用的限流状态
func (m *RateLimitMonitor) Status() RateLimitStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.rest
}

// GraphQLStatus 返回最近一次 GraphQL 查询的限流状态
func (m *RateLimitMonitor) GraphQLStatus() RateLimitStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.graphQL
}

// Calls 返回已记录的调用次数
func (m *RateLimitMonitor) Calls() int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.calls
}
