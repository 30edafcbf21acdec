package trace

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/qiniu/x/xlog"
)

// TraceID 表示一次 pipeline 运行的追踪 ID
type TraceID string

// 为不同的触发来源定义追踪前缀
const (
	TracePrefix        = "testagent"
	CLIPrefix          = "cli"
	IssueCommentPrefix = "issue_comment"
	IssuesPrefix       = "issues"
)

// generateTraceID 生成唯一的追踪 ID
func generateTraceID() TraceID {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// 随机数生成失败时使用时间戳
		return TraceID(fmt.Sprintf("%s_%d", TracePrefix, time.Now().UnixNano()))
	}
	return TraceID(fmt.Sprintf("%s_%x", TracePrefix, bytes))
}

// NewTraceID 创建新的追踪 ID
func NewTraceID(source string) TraceID {
	return TraceID(fmt.Sprintf("%s_%s", source, generateTraceID()))
}

type contextKey string

const traceLoggerKey contextKey = "trace_logger"

// NewContext 创建带有追踪日志器的上下文
func NewContext(ctx context.Context, traceID TraceID) context.Context {
	return context.WithValue(ctx, traceLoggerKey, xlog.New(string(traceID)))
}

// Logger 从上下文中获取追踪日志器，不存在时返回 xlog.NewWith(ctx)
func Logger(ctx context.Context) *xlog.Logger {
	if logger, ok := ctx.Value(traceLoggerKey).(*xlog.Logger); ok {
		return logger
	}
	return xlog.NewWith(ctx)
}

// GetTraceID 从上下文中获取追踪 ID
func GetTraceID(ctx context.Context) TraceID {
	if logger, ok := ctx.Value(traceLoggerKey).(*xlog.Logger); ok {
		return TraceID(logger.ReqId)
	}
	return ""
}
