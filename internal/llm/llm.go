package llm

import (
	"context"
	"fmt"

	"github.com/qiniu/testagent/internal/config"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message 对话中的一条消息
type Message struct {
	Role    string
	Content string
}

// Request 一次补全请求
type Request struct {
	Messages  []Message
	MaxTokens int
}

// Completer 语言模型补全接口，返回第一个 choice 的文本
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New 根据配置创建补全实现
func New(cfg *config.Config) (Completer, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.LLM), nil
	case config.ProviderClaude:
		return NewClaudeLocal(cfg.LLM)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

// Ping 发送一条简单 prompt 检查 API 是否可用
func Ping(ctx context.Context, c Completer) (string, error) {
	return c.Complete(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a helpful assistant."},
			{Role: RoleUser, Content: "Say hello!"},
		},
		MaxTokens: 50,
	})
}
