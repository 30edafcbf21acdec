package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/pkg/models"

	openai "github.com/sashabaranov/go-openai"
)

// openAIClient Chat Completions API 实现
type openAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAI 创建 OpenAI 补全实现
func NewOpenAI(cfg config.LLMConfig) Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Complete 实现 Completer 接口
func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", models.NewStageError("chat completion", models.ErrNetworkOrAuth,
				fmt.Errorf("HTTP %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
		}
		return "", models.NewStageError("chat completion", models.ErrNetworkOrAuth, err)
	}

	if len(resp.Choices) == 0 {
		return "", models.NewStageError("chat completion", models.ErrParse, fmt.Errorf("response has no choices"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", models.NewStageError("chat completion", models.ErrGeneration, fmt.Errorf("empty completion"))
	}
	return content, nil
}
