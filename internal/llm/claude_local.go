package llm

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/models"
)

// claudeLocal 本地 claude CLI 实现
type claudeLocal struct {
	binary  string
	timeout time.Duration
}

// NewClaudeLocal 创建本地 claude CLI 补全实现
func NewClaudeLocal(cfg config.LLMConfig) (Completer, error) {
	// 检查 claude CLI 是否可用
	if err := checkClaudeCLI("claude"); err != nil {
		return nil, fmt.Errorf("claude CLI not available: %w", err)
	}

	return &claudeLocal{
		binary:  "claude",
		timeout: cfg.ClaudeTimeout,
	}, nil
}

// checkClaudeCLI 检查 claude CLI 是否可用
func checkClaudeCLI(binary string) error {
	cmd := exec.Command(binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("claude CLI not found or not working: %w", err)
	}
	return nil
}

// Complete 实现 Completer 接口，CLI 不支持 max_tokens，忽略该字段
func (c *claudeLocal) Complete(ctx context.Context, req Request) (string, error) {
	xl := trace.Logger(ctx)

	args := []string{"-p", flattenMessages(req.Messages)}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	xl.Infof("Executing local claude CLI, prompt length: %d", len(args[1]))

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			xl.Warnf("Claude CLI execution timed out after %s", c.timeout)
			return "", models.NewStageError("claude prompt", models.ErrNetworkOrAuth, fmt.Errorf("timed out: %w", err))
		}

		// 检查是否是 API 密钥相关错误
		outputStr := string(output)
		if strings.Contains(outputStr, "API Error") || strings.Contains(outputStr, "fetch failed") {
			return "", models.NewStageError("claude prompt", models.ErrNetworkOrAuth, fmt.Errorf("%w, output: %s", err, outputStr))
		}
		return "", models.NewStageError("claude prompt", models.ErrGeneration, fmt.Errorf("%w, output: %s", err, outputStr))
	}

	content := strings.TrimSpace(string(output))
	if content == "" {
		return "", models.NewStageError("claude prompt", models.ErrGeneration, fmt.Errorf("empty output"))
	}
	return content, nil
}

// flattenMessages 将对话合并为单个 prompt，system 消息放在最前面
func flattenMessages(messages []Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			parts = append([]string{m.Content}, parts...)
			continue
		}
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
