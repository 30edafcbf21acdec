package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/signature"

	"github.com/google/go-github/v58/github"
	"github.com/qiniu/x/log"
)

// RunFunc 针对单个 issue 执行 e2e pipeline
type RunFunc func(ctx context.Context, issueNumber int)

// Handler 接收 GitHub webhook，在评论 /e2e 或打上 e2e 标签时触发 pipeline
type Handler struct {
	config *config.Config
	run    RunFunc

	// 测试文件路径是共享的，同一时间只允许一个 pipeline 运行
	runMu sync.Mutex
	wg    sync.WaitGroup
}

// NewHandler 创建 webhook 处理器
func NewHandler(cfg *config.Config, run RunFunc) *Handler {
	return &Handler{config: cfg, run: run}
}

// HandleWebhook 通用 Webhook 处理器
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	// 1. 读取请求体（需要在验证签名之前读取）
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid body"))
		return
	}

	// 2. 配置了 secret 时验证签名
	if h.config.Server.WebhookSecret != "" {
		if err := signature.Verify(r.Header, body, h.config.Server.WebhookSecret); err != nil {
			log.Warnf("Webhook signature validation failed: %v", err)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
	}

	// 3. 获取事件类型
	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("missing X-GitHub-Event header"))
		return
	}
	log.Infof("Received webhook event: %s (delivery: %s)", eventType, r.Header.Get("X-GitHub-Delivery"))

	switch eventType {
	case "issue_comment":
		h.handleIssueComment(w, body)
	case "issues":
		h.handleIssues(w, body)
	case "ping":
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	default:
		log.Debugf("Unhandled event type: %s", eventType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("event type not handled"))
	}
}

// handleIssueComment 处理 Issue 评论中的触发命令
func (h *Handler) handleIssueComment(w http.ResponseWriter, body []byte) {
	var event github.IssueCommentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Errorf("Failed to unmarshal issue comment event: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid issue comment event"))
		return
	}

	if event.Comment == nil || event.Issue == nil || event.GetAction() != "created" {
		w.WriteHeader(http.StatusOK)
		return
	}
	// PR 上的评论不触发
	if event.Issue.PullRequestLinks != nil {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pull request comments are ignored"))
		return
	}

	if !isTriggerCommand(event.Comment.GetBody(), h.config.Server.TriggerCommand) {
		log.Debugf("No trigger command found in comment on issue #%d", event.Issue.GetNumber())
		w.WriteHeader(http.StatusOK)
		return
	}

	h.start(trace.IssueCommentPrefix, event.Issue.GetNumber())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("e2e pipeline started"))
}

// handleIssues 处理 Issue 打标签事件
func (h *Handler) handleIssues(w http.ResponseWriter, body []byte) {
	var event github.IssuesEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Errorf("Failed to unmarshal issues event: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid issues event"))
		return
	}

	if event.GetAction() != "labeled" || event.Issue == nil ||
		!strings.EqualFold(event.GetLabel().GetName(), h.config.Server.TriggerLabel) {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.start(trace.IssuesPrefix, event.Issue.GetNumber())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("e2e pipeline started"))
}

// start 异步执行 pipeline，多个请求按顺序串行执行
func (h *Handler) start(source string, issueNumber int) {
	ctx := trace.NewContext(context.Background(), trace.NewTraceID(source))
	xl := trace.Logger(ctx)
	xl.Infof("Queued e2e pipeline for issue #%d", issueNumber)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runMu.Lock()
		defer h.runMu.Unlock()

		xl.Infof("Starting e2e pipeline for issue #%d", issueNumber)
		h.run(ctx, issueNumber)
	}()
}

// Wait 等待所有已触发的 pipeline 结束
func (h *Handler) Wait() {
	h.wg.Wait()
}

// isTriggerCommand 评论的第一个词必须与命令完全一致
func isTriggerCommand(comment, command string) bool {
	fields := strings.Fields(comment)
	return len(fields) > 0 && fields[0] == command
}
