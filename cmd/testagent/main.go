package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/internal/interaction"
	"github.com/qiniu/testagent/internal/llm"
	"github.com/qiniu/testagent/internal/pipeline"
	"github.com/qiniu/testagent/internal/trace"

	"github.com/qiniu/x/log"
	"golang.org/x/term"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	issueNumber := flag.Int("issue", 0, "issue number to test; prompts on stdin when omitted")
	checkLLM := flag.Bool("check-llm", false, "send a test prompt to the model and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	components, err := pipeline.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	ctx := trace.NewContext(context.Background(), trace.NewTraceID(trace.CLIPrefix))

	if *checkLLM {
		reply, err := llm.Ping(ctx, components.Completer)
		if err != nil {
			log.Fatalf("LLM check failed: %v", err)
		}
		log.Infof("LLM replied: %s", reply)
		return
	}

	number := *issueNumber
	if number == 0 {
		// 列出 open issue 仅作参考
		issues := components.GitHub.ListIssues(ctx)
		if err := interaction.RenderIssueList(os.Stdout, issues); err != nil {
			log.Warnf("Failed to render issue list: %v", err)
		}

		number, err = promptIssueNumber(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
		if err != nil {
			log.Fatalf("Failed to read issue number: %v", err)
		}
	}

	result := components.Orchestrator.Run(ctx, number)
	if result.Err != nil {
		log.Warnf("Pipeline for issue #%d ended at %s: %v", number, result.Stage, result.Err)
		return
	}
	if result.Outcome != nil && result.Outcome.Failed {
		log.Infof("Tests for issue #%d finished with failures (exit code %d)", number, result.Outcome.ExitCode)
		return
	}
	log.Infof("Tests for issue #%d passed", number)
}

// promptIssueNumber 从输入读取一个 issue 编号，交互终端下才打印提示
func promptIssueNumber(in io.Reader, out io.Writer, interactive bool) (int, error) {
	if interactive {
		fmt.Fprint(out, "Enter the issue number to process: ")
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}

	text := strings.TrimPrefix(strings.TrimSpace(line), "#")
	number, err := strconv.Atoi(text)
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", strings.TrimSpace(line))
	}
	return number, nil
}
