package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/internal/trace"
	"github.com/qiniu/testagent/pkg/models"
)

// Bridge 负责写入生成的测试文件、保证 runner 配置存在并执行 runner
type Bridge struct {
	workDir    string
	testDir    string
	testFile   string
	configFile string
	reportDir  string
	command    []string
}

// New 创建 RunnerBridge
func New(cfg config.RunnerConfig) *Bridge {
	return &Bridge{
		workDir:    cfg.WorkDir,
		testDir:    cfg.TestDir,
		testFile:   cfg.TestFile,
		configFile: cfg.ConfigFile,
		reportDir:  cfg.ReportDir,
		command:    cfg.Command,
	}
}

// TestPath 返回测试发现路径
func (b *Bridge) TestPath() string {
	return filepath.Join(b.workDir, b.testDir, b.testFile)
}

// ConfigPath 返回 runner 配置文件路径
func (b *Bridge) ConfigPath() string {
	return filepath.Join(b.workDir, b.configFile)
}

// PersistTest 将测试源码完整覆盖写入测试发现路径
func (b *Bridge) PersistTest(ctx context.Context, source string) error {
	xl := trace.Logger(ctx)

	dir := filepath.Join(b.workDir, b.testDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create test directory %s: %w", dir, err)
	}

	path := b.TestPath()
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		return fmt.Errorf("failed to write test file %s: %w", path, err)
	}

	xl.Infof("Cypress test script saved to: %s", path)
	return nil
}

// EnsureConfig 配置文件不存在时写入默认配置，存在时不做任何修改。
// 返回是否新建了文件。
func (b *Bridge) EnsureConfig(ctx context.Context) (bool, error) {
	xl := trace.Logger(ctx)

	path := b.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		xl.Infof("Cypress configuration file already exists: %s", path)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.defaultConfig()), 0644); err != nil {
		return false, fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	xl.Infof("Cypress configuration file created at: %s", path)
	return true, nil
}

// defaultConfig 默认的 cypress.config.js 内容
func (b *Bridge) defaultConfig() string {
	specPattern := filepath.ToSlash(filepath.Join(b.testDir, "**", "*"+specSuffix(b.testFile)))
	return fmt.Sprintf(`const { defineConfig } = require("cypress");

module.exports = defineConfig({
    e2e: {
        setupNodeEvents(on, config) {},
        specPattern: %q,
        supportFile: false,
        reporter: "mochawesome",
        reporterOptions: {
            reportDir: %q,
            overwrite: true,
            html: true,
            json: true
        },
    },
});`, specPattern, filepath.ToSlash(b.reportDir))
}

// specSuffix 返回 "generatedTest.spec.js" 中的 ".spec.js"
func specSuffix(name string) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[idx:]
	}
	return filepath.Ext(name)
}

// Execute 执行 runner 并等待其结束。非零退出码记录在 RunOutcome 中，不作为错误返回。
func (b *Bridge) Execute(ctx context.Context) models.RunOutcome {
	xl := trace.Logger(ctx)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(b.command[0], b.command[1:]...)
	cmd.Dir = b.workDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	xl.Infof("Running tests: %s (dir: %s)", strings.Join(b.command, " "), b.workDir)
	start := time.Now()
	err := cmd.Run()

	outcome := models.RunOutcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		outcome.Failed = true
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			// 进程无法启动
			outcome.ExitCode = -1
			if outcome.Stderr != "" {
				outcome.Stderr += "\n"
			}
			outcome.Stderr += err.Error()
		}
		xl.Warnf("Error running Cypress tests: %v", models.NewStageError("run tests", models.ErrRunnerProcess, err))
		return outcome
	}

	xl.Infof("Cypress tests executed successfully in %s", outcome.Duration)
	return outcome
}
