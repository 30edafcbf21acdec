package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/qiniu/x/log"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	LLM     LLMConfig     `yaml:"llm"`
	Harvest HarvestConfig `yaml:"harvest"`
	Runner  RunnerConfig  `yaml:"runner"`
	Prompt  PromptConfig  `yaml:"prompt"`
	Server  ServerConfig  `yaml:"server"`
}

type GitHubConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	// URL 中包含该域名的链接不会作为测试目标
	ExcludeDomain string `yaml:"exclude_domain"`
	// 为空时使用 api.github.com
	APIBaseURL string `yaml:"api_base_url"`
	// 未配置 token 时使用 GitHub App 安装身份
	App GitHubAppConfig `yaml:"app"`
}

type GitHubAppConfig struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
}

// IsConfigured GitHub App 的身份信息是否完整
func (a GitHubAppConfig) IsConfigured() bool {
	return a.AppID != 0 && a.InstallationID != 0 && (a.PrivateKeyPath != "" || a.PrivateKey != "")
}

type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	ScenarioMaxTokens int           `yaml:"scenario_max_tokens"`
	ScriptMaxTokens   int           `yaml:"script_max_tokens"`
	// 为 0 时不限制 claude CLI 的执行时间
	ClaudeTimeout     time.Duration `yaml:"claude_timeout"`
}

type HarvestConfig struct {
	Render            bool    `yaml:"render"`
	ChromePath        string  `yaml:"chrome_path"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxBodyBytes      int64   `yaml:"max_body_bytes"`
	UserAgent         string  `yaml:"user_agent"`
}

type RunnerConfig struct {
	WorkDir    string   `yaml:"work_dir"`
	TestDir    string   `yaml:"test_dir"`
	TestFile   string   `yaml:"test_file"`
	ConfigFile string   `yaml:"config_file"`
	ReportDir  string   `yaml:"report_dir"`
	Command    []string `yaml:"command"`
	ReportURL  string   `yaml:"report_url"`
}

type PromptConfig struct {
	TemplateDir string `yaml:"template_dir"`
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	WebhookSecret  string `yaml:"webhook_secret"`
	TriggerLabel   string `yaml:"trigger_label"`
	TriggerCommand string `yaml:"trigger_command"`
}

func Load(configPath string) (*Config, error) {
	loadDotEnv(".env")

	config := &Config{}
	// 首先尝试从文件加载
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// 环境变量覆盖敏感配置
	config.loadFromEnv()
	config.applyDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	if appID, err := strconv.ParseInt(os.Getenv("GITHUB_APP_ID"), 10, 64); err == nil {
		c.GitHub.App.AppID = appID
	}
	if installationID, err := strconv.ParseInt(os.Getenv("GITHUB_APP_INSTALLATION_ID"), 10, 64); err == nil {
		c.GitHub.App.InstallationID = installationID
	}
	if keyPath := os.Getenv("GITHUB_APP_PRIVATE_KEY_PATH"); keyPath != "" {
		c.GitHub.App.PrivateKeyPath = keyPath
	}
	if repo := os.Getenv("GITHUB_REPO"); repo != "" {
		if owner, name, ok := strings.Cut(repo, "/"); ok {
			c.GitHub.Owner = owner
			c.GitHub.Repo = name
		}
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		c.Server.WebhookSecret = secret
	}
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	c.GitHub.ExcludeDomain = getOrDefault(c.GitHub.ExcludeDomain, "github.com")

	c.LLM.Provider = getOrDefault(c.LLM.Provider, ProviderOpenAI)
	c.LLM.Model = getOrDefault(c.LLM.Model, "gpt-3.5-turbo")
	if c.LLM.ScenarioMaxTokens == 0 {
		c.LLM.ScenarioMaxTokens = 1500
	}
	if c.LLM.ScriptMaxTokens == 0 {
		c.LLM.ScriptMaxTokens = 3000
	}

	if c.Harvest.MaxBodyBytes == 0 {
		c.Harvest.MaxBodyBytes = 5 * 1024 * 1024
	}
	c.Harvest.UserAgent = getOrDefault(c.Harvest.UserAgent, "testagent/1.0")

	c.Runner.WorkDir = getOrDefault(c.Runner.WorkDir, ".")
	c.Runner.TestDir = getOrDefault(c.Runner.TestDir, "cypress/integration")
	c.Runner.TestFile = getOrDefault(c.Runner.TestFile, "generatedTest.spec.js")
	c.Runner.ConfigFile = getOrDefault(c.Runner.ConfigFile, "cypress.config.js")
	c.Runner.ReportDir = getOrDefault(c.Runner.ReportDir, "cypress/reports")
	if len(c.Runner.Command) == 0 {
		c.Runner.Command = []string{"npx", "cypress", "run"}
	}
	if c.Runner.ReportURL == "" && c.GitHub.Owner != "" && c.GitHub.Repo != "" {
		c.Runner.ReportURL = fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main/%s/mochawesome.html",
			c.GitHub.Owner, c.GitHub.Repo, c.Runner.ReportDir)
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	c.Server.TriggerLabel = getOrDefault(c.Server.TriggerLabel, "e2e")
	c.Server.TriggerCommand = getOrDefault(c.Server.TriggerCommand, "/e2e")
}

// Validate 检查运行 pipeline 必需的配置
func (c *Config) Validate() error {
	if c.GitHub.Token == "" && !c.GitHub.App.IsConfigured() {
		return fmt.Errorf("GitHub token or GitHub App is required (set GITHUB_TOKEN)")
	}
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return fmt.Errorf("GitHub repository is required (set GITHUB_REPO=owner/name)")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
		}
	case ProviderClaude:
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}
	// 测试代码比场景文本长，脚本预算必须更大
	if c.LLM.ScriptMaxTokens <= c.LLM.ScenarioMaxTokens {
		return fmt.Errorf("script_max_tokens (%d) must be larger than scenario_max_tokens (%d)",
			c.LLM.ScriptMaxTokens, c.LLM.ScenarioMaxTokens)
	}
	if len(c.Runner.Command) == 0 {
		return fmt.Errorf("runner command is required")
	}
	return nil
}

// loadDotEnv 读取 .env 文件，已存在的环境变量不会被覆盖
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to load %s: %v", path, err)
	}
}

func getOrDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
