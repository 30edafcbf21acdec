package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_REPO", "GITHUB_APP_ID", "GITHUB_APP_INSTALLATION_ID", "GITHUB_APP_PRIVATE_KEY_PATH", "OPENAI_API_KEY", "LLM_PROVIDER", "LLM_MODEL", "WEBHOOK_SECRET", "PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	// 创建临时目录
	tempDir := t.TempDir()
	configContent := `github:
  token: file-token
  owner: giveth
  repo: dapps
llm:
  model: gpt-4o-mini
runner:
  test_dir: e2e/generated
`
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.GitHub.Token)
	assert.Equal(t, "giveth", cfg.GitHub.Owner)
	assert.Equal(t, "dapps", cfg.GitHub.Repo)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "e2e/generated", cfg.Runner.TestDir)

	// 未配置的字段使用默认值
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "github.com", cfg.GitHub.ExcludeDomain)
	assert.Equal(t, "generatedTest.spec.js", cfg.Runner.TestFile)
	assert.Equal(t, []string{"npx", "cypress", "run"}, cfg.Runner.Command)
	assert.Equal(t, "https://raw.githubusercontent.com/giveth/dapps/main/cypress/reports/mochawesome.html", cfg.Runner.ReportURL)
	assert.Less(t, cfg.LLM.ScenarioMaxTokens, cfg.LLM.ScriptMaxTokens)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("github:\n  token: file-token\n  owner: a\n  repo: b\n"), 0644))

	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("GITHUB_REPO", "octo/widgets")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "9090")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, "octo", cfg.GitHub.Owner)
	assert.Equal(t, "widgets", cfg.GitHub.Repo)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("GITHUB_REPO", "octo/widgets")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/e2e", cfg.Server.TriggerCommand)
	assert.Zero(t, cfg.LLM.ClaudeTimeout)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("github: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	t.Setenv("TESTAGENT_EXISTING", "from-env")
	os.Unsetenv("TESTAGENT_NEW")
	t.Cleanup(func() { os.Unsetenv("TESTAGENT_NEW") })

	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nTESTAGENT_EXISTING=from-file\nTESTAGENT_NEW=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loadDotEnv(path)

	assert.Equal(t, "from-env", os.Getenv("TESTAGENT_EXISTING"))
	assert.Equal(t, "quoted", os.Getenv("TESTAGENT_NEW"))
}

func TestLoadDotEnvSyntax(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		key      string
		expected string
	}{
		{name: "export prefix", line: "export TESTAGENT_DOTENV=tok123", key: "TESTAGENT_DOTENV", expected: "tok123"},
		{name: "inline comment", line: "TESTAGENT_DOTENV=sk-abc # openai key", key: "TESTAGENT_DOTENV", expected: "sk-abc"},
		{name: "hash inside value", line: "TESTAGENT_DOTENV=abc#def", key: "TESTAGENT_DOTENV", expected: "abc#def"},
		{name: "single quoted", line: "TESTAGENT_DOTENV='a b'", key: "TESTAGENT_DOTENV", expected: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(tt.key)
			t.Cleanup(func() { os.Unsetenv(tt.key) })

			path := filepath.Join(t.TempDir(), ".env")
			require.NoError(t, os.WriteFile(path, []byte(tt.line+"\n"), 0644))

			loadDotEnv(path)

			value, ok := os.LookupEnv(tt.key)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	os.Unsetenv("TESTAGENT_NEW")
	loadDotEnv(filepath.Join(t.TempDir(), ".env"))
	_, ok := os.LookupEnv("TESTAGENT_NEW")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			GitHub: GitHubConfig{Token: "t", Owner: "o", Repo: "r"},
			LLM:    LLMConfig{APIKey: "k"},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		errorContains string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.GitHub.Token = "" }, errorContains: "token"},
		{name: "github app instead of token", mutate: func(c *Config) {
			c.GitHub.Token = ""
			c.GitHub.App = GitHubAppConfig{AppID: 1, InstallationID: 2, PrivateKeyPath: "/keys/app.pem"}
		}},
		{name: "incomplete github app", mutate: func(c *Config) {
			c.GitHub.Token = ""
			c.GitHub.App = GitHubAppConfig{AppID: 1, PrivateKeyPath: "/keys/app.pem"}
		}, errorContains: "GitHub App"},
		{name: "missing repo", mutate: func(c *Config) { c.GitHub.Repo = "" }, errorContains: "repository"},
		{name: "missing api key", mutate: func(c *Config) { c.LLM.APIKey = "" }, errorContains: "OPENAI_API_KEY"},
		{name: "claude needs no key", mutate: func(c *Config) { c.LLM.APIKey = ""; c.LLM.Provider = ProviderClaude }},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "bard" }, errorContains: "unsupported"},
		{name: "script budget too small", mutate: func(c *Config) { c.LLM.ScriptMaxTokens = c.LLM.ScenarioMaxTokens }, errorContains: "script_max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestGitHubAppFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_REPO", "octo/widgets")
	t.Setenv("GITHUB_APP_ID", "123")
	t.Setenv("GITHUB_APP_INSTALLATION_ID", "456")
	t.Setenv("GITHUB_APP_PRIVATE_KEY_PATH", "/keys/app.pem")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, int64(123), cfg.GitHub.App.AppID)
	assert.Equal(t, int64(456), cfg.GitHub.App.InstallationID)
	assert.Equal(t, "/keys/app.pem", cfg.GitHub.App.PrivateKeyPath)
	assert.True(t, cfg.GitHub.App.IsConfigured())
}
