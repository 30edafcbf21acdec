package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	TemplateScenario   = "scenario_generation"
	TemplateTestScript = "test_script_generation"
)

// Template 表示一个 Prompt 模板
type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	System      string `yaml:"system" json:"system"`
	Content     string `yaml:"content" json:"content"`
	Source      string `yaml:"source" json:"source"` // "default" 或 "custom"
}

// Manager 管理内置模板和目录中的自定义模板
type Manager struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// NewManager 创建 Prompt Manager，templateDir 为空时只使用内置模板
func NewManager(templateDir string) (*Manager, error) {
	pm := &Manager{
		templates: make(map[string]*Template),
	}
	pm.loadDefaultTemplates()

	if templateDir != "" {
		if err := pm.loadCustomTemplates(templateDir); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

// GetTemplate 获取模板
func (pm *Manager) GetTemplate(id string) (*Template, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	tmpl, ok := pm.templates[id]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", id)
	}
	return tmpl, nil
}

// loadDefaultTemplates 加载内置模板
func (pm *Manager) loadDefaultTemplates() {
	pm.templates[TemplateScenario] = &Template{
		ID:          TemplateScenario,
		Name:        "Test steps and scenarios",
		Description: "根据 Issue 描述生成测试步骤、正向场景和反向场景",
		System:      "You are a QA engineer.",
		Content:     scenarioTemplate,
		Source:      "default",
	}
	pm.templates[TemplateTestScript] = &Template{
		ID:          TemplateTestScript,
		Name:        "Cypress test generation",
		Description: "根据 Issue、场景和页面中真实存在的选择器生成 Cypress 测试代码",
		System:      "You are a Cypress expert and a QA engineer.",
		Content:     testScriptTemplate,
		Source:      "default",
	}
}

// loadCustomTemplates 从目录加载 *.yaml 模板，覆盖同 ID 的内置模板
func (pm *Manager) loadCustomTemplates(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to list templates in %s: %w", dir, err)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}

		var tmpl Template
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		if tmpl.ID == "" {
			tmpl.ID = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		if strings.TrimSpace(tmpl.Content) == "" {
			return fmt.Errorf("template %s has empty content", file)
		}

		// 未指定 system 时沿用内置模板的 system 消息
		if existing, ok := pm.templates[tmpl.ID]; ok && tmpl.System == "" {
			tmpl.System = existing.System
		}
		tmpl.Source = "custom"
		pm.templates[tmpl.ID] = &tmpl
	}
	return nil
}
