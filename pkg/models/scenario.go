package models

// 场景输出相关的常量
const (
	// 章节标题，模型输出格式为 "### <标题>:"
	HeadingTestSteps         = "Detailed Test Steps for UI Testing"
	HeadingPositiveScenarios = "Positive Test Scenarios"
	HeadingNegativeScenarios = "Negative Test Scenarios"

	// HeadingMarker 章节标题前缀，同时也是章节结束的分隔符
	HeadingMarker = "###"

	// 占位值
	NoDataGenerated     = "No data generated."
	StepsGenerationFail = "Failed to generate test steps."
)

// ScenarioBundle 模型生成的三段文本：测试步骤、正向场景、反向场景
type ScenarioBundle struct {
	Steps     string `json:"steps"`
	Positives string `json:"positives"`
	Negatives string `json:"negatives"`
}

// FailedScenarioBundle 模型调用整体失败时返回的占位 bundle
func FailedScenarioBundle() ScenarioBundle {
	return ScenarioBundle{
		Steps:     StepsGenerationFail,
		Positives: NoDataGenerated,
		Negatives: NoDataGenerated,
	}
}

// Usable 报告 bundle 是否可以继续用于生成测试脚本
func (b ScenarioBundle) Usable() bool {
	return b.Steps != StepsGenerationFail
}
