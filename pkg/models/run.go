package models

import "time"

// RunOutcome 一次测试运行的输出，只在单次 pipeline 内存在
type RunOutcome struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Failed   bool          `json:"failed"`
	Duration time.Duration `json:"duration"`
}
