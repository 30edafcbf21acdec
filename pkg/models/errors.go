package models

import (
	"errors"
	"fmt"
)

// Predefined error kinds for pipeline stages
var (
	// tracker or model API unreachable, unauthorized or rate-limited
	ErrNetworkOrAuth = errors.New("network or auth failure")
	// expected shape or section missing from a collaborator response
	ErrParse = errors.New("parse failure")
	// no usable URLs extracted from the issue
	ErrEmptyInput = errors.New("empty input")
	// model declined or returned unusable content
	ErrGeneration = errors.New("generation failure")
	// runner subprocess could not start or exited non-zero
	ErrRunnerProcess = errors.New("runner process failure")
)

// StageError represents a stage failure with context
type StageError struct {
	Stage string // Stage or operation that failed
	Err   error  // Underlying error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError wrapping kind with the cause
func NewStageError(stage string, kind error, cause error) *StageError {
	if cause == nil {
		return &StageError{Stage: stage, Err: kind}
	}
	return &StageError{Stage: stage, Err: fmt.Errorf("%w: %v", kind, cause)}
}
