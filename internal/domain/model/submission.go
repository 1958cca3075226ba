package model

import "time"

// Verdict is the final judged outcome of a submission attempt.
type Verdict string

const (
	VerdictAccepted            Verdict = "AC"
	VerdictWrongAnswer         Verdict = "WA"
	VerdictTimeLimitExceeded   Verdict = "TLE"
	VerdictMemoryLimitExceeded Verdict = "MLE"
	VerdictRuntimeError        Verdict = "RE"
	VerdictCompilationError    Verdict = "CE"
)

// SubmissionStage is the pipeline's own lifecycle state for one attempt,
// distinct from whatever the external judge reports.
type SubmissionStage string

const (
	StageValidating SubmissionStage = "validating"
	StageCompiling  SubmissionStage = "compiling"
	StageRunning    SubmissionStage = "running"
	StageComplete   SubmissionStage = "complete"
	StageError      SubmissionStage = "error"
)

// SubmissionRequest carries everything the pipeline needs for one attempt.
// Constructed by the caller and read-only once submitted.
type SubmissionRequest struct {
	Code           string     `json:"code"`
	Language       string     `json:"language"`
	Stdin          string     `json:"stdin,omitempty"`
	ExpectedOutput string     `json:"expected_output,omitempty"`
	TestCases      []TestCase `json:"test_cases,omitempty"`
	TimeLimitSec   int        `json:"time_limit_sec,omitempty"`
	MemoryLimitMB  int        `json:"memory_limit_mb,omitempty"`
}

// TestCase is one judged (input, expected output) pair.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// SubmissionProgress is a transient view model pushed to the caller while an
// attempt is in flight. Each update supersedes the previous one; nothing here
// is persisted.
type SubmissionProgress struct {
	Stage       SubmissionStage `json:"stage"`
	Message     string          `json:"message"`
	CurrentTest int             `json:"current_test,omitempty"`
	TotalTests  int             `json:"total_tests,omitempty"`
	Percent     int             `json:"percent"`
}

// SubmissionResult is the terminal outcome of one attempt. Immutable once
// produced; exactly one per attempt that reaches a verdict.
type SubmissionResult struct {
	Success         bool    `json:"success"`
	Verdict         Verdict `json:"verdict"`
	Message         string  `json:"message"`
	FailedTest      int     `json:"failed_test,omitempty"`
	ExecutionTimeMs int     `json:"execution_time_ms"`
	MemoryKb        int     `json:"memory_kb"`
	ExpectedOutput  string  `json:"expected_output,omitempty"`
	ActualOutput    string  `json:"actual_output,omitempty"`
	ErrorOutput     string  `json:"error_output,omitempty"`
}

// SubmissionRecord is the thin persisted trace of a judged attempt inside a
// battle. The live pipeline never reads these back; they exist for history
// and leaderboards.
type SubmissionRecord struct {
	ID              string    `json:"id"`
	BattleID        string    `json:"battle_id"`
	UserID          string    `json:"user_id"`
	ProblemID       string    `json:"problem_id"`
	Language        string    `json:"language"`
	Verdict         Verdict   `json:"verdict"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	MemoryKb        int       `json:"memory_kb"`
	SubmittedAt     time.Time `json:"submitted_at"`
}
