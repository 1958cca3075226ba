package judge

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Sentinel markers a submission can embed (in a comment) to force a specific
// outcome from the simulator. First match wins, in this order.
const (
	SentinelCompileError = "__TEST_COMPILE_ERROR__"
	SentinelTimeLimit    = "__TEST_TLE__"
	SentinelMemoryLimit  = "__TEST_MLE__"
	SentinelWrongAnswer  = "__TEST_WA__"
	SentinelRuntimeError = "__TEST_RE__"
)

// Simulator stands in for the executor when no API key is configured. It
// keeps the rest of the pipeline and its tests runnable offline: outcomes
// are deterministic per sentinel, only the timing/memory figures of a
// successful run are randomized.
type Simulator struct {
	// delay models judge latency; tests replace it to avoid real sleeps.
	delay func(ctx context.Context) error
}

func NewSimulator() *Simulator {
	return &Simulator{delay: simulatedLatency}
}

func simulatedLatency(ctx context.Context) error {
	d := time.Duration(1000+rand.Intn(2000)) * time.Millisecond
	return sleepCtx(ctx, d)
}

func (s *Simulator) Run(ctx context.Context, req ExecutionRequest, stdin, expected string) (*ExecutionResult, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}

	timeLimitMs := req.TimeLimitSec * 1000
	if timeLimitMs == 0 {
		timeLimitMs = 2000
	}
	memoryLimitKb := req.MemoryLimitMB * 1024
	if memoryLimitKb == 0 {
		memoryLimitKb = 256 * 1024
	}

	switch {
	case strings.Contains(req.Code, SentinelCompileError):
		return &ExecutionResult{
			Status:        StatusCompilationError,
			CompileOutput: "error: expected ';' before '}' token",
			Message:       "Compilation Error",
		}, nil
	case strings.Contains(req.Code, SentinelTimeLimit):
		return &ExecutionResult{
			Status:  StatusTimeLimitExceeded,
			TimeMs:  timeLimitMs,
			Message: "Time Limit Exceeded",
		}, nil
	case strings.Contains(req.Code, SentinelMemoryLimit):
		return &ExecutionResult{
			Status:   StatusMemoryLimitExceeded,
			MemoryKb: memoryLimitKb,
			Message:  "Memory Limit Exceeded",
		}, nil
	case strings.Contains(req.Code, SentinelWrongAnswer):
		return &ExecutionResult{
			Status:  StatusWrongAnswer,
			Stdout:  "simulated wrong output",
			TimeMs:  40 + rand.Intn(200),
			Message: "Wrong Answer",
		}, nil
	case strings.Contains(req.Code, SentinelRuntimeError):
		return &ExecutionResult{
			Status:  StatusRuntimeError,
			Stderr:  "panic: runtime error: index out of range",
			Message: "Runtime Error",
		}, nil
	}

	return &ExecutionResult{
		Success:  true,
		Status:   StatusSuccess,
		Stdout:   expected,
		TimeMs:   40 + rand.Intn(560),
		MemoryKb: 2048 + rand.Intn(63488),
		Message:  "Accepted",
	}, nil
}
