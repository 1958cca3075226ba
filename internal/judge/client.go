package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"code_arena/internal/domain/model"
)

// Sentinel errors for the judging boundary. ErrTransport wraps network-class
// failures that the caller may retry; the others are final once returned
// (the client has already burned its own retry budget on 429/5xx).
var (
	ErrTransport    = errors.New("judge transport failure")
	ErrRateLimited  = errors.New("judge rate limit exceeded")
	ErrUnavailable  = errors.New("judge service unavailable")
	ErrUnauthorized = errors.New("judge rejected the configured credentials")
)

const (
	defaultCallTimeout    = 60 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 2 * time.Second
)

// ExecutionRequest is one unit of work for the judge: a single run against
// optional stdin/expected output, or a sequential run over TestCases.
type ExecutionRequest struct {
	Code           string
	Language       string
	Stdin          string
	ExpectedOutput string
	TestCases      []model.TestCase
	TimeLimitSec   int
	MemoryLimitMB  int

	// OnTestCase, when set, is invoked before each test case of a multi-case
	// run so the caller can surface per-case progress.
	OnTestCase func(current, total int)
}

// TestCaseResult is the per-case entry of a multi-case breakdown.
type TestCaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	TimeMs   int    `json:"time_ms"`
	MemoryKb int    `json:"memory_kb"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// ExecutionResult is the uniform outcome the rest of the pipeline consumes,
// whether it came from the real executor or the simulator.
type ExecutionResult struct {
	Success       bool             `json:"success"`
	Status        Status           `json:"status"`
	Stdout        string           `json:"stdout,omitempty"`
	Stderr        string           `json:"stderr,omitempty"`
	CompileOutput string           `json:"compile_output,omitempty"`
	TimeMs        int              `json:"time_ms"`
	MemoryKb      int              `json:"memory_kb"`
	Message       string           `json:"message"`
	FailedTest    int              `json:"failed_test,omitempty"`
	TestResults   []TestCaseResult `json:"test_results,omitempty"`
}

// Client fronts a Judge0-compatible HTTP executor. With no API key
// configured it transparently switches to the built-in simulator, so the
// orchestrator never needs to know which mode it is in.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	callTimeout    time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
	sim            *Simulator

	// sleep is swapped out in tests so backoff does not burn real time.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientConfig carries the client's timing knobs. Zero values fall back to
// the defaults (60 s call timeout, 3 retries, 2 s base delay).
type ClientConfig struct {
	CallTimeout    time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithConfig(baseURL, apiKey, ClientConfig{})
}

func NewClientWithConfig(baseURL, apiKey string, cfg ClientConfig) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		httpClient:     &http.Client{},
		callTimeout:    cfg.CallTimeout,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		sim:            NewSimulator(),
		sleep:          sleepCtx,
	}
}

// Simulated reports whether the client runs without judge credentials.
func (c *Client) Simulated() bool {
	return c.apiKey == ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// judge0Request mirrors the executor's submission body.
type judge0Request struct {
	SourceCode   string  `json:"source_code"`
	LanguageID   int     `json:"language_id"`
	Stdin        string  `json:"stdin,omitempty"`
	CPUTimeLimit float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit  int     `json:"memory_limit,omitempty"`
}

// judge0Response mirrors the synchronous wait=true response body.
type judge0Response struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
}

// Execute runs a submission to a terminal outcome. Multi-case requests fan
// out sequentially over the single-case path.
func (c *Client) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	if len(req.TestCases) > 0 {
		return c.executeTestCases(ctx, req)
	}
	return c.executeSingle(ctx, req, req.Stdin, req.ExpectedOutput)
}

func (c *Client) executeSingle(ctx context.Context, req ExecutionRequest, stdin, expected string) (*ExecutionResult, error) {
	languageID, ok := LanguageID(req.Language)
	if !ok {
		// No network call for a language we cannot express to the judge.
		return &ExecutionResult{
			Status:  StatusInternalError,
			Message: fmt.Sprintf("Language %q is not supported in the arena", req.Language),
		}, nil
	}

	if c.Simulated() {
		return c.sim.Run(ctx, req, stdin, expected)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	body := judge0Request{
		SourceCode:   req.Code,
		LanguageID:   languageID,
		Stdin:        stdin,
		CPUTimeLimit: float64(req.TimeLimitSec),
		MemoryLimit:  req.MemoryLimitMB * 1024,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal judge request: %w", err)
	}

	var lastStatus int
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBaseDelay << (attempt - 1) // 2s -> 4s -> 8s
			log.Printf("WARN: Judge returned HTTP %d, retrying in %s (attempt %d/%d)", lastStatus, delay, attempt, c.maxRetries)
			if err := c.sleep(callCtx, delay); err != nil {
				return c.timeoutOrCancelled(ctx, err)
			}
		}

		httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost,
			c.baseURL+"/submissions?base64_encoded=false&wait=true", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to build judge request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if callCtx.Err() != nil {
				return c.timeoutOrCancelled(ctx, callCtx.Err())
			}
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastStatus = resp.StatusCode
			if attempt == c.maxRetries {
				return nil, ErrRateLimited
			}
			continue
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastStatus = resp.StatusCode
			if attempt == c.maxRetries {
				return nil, ErrUnavailable
			}
			continue
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrUnauthorized
		case resp.StatusCode >= 400:
			resp.Body.Close()
			return nil, fmt.Errorf("judge rejected the submission (HTTP %d): %w", resp.StatusCode, ErrUnavailable)
		}

		var wire judge0Response
		err = json.NewDecoder(resp.Body).Decode(&wire)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode judge response: %w", err)
		}
		return resultFromWire(wire, expected), nil
	}

	// The loop always returns; this is unreachable but keeps the compiler honest.
	return nil, ErrUnavailable
}

// timeoutOrCancelled distinguishes the client-side wall clock expiring from
// the caller cancelling. The former is a terminal outcome (reported as a
// client timeout, distinct from the judge's own TLE verdict); the latter
// propagates as-is so the orchestrator can unwind.
func (c *Client) timeoutOrCancelled(parent context.Context, err error) (*ExecutionResult, error) {
	if parent.Err() != nil {
		return nil, parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ExecutionResult{
			Status:  StatusTimeLimitExceeded,
			Message: fmt.Sprintf("The judge did not respond within %d seconds", int(c.callTimeout.Seconds())),
		}, nil
	}
	return nil, err
}

func resultFromWire(wire judge0Response, expected string) *ExecutionResult {
	res := &ExecutionResult{
		Status:  StatusFromCode(wire.Status.ID),
		Message: wire.Status.Description,
	}
	if wire.Stdout != nil {
		res.Stdout = *wire.Stdout
	}
	if wire.Stderr != nil {
		res.Stderr = *wire.Stderr
	}
	if wire.CompileOutput != nil {
		res.CompileOutput = *wire.CompileOutput
	}
	if wire.Time != nil {
		if sec, err := strconv.ParseFloat(*wire.Time, 64); err == nil {
			res.TimeMs = int(sec * 1000)
		}
	}
	if wire.Memory != nil {
		res.MemoryKb = *wire.Memory
	}

	if res.Status == StatusSuccess && expected != "" &&
		strings.TrimSpace(res.Stdout) != strings.TrimSpace(expected) {
		res.Status = StatusWrongAnswer
		res.Message = "Output does not match the expected answer"
	}
	res.Success = res.Status == StatusSuccess
	return res
}

func (c *Client) executeTestCases(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	total := len(req.TestCases)
	breakdown := make([]TestCaseResult, 0, total)
	passed, totalTimeMs, maxMemoryKb := 0, 0, 0

	for i, tc := range req.TestCases {
		if req.OnTestCase != nil {
			req.OnTestCase(i+1, total)
		}

		res, err := c.executeSingle(ctx, req, tc.Input, tc.ExpectedOutput)
		if err != nil {
			return nil, fmt.Errorf("test case %d: %w", i+1, err)
		}

		casePassed := res.Status == StatusSuccess &&
			strings.TrimSpace(res.Stdout) == strings.TrimSpace(tc.ExpectedOutput)
		if casePassed {
			passed++
		}
		totalTimeMs += res.TimeMs
		if res.MemoryKb > maxMemoryKb {
			maxMemoryKb = res.MemoryKb
		}
		breakdown = append(breakdown, TestCaseResult{
			Index:    i + 1,
			Passed:   casePassed,
			TimeMs:   res.TimeMs,
			MemoryKb: res.MemoryKb,
			Expected: strings.TrimSpace(tc.ExpectedOutput),
			Actual:   strings.TrimSpace(res.Stdout),
		})

		// Compile errors and resource verdicts end the run immediately; later
		// cases would only repeat the same failure.
		if res.Status != StatusSuccess && res.Status != StatusWrongAnswer {
			res.TestResults = breakdown
			res.FailedTest = i + 1
			res.Success = false
			if res.Message == "" {
				res.Message = fmt.Sprintf("Execution stopped on test case %d", i+1)
			}
			return res, nil
		}
	}

	agg := &ExecutionResult{
		TimeMs:      totalTimeMs / total,
		MemoryKb:    maxMemoryKb,
		TestResults: breakdown,
	}
	if passed == total {
		agg.Status = StatusSolved
		agg.Success = true
		agg.Message = fmt.Sprintf("All %d test cases passed", total)
	} else {
		agg.Status = StatusWrongAnswer
		agg.Message = fmt.Sprintf("%d/%d test cases passed", passed, total)
		for _, b := range breakdown {
			if !b.Passed {
				agg.FailedTest = b.Index
				break
			}
		}
	}
	return agg, nil
}
