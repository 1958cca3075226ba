package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/judge"
)

// JudgeExecutor is what the orchestrator needs from the judge boundary.
// Satisfied by *judge.Client and by test fakes.
type JudgeExecutor interface {
	Execute(ctx context.Context, req judge.ExecutionRequest) (*judge.ExecutionResult, error)
}

// SubmissionObserver receives the progress/result/error stream for one
// attempt. Events are delivered from the attempt's own goroutine, strictly
// ordered, and never regress through the stage sequence.
type SubmissionObserver interface {
	OnProgress(p model.SubmissionProgress)
	OnResult(r model.SubmissionResult)
	OnError(message string)
}

// OrchestratorConfig carries the pipeline's timing knobs so tests can shrink
// them instead of sleeping in real time.
type OrchestratorConfig struct {
	MaxRetries      int
	RetryBaseDelay  time.Duration
	PollInterval    time.Duration
	MaxPolls        int
	StallWarnAfter  time.Duration
	StallAlertAfter time.Duration
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxRetries:      3,
		RetryBaseDelay:  time.Second,
		PollInterval:    time.Second,
		MaxPolls:        60,
		StallWarnAfter:  10 * time.Second,
		StallAlertAfter: 30 * time.Second,
	}
}

const supportNote = " If this keeps happening, contact support."

var stageOrder = map[model.SubmissionStage]int{
	model.StageValidating: 0,
	model.StageCompiling:  1,
	model.StageRunning:    2,
	model.StageComplete:   3,
	model.StageError:      3,
}

// Orchestrator owns the end-to-end lifecycle of one submission attempt at a
// time: validate, dispatch with retry, watch for completion, map the verdict
// and keep the caller informed. One instance serves one competitor.
type Orchestrator struct {
	validator *SubmissionValidator
	executor  JudgeExecutor
	cfg       OrchestratorConfig

	// onAccepted fires after an accepted verdict; it runs detached and its
	// failure never fails the submission.
	onAccepted func(model.SubmissionResult)

	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu               sync.Mutex
	inFlight         bool
	attempt          uint64
	cancelAttempt    context.CancelFunc
	lastSubmissionAt time.Time
	lastStage        model.SubmissionStage
	lastPercent      int
}

func NewOrchestrator(validator *SubmissionValidator, executor JudgeExecutor, cfg OrchestratorConfig, onAccepted func(model.SubmissionResult)) *Orchestrator {
	return &Orchestrator{
		validator:  validator,
		executor:   executor,
		cfg:        cfg,
		onAccepted: onAccepted,
		clock:      time.Now,
		sleep:      sleepCtx,
	}
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

// Submit starts one attempt. Validation failures are returned synchronously
// and nothing is dispatched; otherwise the attempt proceeds on its own
// goroutine and the observer receives every subsequent event.
func (o *Orchestrator) Submit(ctx context.Context, req model.SubmissionRequest, obs SubmissionObserver) error {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return common.ErrSubmissionInFlight
	}
	if err := o.validator.Validate(req.Code, req.Language, o.lastSubmissionAt); err != nil {
		o.mu.Unlock()
		return err
	}

	// Recorded before dispatch so a slow-to-fail attempt still counts
	// toward the throttle window.
	o.lastSubmissionAt = o.clock()
	o.inFlight = true
	o.lastStage = ""
	o.lastPercent = 0
	// Each attempt carries a generation token so a cancelled predecessor's
	// late cleanup or stray events cannot touch this attempt's state.
	o.attempt++
	gen := o.attempt
	attemptCtx, cancel := context.WithCancel(ctx)
	o.cancelAttempt = cancel
	o.mu.Unlock()

	o.emit(gen, obs, model.SubmissionProgress{
		Stage:   model.StageValidating,
		Message: "Validating your submission",
		Percent: 10,
	})

	go o.run(attemptCtx, cancel, gen, req, obs)
	return nil
}

// Cancel aborts any in-flight attempt: the network layer unwinds first (via
// the attempt context), the watch loop's timers stop with it, and the
// orchestrator is left ready for a new submission. Safe to call from any
// state, including when nothing is running.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	// Bump the generation so the cancelled attempt's goroutine can no longer
	// emit or clear state that belongs to a successor.
	o.attempt++
	cancel := o.cancelAttempt
	o.cancelAttempt = nil
	o.inFlight = false
	o.lastStage = ""
	o.lastPercent = 0
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// current reports whether gen is still the live attempt.
func (o *Orchestrator) current(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return gen == o.attempt
}

type execOutcome struct {
	res *judge.ExecutionResult
	err error
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, gen uint64, req model.SubmissionRequest, obs SubmissionObserver) {
	defer func() {
		// Unblocks the dispatch goroutine on the timeout path too.
		cancel()
		o.mu.Lock()
		// A cancelled attempt only clears its own state; by now a successor
		// may have started and owns these fields.
		if gen == o.attempt {
			o.inFlight = false
			o.cancelAttempt = nil
		}
		o.mu.Unlock()
	}()

	total := len(req.TestCases)
	caseCh := make(chan int, 1)
	execReq := judge.ExecutionRequest{
		Code:           req.Code,
		Language:       req.Language,
		Stdin:          req.Stdin,
		ExpectedOutput: req.ExpectedOutput,
		TestCases:      req.TestCases,
		TimeLimitSec:   req.TimeLimitSec,
		MemoryLimitMB:  req.MemoryLimitMB,
		OnTestCase: func(current, _ int) {
			select {
			case caseCh <- current:
			default: // the watch loop is behind; the next case will catch it up
			}
		},
	}

	resultCh := make(chan execOutcome, 1)
	go func() {
		res, err := o.dispatchWithRetry(ctx, execReq)
		resultCh <- execOutcome{res: res, err: err}
	}()

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()
	warn := time.NewTimer(o.cfg.StallWarnAfter)
	defer warn.Stop()
	alert := time.NewTimer(o.cfg.StallAlertAfter)
	defer alert.Stop()

	polls := 0
	for {
		select {
		case <-ctx.Done():
			// Cancelled. A distinct non-error terminal state: no result, no
			// error callback, ready for the next attempt.
			return

		case out := <-resultCh:
			o.finish(ctx, gen, out, obs)
			return

		case current := <-caseCh:
			percent := 30
			if total > 0 {
				percent += 60 * current / total
				if percent > 90 {
					percent = 90
				}
			}
			o.emit(gen, obs, model.SubmissionProgress{
				Stage:       model.StageRunning,
				Message:     "Running test cases",
				CurrentTest: current,
				TotalTests:  total,
				Percent:     percent,
			})

		case <-warn.C:
			o.emitAtCurrentStage(gen, obs, "This is taking longer than usual. You can cancel and try again.")

		case <-alert.C:
			o.emitAtCurrentStage(gen, obs, "The judge service is experiencing delays. Refreshing the page may help.")

		case <-ticker.C:
			polls++
			if polls > o.cfg.MaxPolls {
				o.fail(gen, obs, "The submission timed out. Please try again.")
				return
			}
			o.emit(gen, obs, model.SubmissionProgress{
				Stage:   model.StageCompiling,
				Message: "Compiling your code",
				Percent: 25,
			})
		}
	}
}

func (o *Orchestrator) dispatchWithRetry(ctx context.Context, req judge.ExecutionRequest) (*judge.ExecutionResult, error) {
	for attempt := 0; ; attempt++ {
		res, err := o.executor.Execute(ctx, req)
		if err == nil {
			return res, nil
		}
		// Only network-class failures are worth another dispatch; judge
		// verdicts and exhausted rate limits are final.
		if !errors.Is(err, judge.ErrTransport) || attempt >= o.cfg.MaxRetries {
			return nil, err
		}
		delay := o.cfg.RetryBaseDelay * (1 << attempt)
		log.Printf("WARN: Judge dispatch failed (%v), retrying in %s (attempt %d/%d)", err, delay, attempt+1, o.cfg.MaxRetries)
		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

func (o *Orchestrator) finish(ctx context.Context, gen uint64, out execOutcome, obs SubmissionObserver) {
	if out.err != nil {
		if ctx.Err() != nil || errors.Is(out.err, context.Canceled) {
			return
		}
		o.fail(gen, obs, userSafeMessage(out.err))
		return
	}

	result, ok := toSubmissionResult(out.res)
	if !ok {
		// The judge reported an internal problem, not a verdict.
		msg := out.res.Message
		if msg == "" {
			msg = "Something went wrong while judging your submission. Please try again."
		}
		o.fail(gen, obs, msg)
		return
	}

	if !o.current(gen) {
		return
	}
	o.emit(gen, obs, model.SubmissionProgress{
		Stage:   model.StageComplete,
		Message: result.Message,
		Percent: 100,
	})
	obs.OnResult(result)

	if result.Success && o.onAccepted != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("ERROR: accepted-submission hook panicked: %v", r)
				}
			}()
			o.onAccepted(result)
		}()
	}
}

func (o *Orchestrator) fail(gen uint64, obs SubmissionObserver, message string) {
	if !o.current(gen) {
		return
	}
	message += supportNote
	o.emit(gen, obs, model.SubmissionProgress{
		Stage:   model.StageError,
		Message: message,
		Percent: 100,
	})
	obs.OnError(message)
}

// emit delivers a progress update, dropping stale-attempt events and anything
// that would regress the stage sequence.
func (o *Orchestrator) emit(gen uint64, obs SubmissionObserver, p model.SubmissionProgress) {
	o.mu.Lock()
	if gen != o.attempt {
		o.mu.Unlock()
		return
	}
	if o.lastStage != "" && stageOrder[p.Stage] < stageOrder[o.lastStage] {
		o.mu.Unlock()
		return
	}
	if o.lastStage != "" && stageOrder[o.lastStage] >= stageOrder[model.StageComplete] {
		o.mu.Unlock()
		return
	}
	o.lastStage = p.Stage
	if p.Percent > o.lastPercent {
		o.lastPercent = p.Percent
	}
	o.mu.Unlock()
	obs.OnProgress(p)
}

// emitAtCurrentStage pushes a message without advancing or regressing the
// stage or the percent, for the stall warnings.
func (o *Orchestrator) emitAtCurrentStage(gen uint64, obs SubmissionObserver, message string) {
	o.mu.Lock()
	if gen != o.attempt {
		o.mu.Unlock()
		return
	}
	stage := o.lastStage
	percent := o.lastPercent
	o.mu.Unlock()
	if stage == "" || stageOrder[stage] >= stageOrder[model.StageComplete] {
		return
	}
	obs.OnProgress(model.SubmissionProgress{Stage: stage, Message: message, Percent: percent})
}

// userSafeMessage strips technical detail from pipeline failures. Raw HTTP
// statuses and wrapped transport errors never reach the caller.
func userSafeMessage(err error) string {
	switch {
	case errors.Is(err, judge.ErrRateLimited):
		return "The judge is handling too many submissions right now. Please wait a moment and try again."
	case errors.Is(err, judge.ErrUnavailable):
		return "The judge service is temporarily unavailable. Please try again shortly."
	case errors.Is(err, judge.ErrUnauthorized):
		return "The arena is not configured correctly. Please contact support."
	case errors.Is(err, judge.ErrTransport):
		return "We could not reach the judge service. Check your connection and try again."
	default:
		return "Something went wrong while judging your submission. Please try again."
	}
}

// toSubmissionResult maps a judge outcome onto a verdict. Returns ok=false
// when the outcome is not a legitimate verdict (internal errors).
func toSubmissionResult(res *judge.ExecutionResult) (model.SubmissionResult, bool) {
	out := model.SubmissionResult{
		ExecutionTimeMs: res.TimeMs,
		MemoryKb:        res.MemoryKb,
		FailedTest:      res.FailedTest,
	}

	switch res.Status {
	case judge.StatusSolved, judge.StatusSuccess:
		out.Success = true
		out.Verdict = model.VerdictAccepted
		out.Message = "Accepted! All test cases passed."
	case judge.StatusWrongAnswer:
		out.Verdict = model.VerdictWrongAnswer
		out.Message = "Wrong answer."
		if res.Message != "" {
			out.Message = "Wrong answer: " + res.Message
		}
	case judge.StatusTimeLimitExceeded:
		out.Verdict = model.VerdictTimeLimitExceeded
		out.Message = "Time limit exceeded."
	case judge.StatusMemoryLimitExceeded:
		out.Verdict = model.VerdictMemoryLimitExceeded
		out.Message = "Memory limit exceeded."
	case judge.StatusRuntimeError:
		out.Verdict = model.VerdictRuntimeError
		out.Message = "Runtime error."
		out.ErrorOutput = res.Stderr
	case judge.StatusCompilationError:
		out.Verdict = model.VerdictCompilationError
		out.Message = "Compilation error."
		out.ErrorOutput = res.CompileOutput
	default:
		return model.SubmissionResult{}, false
	}

	if res.FailedTest > 0 && res.FailedTest <= len(res.TestResults) {
		failed := res.TestResults[res.FailedTest-1]
		out.ExpectedOutput = failed.Expected
		out.ActualOutput = failed.Actual
	}
	return out, true
}
