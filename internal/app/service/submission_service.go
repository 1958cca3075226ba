package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/domain/repository"
)

// SubmissionService fans submissions out to per-competitor orchestrators and
// publishes every progress/result/error event to the battle's redis channel,
// where the websocket layer picks them up. One orchestrator per (battle, user)
// keeps the throttle window and the single-attempt rule scoped to the
// competitor, not the process.
type SubmissionService struct {
	battles    *BattleService
	battleRepo repository.BattleRepository
	rdb        *redis.Client
	validator  *SubmissionValidator
	executor   JudgeExecutor
	cfg        OrchestratorConfig

	mu       sync.Mutex
	sessions map[string]*competitorSession
}

func NewSubmissionService(
	battles *BattleService,
	battleRepo repository.BattleRepository,
	rdb *redis.Client,
	validator *SubmissionValidator,
	executor JudgeExecutor,
	cfg OrchestratorConfig,
) *SubmissionService {
	return &SubmissionService{
		battles:    battles,
		battleRepo: battleRepo,
		rdb:        rdb,
		validator:  validator,
		executor:   executor,
		cfg:        cfg,
		sessions:   make(map[string]*competitorSession),
	}
}

// competitorSession pairs an orchestrator with the metadata of its current
// attempt. The orchestrator allows one attempt at a time, so meta is stable
// for the attempt's whole lifetime.
type competitorSession struct {
	orch *Orchestrator

	mu   sync.Mutex
	meta attemptMeta
}

func (cs *competitorSession) setMeta(m attemptMeta) {
	cs.mu.Lock()
	cs.meta = m
	cs.mu.Unlock()
}

func (cs *competitorSession) currentMeta() attemptMeta {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.meta
}

type attemptMeta struct {
	SubmissionID string
	BattleID     string
	UserID       string
	ProblemID    string
	Language     string
}

type SubmitCodeRequest struct {
	ProblemID string `json:"problem_id"`
	Language  string `json:"language"`
	Code      string `json:"code"`
}

// Submit validates and dispatches one attempt. Validation and throttle
// failures come back synchronously; everything after that flows through the
// battle's event channel.
func (s *SubmissionService) Submit(ctx context.Context, battleID, userID string, req SubmitCodeRequest) (string, error) {
	battle, err := s.battles.GetBattle(ctx, battleID)
	if err != nil {
		return "", err
	}

	var problem *model.ArenaProblem
	for i := range battle.Problems {
		if battle.Problems[i].ID == req.ProblemID {
			problem = &battle.Problems[i]
			break
		}
	}
	if problem == nil {
		return "", fmt.Errorf("problem %s is not part of this battle: %w", req.ProblemID, common.ErrNotFound)
	}

	testCases := make([]model.TestCase, 0, len(problem.Examples))
	for _, ex := range problem.Examples {
		testCases = append(testCases, model.TestCase{Input: ex.Input, ExpectedOutput: ex.Output})
	}

	subReq := model.SubmissionRequest{
		Code:          req.Code,
		Language:      req.Language,
		TestCases:     testCases,
		TimeLimitSec:  problem.TimeLimitSec,
		MemoryLimitMB: problem.MemoryLimitMB,
	}

	session := s.sessionFor(battleID, userID)
	meta := attemptMeta{
		SubmissionID: uuid.NewString(),
		BattleID:     battleID,
		UserID:       userID,
		ProblemID:    problem.ID,
		Language:     req.Language,
	}
	session.setMeta(meta)

	obs := &eventPublisher{svc: s, meta: meta}

	// The attempt outlives the HTTP request that started it, so it runs on
	// its own context; Cancel is the way to stop it.
	if err := session.orch.Submit(context.Background(), subReq, obs); err != nil {
		return "", err
	}
	return meta.SubmissionID, nil
}

// Cancel aborts the competitor's in-flight attempt, if any. Cancelling when
// nothing is running is a no-op.
func (s *SubmissionService) Cancel(battleID, userID string) {
	s.mu.Lock()
	session := s.sessions[sessionKey(battleID, userID)]
	s.mu.Unlock()
	if session != nil {
		session.orch.Cancel()
	}
}

func (s *SubmissionService) sessionFor(battleID, userID string) *competitorSession {
	key := sessionKey(battleID, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		return session
	}

	session := &competitorSession{}
	session.orch = NewOrchestrator(s.validator, s.executor, s.cfg, func(res model.SubmissionResult) {
		s.handleAccepted(session.currentMeta())
	})
	s.sessions[key] = session
	return session
}

func (s *SubmissionService) handleAccepted(meta attemptMeta) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.battleRepo.MarkProblemSolved(ctx, meta.BattleID, meta.UserID, meta.ProblemID, meta.SubmissionID); err != nil {
		log.Printf("ERROR: failed to mark problem %s solved for user %s: %v", meta.ProblemID, meta.UserID, err)
	}
}

func sessionKey(battleID, userID string) string {
	return battleID + ":" + userID
}

// SubmissionEvent is the wire shape published on the battle event channel and
// relayed verbatim to websocket subscribers.
type SubmissionEvent struct {
	Type         string                    `json:"type"` // progress | result | error
	SubmissionID string                    `json:"submission_id"`
	BattleID     string                    `json:"battle_id"`
	UserID       string                    `json:"user_id"`
	ProblemID    string                    `json:"problem_id"`
	Progress     *model.SubmissionProgress `json:"progress,omitempty"`
	Result       *model.SubmissionResult   `json:"result,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

func BattleEventsChannel(battleID string) string {
	return "battle:" + battleID + ":events"
}

// eventPublisher adapts one attempt's observer callbacks onto the battle's
// redis channel and persists the judged record on completion.
type eventPublisher struct {
	svc  *SubmissionService
	meta attemptMeta
}

func (p *eventPublisher) OnProgress(progress model.SubmissionProgress) {
	p.publish(SubmissionEvent{Type: "progress", Progress: &progress})
}

func (p *eventPublisher) OnResult(result model.SubmissionResult) {
	p.publish(SubmissionEvent{Type: "result", Result: &result})

	rec := &model.SubmissionRecord{
		ID:              p.meta.SubmissionID,
		BattleID:        p.meta.BattleID,
		UserID:          p.meta.UserID,
		ProblemID:       p.meta.ProblemID,
		Language:        p.meta.Language,
		Verdict:         result.Verdict,
		ExecutionTimeMs: result.ExecutionTimeMs,
		MemoryKb:        result.MemoryKb,
		SubmittedAt:     time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.svc.battleRepo.RecordSubmission(ctx, rec); err != nil {
		log.Printf("ERROR: failed to record submission %s: %v", rec.ID, err)
	}
}

func (p *eventPublisher) OnError(message string) {
	p.publish(SubmissionEvent{Type: "error", Error: message})
}

func (p *eventPublisher) publish(event SubmissionEvent) {
	event.SubmissionID = p.meta.SubmissionID
	event.BattleID = p.meta.BattleID
	event.UserID = p.meta.UserID
	event.ProblemID = p.meta.ProblemID

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: failed to marshal submission event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.svc.rdb.Publish(ctx, BattleEventsChannel(p.meta.BattleID), data).Err(); err != nil {
		log.Printf("WARN: failed to publish submission event for battle %s: %v", p.meta.BattleID, err)
	}
}
