package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/judge"
)

func newTestSubmissionService(t *testing.T, exec JudgeExecutor) (*SubmissionService, *BattleService, *fakeBattleRepo, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	repo := newFakeBattleRepo()
	battles := NewBattleService(repo, rdb, time.Hour, 3)
	subs := NewSubmissionService(battles, repo, rdb, noThrottleValidator(), exec, testOrchestratorConfig())
	return subs, battles, repo, rdb
}

// collectEvents subscribes to a battle's event channel and decodes everything
// published there until a terminal event or the deadline.
func collectEvents(t *testing.T, rdb *redis.Client, battleID string) <-chan SubmissionEvent {
	t.Helper()
	sub := rdb.Subscribe(context.Background(), BattleEventsChannel(battleID))
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	t.Cleanup(func() { sub.Close() })

	out := make(chan SubmissionEvent, 64)
	go func() {
		for msg := range sub.Channel() {
			var ev SubmissionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			out <- ev
		}
	}()
	return out
}

func waitForEvent(t *testing.T, events <-chan SubmissionEvent, eventType string) SubmissionEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == eventType {
				return ev
			}
			if ev.Type == "error" && eventType != "error" {
				t.Fatalf("pipeline error: %s", ev.Error)
			}
		case <-deadline:
			t.Fatalf("no %q event arrived", eventType)
		}
	}
}

func TestSubmitPublishesEventsAndPersists(t *testing.T) {
	exec := &fakeExecutor{fn: func(ctx context.Context, req judge.ExecutionRequest) (*judge.ExecutionResult, error) {
		return solvedResult(), nil
	}}
	subs, battles, repo, rdb := newTestSubmissionService(t, exec)
	ctx := context.Background()

	battle, err := battles.CreateBattle(ctx, "host-1", CreateBattleRequest{Rating: 1200})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}
	problem := battle.Problems[0]
	events := collectEvents(t, rdb, battle.ID)

	submissionID, err := subs.Submit(ctx, battle.ID, "user-1", SubmitCodeRequest{
		ProblemID: problem.ID,
		Language:  "go",
		Code:      validCode,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submissionID == "" {
		t.Fatal("empty submission id")
	}

	progress := waitForEvent(t, events, "progress")
	if progress.SubmissionID != submissionID || progress.BattleID != battle.ID || progress.UserID != "user-1" {
		t.Fatalf("progress event metadata wrong: %+v", progress)
	}

	result := waitForEvent(t, events, "result")
	if result.Result == nil || result.Result.Verdict != model.VerdictAccepted {
		t.Fatalf("result event = %+v, want accepted", result)
	}
	if result.ProblemID != problem.ID {
		t.Errorf("result problem id = %q, want %q", result.ProblemID, problem.ID)
	}

	// Persistence and the solve mark are asynchronous to the event stream.
	deadline := time.After(5 * time.Second)
	for {
		repo.mu.Lock()
		recorded := len(repo.records) > 0
		_, solved := repo.solves[battle.ID+":user-1:"+problem.ID]
		repo.mu.Unlock()
		if recorded && solved {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("recorded=%v solved=%v after an accepted verdict", recorded, solved)
		case <-time.After(5 * time.Millisecond):
		}
	}

	repo.mu.Lock()
	rec := repo.records[0]
	repo.mu.Unlock()
	if rec.ID != submissionID || rec.Verdict != model.VerdictAccepted || rec.Language != "go" {
		t.Errorf("record = %+v", rec)
	}
}

func TestSubmitRejectedVerdictDoesNotMarkSolved(t *testing.T) {
	exec := &fakeExecutor{fn: func(ctx context.Context, req judge.ExecutionRequest) (*judge.ExecutionResult, error) {
		return &judge.ExecutionResult{
			Status:     judge.StatusWrongAnswer,
			Message:    "0/2 test cases passed",
			FailedTest: 1,
		}, nil
	}}
	subs, battles, repo, rdb := newTestSubmissionService(t, exec)
	ctx := context.Background()

	battle, err := battles.CreateBattle(ctx, "host-1", CreateBattleRequest{Rating: 1200})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}
	problem := battle.Problems[0]
	events := collectEvents(t, rdb, battle.ID)

	if _, err := subs.Submit(ctx, battle.ID, "user-1", SubmitCodeRequest{
		ProblemID: problem.ID, Language: "go", Code: validCode,
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result := waitForEvent(t, events, "result")
	if result.Result.Verdict != model.VerdictWrongAnswer {
		t.Fatalf("verdict = %q, want WA", result.Result.Verdict)
	}

	// Give any stray solve mark a moment to land, then assert there is none.
	time.Sleep(50 * time.Millisecond)
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.solves) != 0 {
		t.Errorf("solves = %v, a wrong answer must not count", repo.solves)
	}
}

func TestSubmitUnknownProblem(t *testing.T) {
	exec := &fakeExecutor{fn: func(ctx context.Context, req judge.ExecutionRequest) (*judge.ExecutionResult, error) {
		return solvedResult(), nil
	}}
	subs, battles, _, _ := newTestSubmissionService(t, exec)
	ctx := context.Background()

	battle, err := battles.CreateBattle(ctx, "host-1", CreateBattleRequest{Rating: 1200})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}

	_, err = subs.Submit(ctx, battle.ID, "user-1", SubmitCodeRequest{
		ProblemID: "not-in-this-battle", Language: "go", Code: validCode,
	})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitUnknownBattle(t *testing.T) {
	subs, _, _, _ := newTestSubmissionService(t, &fakeExecutor{})
	_, err := subs.Submit(context.Background(), "missing", "user-1", SubmitCodeRequest{
		ProblemID: "p", Language: "go", Code: validCode,
	})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCancelWithoutAttemptIsNoOp(t *testing.T) {
	subs, _, _, _ := newTestSubmissionService(t, &fakeExecutor{})
	subs.Cancel("battle-x", "user-x") // must not panic or block
}

func TestCancelStopsInFlightAttempt(t *testing.T) {
	started := make(chan struct{})
	exec := &fakeExecutor{fn: func(ctx context.Context, req judge.ExecutionRequest) (*judge.ExecutionResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	subs, battles, _, rdb := newTestSubmissionService(t, exec)
	ctx := context.Background()

	battle, err := battles.CreateBattle(ctx, "host-1", CreateBattleRequest{Rating: 1200})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}
	events := collectEvents(t, rdb, battle.ID)

	if _, err := subs.Submit(ctx, battle.ID, "user-1", SubmitCodeRequest{
		ProblemID: battle.Problems[0].ID, Language: "go", Code: validCode,
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started
	subs.Cancel(battle.ID, "user-1")

	// No terminal event after a cancel.
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case ev := <-events:
			if ev.Type == "result" || ev.Type == "error" {
				t.Fatalf("got terminal event %+v after cancel", ev)
			}
		case <-deadline:
			return
		}
	}
}
