package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
)

type fakeBattleRepo struct {
	mu        sync.Mutex
	battles   map[string]*model.Battle
	records   []*model.SubmissionRecord
	solves    map[string]string // battle:user:problem -> submission id
	findCalls int
}

func newFakeBattleRepo() *fakeBattleRepo {
	return &fakeBattleRepo{
		battles: make(map[string]*model.Battle),
		solves:  make(map[string]string),
	}
}

func (f *fakeBattleRepo) CreateBattle(ctx context.Context, b *model.Battle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.battles[b.ID]; ok {
		return common.ErrConflict
	}
	header := *b
	header.Problems = nil // only the header is durable
	f.battles[b.ID] = &header
	return nil
}

func (f *fakeBattleRepo) FindBattleByID(ctx context.Context, id string) (*model.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	b, ok := f.battles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	header := *b
	return &header, nil
}

func (f *fakeBattleRepo) RecordSubmission(ctx context.Context, rec *model.SubmissionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeBattleRepo) MarkProblemSolved(ctx context.Context, battleID, userID, problemID, submissionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := battleID + ":" + userID + ":" + problemID
	if _, ok := f.solves[key]; !ok {
		f.solves[key] = submissionID
	}
	return nil
}

func (f *fakeBattleRepo) GetBattleLeaderboard(ctx context.Context, battleID string) ([]model.LeaderboardEntry, error) {
	return nil, nil
}

func newTestBattleService(t *testing.T) (*BattleService, *fakeBattleRepo, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	repo := newFakeBattleRepo()
	return NewBattleService(repo, rdb, time.Hour, 3), repo, rdb
}

func TestCreateBattle(t *testing.T) {
	svc, repo, rdb := newTestBattleService(t)
	ctx := context.Background()

	battle, err := svc.CreateBattle(ctx, "host-1", CreateBattleRequest{Rating: 1500, ProblemCount: 4})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}
	if battle.ID == "" || battle.HostID != "host-1" || battle.Rating != 1500 {
		t.Fatalf("battle header wrong: %+v", battle)
	}
	if len(battle.Problems) != 4 {
		t.Fatalf("got %d problems, want 4", len(battle.Problems))
	}
	if battle.Seed != battle.ID {
		t.Errorf("default seed should be the battle id")
	}

	repo.mu.Lock()
	_, persisted := repo.battles[battle.ID]
	repo.mu.Unlock()
	if !persisted {
		t.Error("battle header was not persisted")
	}

	if err := rdb.Get(ctx, "battle:"+battle.ID).Err(); err != nil {
		t.Errorf("battle was not cached: %v", err)
	}
}

func TestCreateBattleDefaults(t *testing.T) {
	svc, _, _ := newTestBattleService(t)

	battle, err := svc.CreateBattle(context.Background(), "host-1", CreateBattleRequest{})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}
	if battle.Rating != 800 {
		t.Errorf("default rating = %d, want 800", battle.Rating)
	}
	if len(battle.Problems) != 3 {
		t.Errorf("default problem count = %d, want 3", len(battle.Problems))
	}
}

func TestCreateBattleValidation(t *testing.T) {
	svc, _, _ := newTestBattleService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateBattleRequest
	}{
		{"rating too low", CreateBattleRequest{Rating: 500}},
		{"rating too high", CreateBattleRequest{Rating: 4000}},
		{"too many problems", CreateBattleRequest{Rating: 1200, ProblemCount: 20}},
		{"negative count", CreateBattleRequest{Rating: 1200, ProblemCount: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateBattle(ctx, "host-1", tt.req); !errors.Is(err, common.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	if _, err := svc.CreateBattle(ctx, "", CreateBattleRequest{Rating: 1200}); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("missing host err = %v, want ErrUnauthorized", err)
	}
}

func TestGetBattleFromCache(t *testing.T) {
	svc, repo, _ := newTestBattleService(t)
	ctx := context.Background()

	created, err := svc.CreateBattle(ctx, "host-1", CreateBattleRequest{Rating: 1500})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}

	got, err := svc.GetBattle(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBattle: %v", err)
	}
	if !reflect.DeepEqual(got.Problems, created.Problems) {
		t.Fatal("cached battle differs from the created one")
	}

	repo.mu.Lock()
	calls := repo.findCalls
	repo.mu.Unlock()
	if calls != 0 {
		t.Errorf("repo consulted %d times on a cache hit", calls)
	}
}

func TestGetBattleRebuildsAfterCacheExpiry(t *testing.T) {
	svc, repo, rdb := newTestBattleService(t)
	ctx := context.Background()

	created, err := svc.CreateBattle(ctx, "host-1", CreateBattleRequest{Rating: 1700, ProblemCount: 2, Seed: "rebuild-seed"})
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}

	// Simulate TTL expiry.
	if err := rdb.Del(ctx, "battle:"+created.ID).Err(); err != nil {
		t.Fatalf("Del: %v", err)
	}

	got, err := svc.GetBattle(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBattle: %v", err)
	}
	if !reflect.DeepEqual(got.Problems, created.Problems) {
		t.Fatal("rebuilt problem set differs; regeneration must be deterministic")
	}

	repo.mu.Lock()
	calls := repo.findCalls
	repo.mu.Unlock()
	if calls != 1 {
		t.Errorf("findCalls = %d, want 1", calls)
	}

	// The rebuild re-primes the cache.
	if err := rdb.Get(ctx, "battle:"+created.ID).Err(); err != nil {
		t.Errorf("battle was not re-cached: %v", err)
	}
}

func TestGetBattleNotFound(t *testing.T) {
	svc, _, _ := newTestBattleService(t)
	if _, err := svc.GetBattle(context.Background(), "no-such-battle"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
