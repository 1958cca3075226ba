package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"code_arena/internal/arena"
	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/domain/repository"
)

const (
	minBattleRating     = 800
	maxBattleRating     = 3500
	defaultBattleRating = 800
	maxBattleProblems   = 7
)

// BattleService owns the lifecycle of a battle: a durable header row in
// postgres plus the full generated problem set cached in redis. Because the
// generator is deterministic, an expired cache entry can always be rebuilt
// from the header's seed and rating.
type BattleService struct {
	battleRepo          repository.BattleRepository
	rdb                 *redis.Client
	battleTTL           time.Duration
	defaultProblemCount int
}

func NewBattleService(battleRepo repository.BattleRepository, rdb *redis.Client, battleTTL time.Duration, defaultProblemCount int) *BattleService {
	return &BattleService{
		battleRepo:          battleRepo,
		rdb:                 rdb,
		battleTTL:           battleTTL,
		defaultProblemCount: defaultProblemCount,
	}
}

type CreateBattleRequest struct {
	Rating       int    `json:"rating"`
	ProblemCount int    `json:"problem_count"`
	Seed         string `json:"seed"`
}

func (s *BattleService) CreateBattle(ctx context.Context, hostID string, req CreateBattleRequest) (*model.Battle, error) {
	if hostID == "" {
		return nil, common.ErrUnauthorized
	}

	rating := req.Rating
	if rating == 0 {
		rating = defaultBattleRating
	}
	if rating < minBattleRating || rating > maxBattleRating {
		return nil, fmt.Errorf("rating must be between %d and %d: %w", minBattleRating, maxBattleRating, common.ErrValidation)
	}

	count := req.ProblemCount
	if count == 0 {
		count = s.defaultProblemCount
	}
	if count < 1 || count > maxBattleProblems {
		return nil, fmt.Errorf("problem count must be between 1 and %d: %w", maxBattleProblems, common.ErrValidation)
	}

	id := uuid.NewString()
	seed := req.Seed
	if seed == "" {
		// Same battle, same problems, on every node: the battle id is the seed.
		seed = id
	}

	battle := &model.Battle{
		ID:           id,
		HostID:       hostID,
		Rating:       rating,
		Seed:         seed,
		ProblemCount: count,
		Problems:     arena.Generate(rating, count, seed),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.battleRepo.CreateBattle(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to create battle: %w", err)
	}
	if err := s.cacheBattle(ctx, battle); err != nil {
		// The header row is durable and the set is reproducible, so a cache
		// write failure is not fatal.
		log.Printf("WARN: failed to cache battle %s: %v", battle.ID, err)
	}

	return battle, nil
}

// GetBattle serves from the cache when possible and rebuilds the problem set
// from the durable header otherwise.
func (s *BattleService) GetBattle(ctx context.Context, id string) (*model.Battle, error) {
	if id == "" {
		return nil, common.ErrBadRequest
	}

	data, err := s.rdb.Get(ctx, battleCacheKey(id)).Bytes()
	if err == nil {
		battle := &model.Battle{}
		if jsonErr := json.Unmarshal(data, battle); jsonErr == nil {
			return battle, nil
		}
		log.Printf("WARN: corrupt cache entry for battle %s, rebuilding", id)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("WARN: redis lookup for battle %s failed: %v", id, err)
	}

	battle, err := s.battleRepo.FindBattleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	battle.Problems = arena.Generate(battle.Rating, battle.ProblemCount, battle.Seed)

	if cacheErr := s.cacheBattle(ctx, battle); cacheErr != nil {
		log.Printf("WARN: failed to re-cache battle %s: %v", id, cacheErr)
	}
	return battle, nil
}

func (s *BattleService) GetLeaderboard(ctx context.Context, battleID string) ([]model.LeaderboardEntry, error) {
	if battleID == "" {
		return nil, common.ErrBadRequest
	}
	if _, err := s.GetBattle(ctx, battleID); err != nil {
		return nil, err
	}
	return s.battleRepo.GetBattleLeaderboard(ctx, battleID)
}

// EvictBattle drops a battle's cached problem set so the next read rebuilds
// it from the durable header. Maintenance hook for operators.
func (s *BattleService) EvictBattle(ctx context.Context, id string) error {
	if id == "" {
		return common.ErrBadRequest
	}
	return s.rdb.Del(ctx, battleCacheKey(id)).Err()
}

func (s *BattleService) cacheBattle(ctx context.Context, battle *model.Battle) error {
	data, err := json.Marshal(battle)
	if err != nil {
		return fmt.Errorf("failed to marshal battle: %w", err)
	}
	return s.rdb.Set(ctx, battleCacheKey(battle.ID), data, s.battleTTL).Err()
}

func battleCacheKey(id string) string {
	return "battle:" + id
}
