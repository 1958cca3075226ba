package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
)

// BattleRepository is the thin persistence boundary for battles. The live
// problem set stays in the battle cache; only the header, judged attempts and
// solves are durable.
type BattleRepository interface {
	CreateBattle(ctx context.Context, battle *model.Battle) error
	FindBattleByID(ctx context.Context, id string) (*model.Battle, error)

	RecordSubmission(ctx context.Context, rec *model.SubmissionRecord) error
	MarkProblemSolved(ctx context.Context, battleID, userID, problemID, submissionID string) error
	GetBattleLeaderboard(ctx context.Context, battleID string) ([]model.LeaderboardEntry, error)
}

type pgBattleRepository struct {
	db *sql.DB
}

func NewPgBattleRepository(db *sql.DB) BattleRepository {
	return &pgBattleRepository{db: db}
}

func (r *pgBattleRepository) CreateBattle(ctx context.Context, b *model.Battle) error {
	query := `INSERT INTO battles (id, host_id, rating, seed, problem_count, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.HostID, b.Rating, b.Seed, b.ProblemCount, b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("battle with this id already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgBattleRepository.CreateBattle: %w", err)
	}
	return nil
}

// FindBattleByID returns the battle header only; the problem set is
// regenerated from the seed by the caller.
func (r *pgBattleRepository) FindBattleByID(ctx context.Context, id string) (*model.Battle, error) {
	query := `SELECT id, host_id, rating, seed, problem_count, created_at FROM battles WHERE id = $1`
	battle := &model.Battle{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&battle.ID, &battle.HostID, &battle.Rating, &battle.Seed, &battle.ProblemCount, &battle.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgBattleRepository.FindBattleByID: %w", err)
	}
	return battle, nil
}

func (r *pgBattleRepository) RecordSubmission(ctx context.Context, rec *model.SubmissionRecord) error {
	query := `INSERT INTO arena_submissions (id, battle_id, user_id, problem_id, language, verdict, execution_time_ms, memory_kb, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.BattleID, rec.UserID, rec.ProblemID, rec.Language, rec.Verdict,
		rec.ExecutionTimeMs, rec.MemoryKb, rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("pgBattleRepository.RecordSubmission: %w", err)
	}
	return nil
}

func (r *pgBattleRepository) MarkProblemSolved(ctx context.Context, battleID, userID, problemID, submissionID string) error {
	// A problem is solved once per user per battle; later accepted attempts
	// are no-ops.
	query := `INSERT INTO battle_solves (battle_id, user_id, problem_id, submission_id, solved_at)
	          VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	          ON CONFLICT (battle_id, user_id, problem_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, battleID, userID, problemID, submissionID)
	if err != nil {
		return fmt.Errorf("pgBattleRepository.MarkProblemSolved: %w", err)
	}
	return nil
}

func (r *pgBattleRepository) GetBattleLeaderboard(ctx context.Context, battleID string) ([]model.LeaderboardEntry, error) {
	query := `
        SELECT s.user_id, u.username, COUNT(*) AS solved
        FROM battle_solves s
        JOIN users u ON s.user_id = u.id
        WHERE s.battle_id = $1
        GROUP BY s.user_id, u.username
        ORDER BY solved DESC, MAX(s.solved_at) ASC`
	rows, err := r.db.QueryContext(ctx, query, battleID)
	if err != nil {
		return nil, fmt.Errorf("pgBattleRepository.GetBattleLeaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		entry := model.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.ProblemsSolved); err != nil {
			return nil, fmt.Errorf("pgBattleRepository.GetBattleLeaderboard scan: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
