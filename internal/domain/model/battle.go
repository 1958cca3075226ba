package model

import "time"

// Battle is a rating-matched head-to-head session. The problem set is fixed
// at creation time from the seed and lives in the battle cache for the
// session's lifetime; only the header row is persisted.
type Battle struct {
	ID           string         `json:"id"`
	HostID       string         `json:"host_id"`
	Rating       int            `json:"rating"`
	Seed         string         `json:"seed"`
	ProblemCount int            `json:"problem_count"`
	Problems     []ArenaProblem `json:"problems"`
	CreatedAt    time.Time      `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	ProblemsSolved int    `json:"problems_solved"`
}
