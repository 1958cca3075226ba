package model

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "easy"
	DifficultyMedium ProblemDifficulty = "medium"
	DifficultyHard   ProblemDifficulty = "hard"
)

// ArenaProblem is one generated battle problem. It is materialized once from
// the battle seed and never mutated afterwards; every competitor in a battle
// must see the exact same set, so all of these fields have to come
// deterministically from the generator.
type ArenaProblem struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Description   string            `json:"description"`
	Examples      []Example         `json:"examples"`
	Constraints   string            `json:"constraints"`
	TimeLimitSec  int               `json:"time_limit_sec"`
	MemoryLimitMB int               `json:"memory_limit_mb"`
	Difficulty    ProblemDifficulty `json:"difficulty"`
	Rating        int               `json:"rating"`
	Topics        []string          `json:"topics"`
	Source        string            `json:"source"`
}

// Example is a visible (input, output) pair. Shown with the statement and
// used as the judged test cases during a battle.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}
