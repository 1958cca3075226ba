package arena

import (
	"fmt"

	"github.com/gosimple/slug"

	"code_arena/internal/domain/model"
)

const (
	defaultProblemCount  = 3
	defaultTimeLimitSec  = 2
	defaultMemoryLimitMB = 256
	problemSource        = "arena-generated"
)

// Generate produces the fixed problem set for one battle. It is total: any
// rating and any non-empty seed yield a set, and identical (rating, count,
// seed) inputs yield byte-identical sets in slot order. That reproducibility
// is what lets every competitor in a battle generate the same problems
// locally from the shared seed.
func Generate(rating, count int, seed string) []model.ArenaProblem {
	if count <= 0 {
		count = defaultProblemCount
	}

	seedHash := HashSeed(seed)
	r := NewRand(seedHash)
	pool := TopicsForRating(rating)

	problems := make([]model.ArenaProblem, 0, count)
	seen := make(map[string]int)
	topicIdx := r.Intn(len(pool))

	for i := 0; i < count; i++ {
		// Advance the pool index instead of re-drawing so consecutive slots
		// land on different topics whenever the pool has more than one.
		if len(pool) > 1 {
			topicIdx = (topicIdx + 1 + r.Intn(len(pool)-1)) % len(pool)
		}
		topic := pool[topicIdx]

		blueprints := BlueprintsForTopic(topic)
		draft := Pick(r, blueprints)(r)

		name := draft.Name
		if n, dup := seen[name]; dup {
			// Same-call collisions only; across calls the seed already
			// disambiguates.
			name = fmt.Sprintf("%s %c", draft.Name, rune('A'+n))
		}
		seen[draft.Name]++

		topics := []string{topic}
		for _, t := range draft.Tags {
			if t != topic {
				topics = append(topics, t)
			}
		}

		problems = append(problems, model.ArenaProblem{
			ID:            fmt.Sprintf("arena-%08x-%d", seedHash, i),
			Name:          name,
			Slug:          slug.Make(name),
			Description:   draft.Description,
			Examples:      draft.Examples,
			Constraints:   draft.Constraints,
			TimeLimitSec:  defaultTimeLimitSec,
			MemoryLimitMB: defaultMemoryLimitMB,
			Difficulty:    difficultyForSlot(i),
			Rating:        ratingForSlot(rating, i),
			Topics:        topics,
			Source:        problemSource,
		})
	}
	return problems
}

// difficultyForSlot implements the per-slot ladder: the opener is always easy,
// the second problem medium, everything after that hard.
func difficultyForSlot(slot int) model.ProblemDifficulty {
	switch slot {
	case 0:
		return model.DifficultyEasy
	case 1:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}

func ratingForSlot(base, slot int) int {
	switch slot {
	case 0:
		if base < 800 {
			return 800
		}
		return base
	case 1:
		return base + 100
	default:
		return base + 200
	}
}
