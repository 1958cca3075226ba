package service

import (
	"fmt"
	"strings"
	"time"

	"code_arena/internal/common"
)

// SubmissionValidator is the pre-flight gate in front of the judge: nothing
// that fails here ever produces a network call. It holds no state of its own;
// the orchestrator tracks the last-submission timestamp and passes it in.
type SubmissionValidator struct {
	MinLength      int
	MaxBytes       int
	ThrottleWindow time.Duration

	// Now is swapped out in tests so throttle checks use synthetic time.
	Now func() time.Time
}

func NewSubmissionValidator(minLength, maxBytes int, throttleWindow time.Duration) *SubmissionValidator {
	return &SubmissionValidator{
		MinLength:      minLength,
		MaxBytes:       maxBytes,
		ThrottleWindow: throttleWindow,
		Now:            time.Now,
	}
}

// Validate applies the submission rules in order, short-circuiting on the
// first failure: empty, too short, too large, throttled.
func (v *SubmissionValidator) Validate(code, language string, lastSubmissionAt time.Time) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("code cannot be empty: %w", common.ErrValidation)
	}
	if len(code) < v.MinLength {
		return fmt.Errorf("code must be at least %d characters long: %w", v.MinLength, common.ErrValidation)
	}
	if len(code) > v.MaxBytes {
		return fmt.Errorf("code size of %d bytes exceeds the %d byte limit: %w", len(code), v.MaxBytes, common.ErrValidation)
	}
	if !lastSubmissionAt.IsZero() {
		elapsed := v.Now().Sub(lastSubmissionAt)
		if elapsed < v.ThrottleWindow {
			wait := (v.ThrottleWindow - elapsed + time.Second - 1) / time.Second
			return fmt.Errorf("please wait %d more seconds before submitting again: %w", wait, common.ErrTooManyRequests)
		}
	}
	return nil
}
