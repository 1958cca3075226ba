package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"code_arena/internal/common"
)

func newTestValidator() *SubmissionValidator {
	return NewSubmissionValidator(10, 10240, 10*time.Second)
}

func TestValidateCodeLength(t *testing.T) {
	v := newTestValidator()
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"empty", "", common.ErrValidation},
		{"whitespace only", "   \n\t  ", common.ErrValidation},
		{"nine chars", "123456789", common.ErrValidation},
		{"ten chars", "1234567890", nil},
		{"at limit", strings.Repeat("a", 10240), nil},
		{"over limit", strings.Repeat("a", 10241), common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.code, "go", time.Time{})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSizeMessageIncludesActualSize(t *testing.T) {
	v := newTestValidator()
	err := v.Validate(strings.Repeat("a", 20000), "go", time.Time{})
	if err == nil || !strings.Contains(err.Error(), "20000") {
		t.Fatalf("err = %v, want the actual byte size in the message", err)
	}
}

func TestValidateThrottle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	v := newTestValidator()
	v.Now = func() time.Time { return now }

	code := "package main // long enough"

	// First submission: no prior timestamp, always allowed.
	if err := v.Validate(code, "go", time.Time{}); err != nil {
		t.Fatalf("first submission rejected: %v", err)
	}

	// 9s after the last one: still throttled, 1 whole second left.
	err := v.Validate(code, "go", now.Add(-9*time.Second))
	if !errors.Is(err, common.ErrTooManyRequests) {
		t.Fatalf("err = %v, want ErrTooManyRequests", err)
	}
	if !strings.Contains(err.Error(), "1 more seconds") {
		t.Errorf("err = %v, want remaining whole seconds in the message", err)
	}

	// Partial seconds round up, never down to zero.
	err = v.Validate(code, "go", now.Add(-9500*time.Millisecond))
	if !errors.Is(err, common.ErrTooManyRequests) {
		t.Fatalf("err = %v, want ErrTooManyRequests", err)
	}
	if !strings.Contains(err.Error(), "1 more seconds") {
		t.Errorf("err = %v, want 1 second remaining", err)
	}

	// Exactly at the window boundary: allowed.
	if err := v.Validate(code, "go", now.Add(-10*time.Second)); err != nil {
		t.Fatalf("boundary submission rejected: %v", err)
	}
}

func TestValidateOrderOfChecks(t *testing.T) {
	// An empty submission inside the throttle window reports the emptiness,
	// not the throttle.
	now := time.Now()
	v := newTestValidator()
	v.Now = func() time.Time { return now }

	err := v.Validate("", "go", now.Add(-time.Second))
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want the validation error first", err)
	}
}
