package judge

import (
	"context"
	"strings"
	"testing"
)

func newTestSimulator() *Simulator {
	return &Simulator{delay: func(ctx context.Context) error { return nil }}
}

func TestSimulatorSentinels(t *testing.T) {
	tests := []struct {
		name       string
		sentinel   string
		wantStatus Status
	}{
		{"compile error", SentinelCompileError, StatusCompilationError},
		{"time limit", SentinelTimeLimit, StatusTimeLimitExceeded},
		{"memory limit", SentinelMemoryLimit, StatusMemoryLimitExceeded},
		{"wrong answer", SentinelWrongAnswer, StatusWrongAnswer},
		{"runtime error", SentinelRuntimeError, StatusRuntimeError},
	}
	sim := newTestSimulator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ExecutionRequest{Code: "int main() { // " + tt.sentinel + "\n}", Language: "cpp"}
			res, err := sim.Run(context.Background(), req, "", "")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Status, tt.wantStatus)
			}
			if res.Success {
				t.Error("sentinel outcomes must not be successful")
			}
		})
	}
}

func TestSimulatorTimeLimitUsesRequestLimit(t *testing.T) {
	sim := newTestSimulator()
	req := ExecutionRequest{Code: SentinelTimeLimit, Language: "go", TimeLimitSec: 5}
	res, err := sim.Run(context.Background(), req, "", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TimeMs != 5000 {
		t.Errorf("TimeMs = %d, want 5000", res.TimeMs)
	}
}

func TestSimulatorSuccessEchoesExpected(t *testing.T) {
	sim := newTestSimulator()
	res, err := sim.Run(context.Background(), ExecutionRequest{Code: "print(42)", Language: "python"}, "in", "42")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success || res.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Stdout != "42" {
		t.Errorf("Stdout = %q, want the expected output echoed", res.Stdout)
	}
	if res.TimeMs <= 0 || res.MemoryKb <= 0 {
		t.Errorf("success run should report positive figures, got %d ms / %d kb", res.TimeMs, res.MemoryKb)
	}
}

func TestSimulatorSentinelPrecedence(t *testing.T) {
	// First match in declaration order wins when several sentinels appear.
	sim := newTestSimulator()
	code := strings.Join([]string{SentinelWrongAnswer, SentinelCompileError}, "\n")
	res, err := sim.Run(context.Background(), ExecutionRequest{Code: code, Language: "go"}, "", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != StatusCompilationError {
		t.Errorf("status = %q, want compile error to take precedence", res.Status)
	}
}

func TestSimulatorHonoursCancellation(t *testing.T) {
	sim := NewSimulator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.Run(ctx, ExecutionRequest{Code: "x", Language: "go"}, "", ""); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
