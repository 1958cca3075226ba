package judge

// Status is the pipeline's view of one execution outcome. "success" means a
// single run finished and its output was accepted (or nothing to compare);
// "solved" is the aggregate over a full test-case set.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusSolved              Status = "solved"
	StatusWrongAnswer         Status = "wrong_answer"
	StatusCompilationError    Status = "compilation_error"
	StatusRuntimeError        Status = "runtime_error"
	StatusTimeLimitExceeded   Status = "time_limit_exceeded"
	StatusMemoryLimitExceeded Status = "memory_limit_exceeded"
	StatusInternalError       Status = "internal_error"
)

// StatusFromCode translates the judge's numeric status id. The table is
// fixed by the executor API: 1/2 are non-terminal, 3 accepted, 4 wrong
// answer, 5 TLE, 6 compile error, 7-12 runtime error variants, 13-14
// internal. Anything unknown maps to internal_error; an unmapped code must
// never pass as success.
func StatusFromCode(id int) Status {
	switch {
	case id == 3:
		return StatusSuccess
	case id == 4:
		return StatusWrongAnswer
	case id == 5:
		return StatusTimeLimitExceeded
	case id == 6:
		return StatusCompilationError
	case id >= 7 && id <= 12:
		return StatusRuntimeError
	default:
		return StatusInternalError
	}
}
