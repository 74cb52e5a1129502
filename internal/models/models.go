package models

// Mismatch is one line-level discrepancy between a local file and the
// server definition. Line 0 with numeric Left/Right marks a length mismatch.
type Mismatch struct {
	Line  int
	Left  string
	Right string
}

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeMissing Outcome = "missing"
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeError   Outcome = "error"
)

// IsFailure reports whether the outcome counts against the per-server
// failure ceiling.
func (o Outcome) IsFailure() bool {
	switch o {
	case OutcomeFailed, OutcomeMissing, OutcomeError:
		return true
	}
	return false
}

type FileResult struct {
	FileName   string
	ObjectName string
	Outcome    Outcome
	Mismatches []Mismatch
	Err        error
}

type ServerResult struct {
	ServerID    string
	Description string
	Files       []FileResult
	Failures    int
	Aborted     bool
	Err         error
}

type RunSummary struct {
	Servers []ServerResult
	// Interrupted is set when the run was cancelled before every selected
	// server and file had been checked.
	Interrupted bool
}

// Count returns how many files across all servers ended with the outcome.
func (s RunSummary) Count(outcome Outcome) int {
	n := 0
	for _, srv := range s.Servers {
		for _, f := range srv.Files {
			if f.Outcome == outcome {
				n++
			}
		}
	}
	return n
}

func (s RunSummary) HasFailures() bool {
	if s.Interrupted {
		return true
	}
	for _, srv := range s.Servers {
		if srv.Err != nil || srv.Failures > 0 {
			return true
		}
	}
	return false
}
