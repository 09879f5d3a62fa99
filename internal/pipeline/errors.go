package pipeline

import "fmt"

// RepositoryAccessError reports that the checked-out repository root could
// not be read.
type RepositoryAccessError struct {
	Root string
	Err  error
}

func (e *RepositoryAccessError) Error() string {
	return fmt.Sprintf("repository access failed for %s: %v", e.Root, e.Err)
}

func (e *RepositoryAccessError) Unwrap() error { return e.Err }

// ModelCallError reports a failed external model call, after retries.
type ModelCallError struct {
	Stage string
	Path  string
	Err   error
}

func (e *ModelCallError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("model call failed in %s for %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("model call failed in %s: %v", e.Stage, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// PlanningError is fatal: without a change plan nothing downstream is
// meaningful, so the run aborts.
type PlanningError struct {
	Err error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("change planning failed: %v", e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// VerificationError is non-fatal: the run degrades to the unverified draft
// diff instead of failing.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("diff verification failed: %v", e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// InputTooLargeError is raised before any model call when the flattened
// repository exceeds the configured input ceiling.
type InputTooLargeError struct {
	Lines   int
	Ceiling int
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("repository is too large for the model context: %d lines exceeds the %d line ceiling", e.Lines, e.Ceiling)
}

// ContextGap records a file whose per-file model call failed after retries.
// Gaps never abort the run; they are carried on the result so callers can
// surface the degradation instead of hiding it.
type ContextGap struct {
	Stage  string `json:"stage"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
