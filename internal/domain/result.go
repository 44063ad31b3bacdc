package domain

import "fmt"

// SyncResult aggregates the outcome of a run.
// Success is false iff at least one page failed; Cancelled is independent of Success.
type SyncResult struct {
	Success   bool
	Changes   SyncDiff
	Warnings  []string
	Errors    []string
	Cancelled bool
	Applied   int
}

// NewSyncResult returns a successful empty result
func NewSyncResult() *SyncResult {
	return &SyncResult{Success: true}
}

// Warn records a warning
func (r *SyncResult) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Fail records a per-page error and marks the run unsuccessful
func (r *SyncResult) Fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Success = false
}

// Summary is a one-line description of the run
func (r *SyncResult) Summary() string {
	s := fmt.Sprintf("%d added, %d modified, %d deleted; %d applied",
		len(r.Changes.Added), len(r.Changes.Modified), len(r.Changes.Deleted), r.Applied)
	if r.Cancelled {
		s += " (cancelled)"
	}
	if len(r.Errors) > 0 {
		s += fmt.Sprintf(", %d failed", len(r.Errors))
	}
	if len(r.Warnings) > 0 {
		s += fmt.Sprintf(", %d warnings", len(r.Warnings))
	}
	return s
}
