package ports

import "spacesync/internal/domain"

// ProgressSink receives sync progress. Calls must return quickly; a sink that
// panics does not fail the run.
type ProgressSink interface {
	FetchStarted()
	FetchCompleted(count int)
	DiffCompleted(added, modified, deleted int)
	ItemStarted(change domain.Change)
	ItemCompleted(change domain.Change)
	ItemFailed(change domain.Change, err error)
}

// NopProgress discards all progress events
type NopProgress struct{}

func (NopProgress) FetchStarted()                   {}
func (NopProgress) FetchCompleted(int)              {}
func (NopProgress) DiffCompleted(int, int, int)     {}
func (NopProgress) ItemStarted(domain.Change)       {}
func (NopProgress) ItemCompleted(domain.Change)     {}
func (NopProgress) ItemFailed(domain.Change, error) {}
