package commands

import (
	"github.com/rs/zerolog"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// safeProgress forwards events to a sink and swallows its panics
type safeProgress struct {
	sink   ports.ProgressSink
	logger zerolog.Logger
}

func newSafeProgress(sink ports.ProgressSink, logger zerolog.Logger) safeProgress {
	if sink == nil {
		sink = ports.NopProgress{}
	}
	return safeProgress{sink: sink, logger: logger}
}

func (p safeProgress) call(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn().Str("event", event).Interface("panic", r).Msg("progress sink panicked")
		}
	}()
	fn()
}

func (p safeProgress) FetchStarted() {
	p.call("fetch_started", p.sink.FetchStarted)
}

func (p safeProgress) FetchCompleted(count int) {
	p.call("fetch_completed", func() { p.sink.FetchCompleted(count) })
}

func (p safeProgress) DiffCompleted(added, modified, deleted int) {
	p.call("diff_completed", func() { p.sink.DiffCompleted(added, modified, deleted) })
}

func (p safeProgress) ItemStarted(change domain.Change) {
	p.call("item_started", func() { p.sink.ItemStarted(change) })
}

func (p safeProgress) ItemCompleted(change domain.Change) {
	p.call("item_completed", func() { p.sink.ItemCompleted(change) })
}

func (p safeProgress) ItemFailed(change domain.Change, err error) {
	p.call("item_failed", func() { p.sink.ItemFailed(change, err) })
}
