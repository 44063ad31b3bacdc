package logging

import (
	"github.com/rs/zerolog"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// ProgressLogger reports sync progress as log records, for non-interactive runs
type ProgressLogger struct {
	logger zerolog.Logger
}

var _ ports.ProgressSink = (*ProgressLogger)(nil)

func NewProgressLogger(logger zerolog.Logger) *ProgressLogger {
	return &ProgressLogger{logger: logger}
}

func (p *ProgressLogger) FetchStarted() {
	p.logger.Info().Msg("fetching remote tree")
}

func (p *ProgressLogger) FetchCompleted(count int) {
	p.logger.Info().Int("nodes", count).Msg("remote tree fetched")
}

func (p *ProgressLogger) DiffCompleted(added, modified, deleted int) {
	p.logger.Info().
		Int("added", added).
		Int("modified", modified).
		Int("deleted", deleted).
		Msg("changes computed")
}

func (p *ProgressLogger) ItemStarted(change domain.Change) {
	p.logger.Debug().Str("page", change.PageID).Str("title", change.Title).Msg(change.Type.String())
}

func (p *ProgressLogger) ItemCompleted(change domain.Change) {
	p.logger.Info().
		Str("page", change.PageID).
		Str("path", change.LocalPath).
		Msgf("%s %s", change.Type, change.Title)
}

func (p *ProgressLogger) ItemFailed(change domain.Change, err error) {
	p.logger.Error().Err(err).Str("page", change.PageID).Msgf("failed %s", change.Title)
}
