package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// Sink forwards progress events to a running program
type Sink struct {
	program *tea.Program
}

// Ensure Sink implements ProgressSink
var _ ports.ProgressSink = (*Sink)(nil)

func (s *Sink) FetchStarted()            { s.program.Send(fetchStartedMsg{}) }
func (s *Sink) FetchCompleted(count int) { s.program.Send(fetchCompletedMsg{count: count}) }
func (s *Sink) DiffCompleted(added, modified, deleted int) {
	s.program.Send(diffCompletedMsg{added: added, modified: modified, deleted: deleted})
}
func (s *Sink) ItemStarted(c domain.Change)   { s.program.Send(itemStartedMsg{change: c}) }
func (s *Sink) ItemCompleted(c domain.Change) { s.program.Send(itemFinishedMsg{change: c}) }
func (s *Sink) ItemFailed(c domain.Change, err error) {
	s.program.Send(itemFinishedMsg{change: c, err: err})
}

// RunFunc performs a run, reporting progress to sink
type RunFunc func(ctx context.Context, sink ports.ProgressSink) (*domain.SyncResult, error)

// Run shows a progress view on out while run executes. Quitting the view
// cancels the context passed to run and waits for it to return.
func Run(ctx context.Context, title string, out io.Writer, run RunFunc) (*domain.SyncResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewProgressModel(title, cancel)
	program := tea.NewProgram(model, tea.WithOutput(out))
	sink := &Sink{program: program}

	type outcome struct {
		result *domain.SyncResult
		err    error
	}
	finished := make(chan outcome, 1)
	go func() {
		result, err := run(ctx, sink)
		finished <- outcome{result: result, err: err}
		program.Send(runFinishedMsg{result: result, err: err})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-finished
		return nil, fmt.Errorf("progress view failed: %w", err)
	}

	o := <-finished
	return o.result, o.err
}
