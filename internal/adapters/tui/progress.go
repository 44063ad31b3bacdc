package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spacesync/internal/adapters/tui/styles"
	"spacesync/internal/domain"
)

// maxRecent is how many finished items stay on screen
const maxRecent = 8

// Phase is where a run currently is
type Phase int

const (
	PhaseFetching Phase = iota
	PhaseDiffing
	PhaseApplying
	PhaseDone
)

// Progress messages, sent by Sink from the worker goroutine
type (
	fetchStartedMsg   struct{}
	fetchCompletedMsg struct{ count int }
	diffCompletedMsg  struct{ added, modified, deleted int }
	itemStartedMsg    struct{ change domain.Change }
	itemFinishedMsg   struct {
		change domain.Change
		err    error
	}
	runFinishedMsg struct {
		result *domain.SyncResult
		err    error
	}
)

type finishedItem struct {
	change domain.Change
	err    error
}

// ProgressModel renders a single pull or push run
type ProgressModel struct {
	title  string
	cancel func()

	phase      Phase
	remote     int
	total      int
	done       int
	failed     int
	current    *domain.Change
	recent     []finishedItem
	cancelling bool

	result *domain.SyncResult
	err    error

	spinner spinner.Model
	bar     progress.Model
	width   int
}

// NewProgressModel creates a model. cancel is invoked when the user presses ctrl+c or q.
func NewProgressModel(title string, cancel func()) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &ProgressModel{
		title:   title,
		cancel:  cancel,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init starts the spinner
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress and key messages
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-10, 10), 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.phase == PhaseDone {
				return m, tea.Quit
			}
			if !m.cancelling && m.cancel != nil {
				m.cancelling = true
				m.cancel()
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.phase == PhaseDone {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchStartedMsg:
		m.phase = PhaseFetching

	case fetchCompletedMsg:
		m.remote = msg.count
		m.phase = PhaseDiffing

	case diffCompletedMsg:
		m.total = msg.added + msg.modified + msg.deleted
		m.phase = PhaseApplying

	case itemStartedMsg:
		c := msg.change
		m.current = &c

	case itemFinishedMsg:
		m.done++
		if msg.err != nil {
			m.failed++
		}
		m.current = nil
		m.recent = append(m.recent, finishedItem{change: msg.change, err: msg.err})
		if len(m.recent) > maxRecent {
			m.recent = m.recent[len(m.recent)-maxRecent:]
		}

	case runFinishedMsg:
		m.phase = PhaseDone
		m.result = msg.result
		m.err = msg.err
		m.current = nil
		return m, tea.Quit
	}

	return m, nil
}

// Result returns what the run reported once it finished
func (m *ProgressModel) Result() (*domain.SyncResult, error) {
	return m.result, m.err
}

func (m *ProgressModel) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// View renders the model
func (m *ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(m.title))
	b.WriteString("\n")

	switch m.phase {
	case PhaseFetching:
		b.WriteString(m.spinner.View() + " Fetching remote tree...\n")
	case PhaseDiffing:
		b.WriteString(m.spinner.View() + fmt.Sprintf(" Comparing %d remote pages...\n", m.remote))
	case PhaseApplying:
		b.WriteString(m.bar.ViewAs(m.percent()))
		b.WriteString(fmt.Sprintf(" %d/%d\n", m.done, m.total))
		if m.current != nil {
			b.WriteString(m.spinner.View() + " " + m.current.Title + "\n")
		}
	case PhaseDone:
		b.WriteString(m.summary() + "\n")
	}

	if len(m.recent) > 0 {
		b.WriteString("\n")
		for _, item := range m.recent {
			b.WriteString(renderItem(item) + "\n")
		}
	}

	if m.cancelling && m.phase != PhaseDone {
		b.WriteString("\n" + styles.WarningMsg.Render("Cancelling after the current page...") + "\n")
	} else if m.phase != PhaseDone {
		b.WriteString("\n" + styles.HelpKey.Render("ctrl+c") + " " + styles.HelpDesc.Render("cancel") + "\n")
	}

	return styles.App.Render(b.String())
}

func (m *ProgressModel) summary() string {
	switch {
	case m.err != nil:
		return styles.ErrorMsg.Render("Error: " + m.err.Error())
	case m.result == nil:
		return styles.MutedText.Render("Nothing to do")
	case !m.result.Success:
		return styles.ErrorMsg.Render(m.result.Summary())
	default:
		return styles.Success.Render(m.result.Summary())
	}
}

func renderItem(item finishedItem) string {
	kind := item.change.Type.String()
	label := styles.ChangeStyle(kind).Render(fmt.Sprintf("%-8s", kind))
	name := item.change.Title
	if name == "" {
		name = item.change.PageID
	}
	if item.err != nil {
		return styles.ErrorMsg.Render("✗ ") + label + " " + name + " " + styles.MutedText.Render(item.err.Error())
	}
	return styles.Success.Render("✓ ") + label + " " + name
}
