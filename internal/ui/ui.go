package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/tasks"
)

const recentLines = 8

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	SyncView
	ResultView
)

// SyncFunc runs one sync and reports progress on the channel. [tasks.SyncEngine.Sync] satisfies it.
type SyncFunc func(ctx context.Context, mode tasks.WriteMode, progress chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	view       ViewState
	mode       tasks.WriteMode
	run        SyncFunc
	listTasks  func() []*models.Task
	width      int
	height     int
	phases     map[tasks.Phase]tasks.ProgressUpdate
	current    tasks.ProgressUpdate
	recent     []string
	updates    chan tasks.ProgressUpdate
	done       chan syncOutcome
	bar        progress.Model
	resultList list.Model
	result     *tasks.SyncResult
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model that drives engine in the given write mode.
func NewModel(ctx context.Context, engine *tasks.SyncEngine, mode tasks.WriteMode) *Model {
	return newModel(ctx, engine.Sync, engine.Registry().All, mode)
}

func newModel(ctx context.Context, run SyncFunc, listTasks func() []*models.Task, mode tasks.WriteMode) *Model {
	return &Model{
		ctx:       ctx,
		view:      ConfirmView,
		mode:      mode,
		run:       run,
		listTasks: listTasks,
		phases:    make(map[tasks.Phase]tasks.ProgressUpdate),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init waits for the user to confirm the run.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-4, 10)
		if m.view == ResultView {
			m.resultList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			m.current = update
			m.phases[update.Phase] = update
			if update.Message != "" {
				m.recent = append(m.recent, update.Message)
				if len(m.recent) > recentLines {
					m.recent = m.recent[len(m.recent)-recentLines:]
				}
			}
			return m, waitForProgress(m.updates, m.done)

		case MsgSyncComplete:
			outcome := msg.data.(syncOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.updates, m.done = nil, nil
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
			}
			m.showResult()
			return m, nil
		}
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Mode returns the write mode the next run will use.
func (m *Model) Mode() tasks.WriteMode { return m.mode }

// Result returns the outcome of the last completed run.
func (m *Model) Result() (*tasks.SyncResult, error) { return m.result, m.err }

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no):
		return m, tea.Quit
	case key.Matches(msg, m.keys.mode):
		if m.mode == tasks.WriteChanged {
			m.mode = tasks.WriteEverything
		} else {
			m.mode = tasks.WriteChanged
		}
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && m.cancel != nil {
		m.cancel()
		m.recent = append(m.recent, "Cancelling...")
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.resultList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = ConfirmView
		m.result = nil
		m.err = nil
		m.recent = nil
		m.current = tasks.ProgressUpdate{}
		m.phases = make(map[tasks.Phase]tasks.ProgressUpdate)
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) showResult() {
	var all []*models.Task
	if m.listTasks != nil {
		all = m.listTasks()
	}

	m.resultList = list.New(resultItems(m.result, all), list.NewDefaultDelegate(), 0, 0)
	m.resultList.Title = fmt.Sprintf("Tasks (%d)", len(all))
	m.resultList.SetShowHelp(false)
	if m.width > 0 {
		m.resultList.SetSize(m.width-4, m.height-10)
	}
	m.view = ResultView
}

// startSync launches the run in a goroutine and returns the command that relays its progress.
//
// The outcome is buffered before the progress channel closes, so the relay always finds it.
func (m *Model) startSync() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	updates := make(chan tasks.ProgressUpdate, 100)
	done := make(chan syncOutcome, 1)
	m.updates, m.done = updates, done
	run, mode := m.run, m.mode

	go func() {
		result, err := run(ctx, mode, updates)
		done <- syncOutcome{result, err}
		close(updates)
	}()

	return waitForProgress(updates, done)
}

func waitForProgress(updates <-chan tasks.ProgressUpdate, done <-chan syncOutcome) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			outcome := <-done
			return syncCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Sync board and program")

	desc := "send every field of every task"
	if m.mode == tasks.WriteChanged {
		desc = "send only fields that changed while loading"
	}
	info := fmt.Sprintf("Mode: %s (%s)\n", styles.ok.Render(m.mode.String()), desc)

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.mode, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Syncing (%s)", m.mode)))
	b.WriteString("\n")

	for _, phase := range []tasks.Phase{
		tasks.LoadProgram, tasks.LoadBoard, tasks.PropagateCategories, tasks.WriteBoard, tasks.WriteProgram,
		tasks.LinkBoard,
	} {
		update, seen := m.phases[phase]
		marker := styles.help.Render("·")
		if seen {
			marker = styles.ok.Render("•")
		}
		line := fmt.Sprintf("%s %s", marker, phaseLabel(phase))
		if seen && update.Total > 0 {
			line += fmt.Sprintf(" %d/%d", update.Step, update.Total)
		}
		b.WriteString(line + "\n")
	}

	if m.current.Total > 0 {
		b.WriteString("\n" + m.bar.ViewAs(float64(m.current.Step)/float64(m.current.Total)) + "\n")
	}

	if len(m.recent) > 0 {
		b.WriteString("\n" + styles.help.Render(strings.Join(m.recent, "\n")) + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.restart, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err)), helpView)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	failures := len(m.result.Failures())
	title := styles.ok.Render("✓ Sync Complete!")
	if failures > 0 {
		title = styles.warn.Render(fmt.Sprintf("Sync finished with %d failures", failures))
	}

	info := ""
	if load := m.result.Load; load != nil {
		info += fmt.Sprintf("\nLoaded: %d program tasks, %d cards (%d tasks)", load.Program.Processed, load.Board.Processed, load.Tasks)
	}
	if write := m.result.Write; write != nil {
		info += fmt.Sprintf("\nWritten: board %s, program %s",
			Summary(write.Board.Succeeded(), len(write.Board.Failures)),
			Summary(write.Program.Succeeded(), len(write.Program.Failures)),
		)
	}

	return fmt.Sprintf("%s%s\n\n%s\n\n%s", title, info, m.resultList.View(), helpView)
}

func phaseLabel(p tasks.Phase) string {
	switch p {
	case tasks.LoadProgram:
		return "Loading program tasks"
	case tasks.LoadBoard:
		return "Loading board cards"
	case tasks.PropagateCategories:
		return "Propagating inferred categories"
	case tasks.WriteBoard:
		return "Writing to board"
	case tasks.WriteProgram:
		return "Writing to program"
	case tasks.LinkBoard:
		return "Linking new program tasks"
	default:
		return p.String()
	}
}
