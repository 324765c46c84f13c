package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kwdl/internal/formatter"
	"github.com/desertthunder/kwdl/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	ConfirmView
	RunView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	processor    *tasks.BatchProcessor
	path         string
	width        int
	height       int
	queue        list.Model
	pending      []tasks.Line
	cursor       int
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	runDone      chan runData
	progress     tasks.ProgressUpdate
	done         int
	result       *tasks.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that runs path through processor.
func NewModel(ctx context.Context, processor *tasks.BatchProcessor, path string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.spin

	queue := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	queue.Title = fmt.Sprintf("Pending in %s", filepath.Base(path))

	return &Model{
		ctx:       ctx,
		view:      QueueView,
		processor: processor,
		path:      path,
		queue:     queue,
		spinner:   s,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// ViewState returns the current view.
func (m *Model) ViewState() ViewState { return m.view }

// Result returns the result of the last run, if any.
func (m *Model) Result() *tasks.RunResult { return m.result }

// Err returns the last error shown by the model.
func (m *Model) Err() error { return m.err }

// Init initializes the TUI by loading the pending queue.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadPending(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queue.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueueView:
			return m.handleQueueKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgPendingLoaded:
			data := msg.data.(pendingData)
			if data.err != nil {
				m.err = data.err
				return m, nil
			}
			m.err = nil
			m.pending = data.lines
			m.cursor = data.cursor
			cmd := m.queue.SetItems(lineItems(data.lines))
			return m, cmd

		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			if m.progress.Phase == tasks.LineDone {
				m.done++
			}
			return m, m.waitForProgress()

		case MsgRunComplete:
			data := msg.data.(runData)
			m.result = data.result
			m.err = data.err
			m.view = ResultView
			m.progressChan = nil
			m.runDone = nil
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
			}
			return m, nil
		}
	}

	if m.view == QueueView {
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == QueueView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case QueueView:
		return m.renderQueue()
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.queue.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if m.err == nil && len(m.pending) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.loadPending()
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = RunView
		return m, m.startRun()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = QueueView
		return m, nil
	}
	return m, nil
}

// handleRunKeys only honors stop; the run finishes its current line before the result view appears.
func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.stop) && m.cancel != nil {
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.view = QueueView
		m.result = nil
		m.err = nil
		m.done = 0
		m.progress = tasks.ProgressUpdate{}
		return m, m.loadPending()
	}
	return m, nil
}

func (m *Model) loadPending() tea.Cmd {
	return func() tea.Msg {
		lines, cursor, err := m.processor.Pending(m.ctx, m.path)
		return pendingLoadedMsg(lines, cursor, err)
	}
}

func (m *Model) startRun() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.done = 0
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.runDone = make(chan runData, 1)

	// The outcome travels back in MsgRunComplete; only Update writes the model.
	processor, path := m.processor, m.path
	progress, done := m.progressChan, m.runDone
	go func() {
		result, err := processor.Process(ctx, path, progress)
		done <- runData{result, err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.runDone
	result, err := m.result, m.err
	return func() tea.Msg {
		if progress == nil {
			return runCompleteMsg(result, err)
		}

		update, ok := <-progress
		if !ok {
			d := <-done
			return runCompleteMsg(d.result, d.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderQueue() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if len(m.pending) == 0 {
		title := styles.title.Render(filepath.Base(m.path))
		return fmt.Sprintf("%s\n%s\n\n%s", title, styles.ok.Render("Nothing left to process."), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.queue.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Process %d titles from %s?", len(m.pending), filepath.Base(m.path)))
	info := fmt.Sprintf("\nFile: %s\nStarting at line: %d\nFirst title: %s\n", m.path, m.cursor+1, m.pending[0].Title)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Processing " + filepath.Base(m.path))

	var phase string
	switch m.progress.Phase {
	case tasks.LoadFile, tasks.Resume:
		phase = "Loading..."
	case tasks.PerformLine, tasks.SkipLine, tasks.LineDone:
		phase = fmt.Sprintf("Line %d/%d (%d done)", m.progress.Step, m.progress.Total, m.done)
	case tasks.LineFailed:
		phase = styles.err.Render(fmt.Sprintf("Line %d/%d failed", m.progress.Step, m.progress.Total))
	default:
		phase = "Processing..."
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.stop})
	return fmt.Sprintf("%s\n\n%s %s\n%s\n\n%s", title, m.spinner.View(), phase, m.progress.Message, helpView)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.result == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Run failed: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	var title string
	switch {
	case m.result.Failed != nil:
		title = styles.err.Render(fmt.Sprintf("✗ Halted at line %d", m.result.Failed.Index+1))
	case m.err != nil:
		title = styles.warn.Render(fmt.Sprintf("Stopped: %v", m.err))
	default:
		title = styles.ok.Render("✓ File processing complete")
	}

	summary, _ := formatter.RunText(m.result)
	return fmt.Sprintf("%s\n\n%s\n%s", title, summary, helpView)
}
