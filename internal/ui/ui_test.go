package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kwdl/internal/models"
	"github.com/desertthunder/kwdl/internal/repositories"
	"github.com/desertthunder/kwdl/internal/tasks"
	tu "github.com/desertthunder/kwdl/internal/testing"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, performer *tu.RecordingPerformer, lines ...string) (*Model, *repositories.FileProgressStore, string) {
	t.Helper()
	dir := t.TempDir()
	path := tu.WriteLines(t, dir, "titles.txt", lines...)
	store := repositories.NewFileProgressStore(filepath.Join(dir, "progress.json"), nil)
	processor := tasks.NewBatchProcessor(tasks.BatchOpts{Store: store, Performer: performer})

	m := NewModel(context.Background(), processor, path)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, store, path
}

// drain feeds cmd results back into the model until the run completes.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 100; i++ {
		msg := cmd()
		_, cmd = m.Update(msg)
		if mm, ok := msg.(Msg); ok && mm.kind == MsgRunComplete {
			return
		}
	}
	t.Fatal("run did not complete")
}

func TestModelWorkflow(t *testing.T) {
	performer := &tu.RecordingPerformer{}
	m, store, path := newTestModel(t, performer, "晴天", "", "稻香")

	m.Update(m.loadPending()())
	if m.ViewState() != QueueView {
		t.Fatalf("expected QueueView, got %d", m.ViewState())
	}
	if len(m.pending) != 2 {
		t.Fatalf("expected 2 pending lines, got %d", len(m.pending))
	}
	if !strings.Contains(m.View(), "Pending in titles.txt") {
		t.Errorf("queue view should show the list, got:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.ViewState() != ConfirmView {
		t.Fatalf("expected ConfirmView, got %d", m.ViewState())
	}
	if !strings.Contains(m.View(), "Process 2 titles") {
		t.Errorf("unexpected confirm view:\n%s", m.View())
	}

	m.Update(keyRunes("n"))
	if m.ViewState() != QueueView {
		t.Fatalf("expected QueueView after declining, got %d", m.ViewState())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := m.Update(keyRunes("y"))
	if m.ViewState() != RunView {
		t.Fatalf("expected RunView, got %d", m.ViewState())
	}
	drain(t, m, cmd)

	if m.ViewState() != ResultView {
		t.Fatalf("expected ResultView, got %d", m.ViewState())
	}
	if m.Result() == nil || m.Result().Status != models.RunCompleted {
		t.Fatalf("unexpected result %+v", m.Result())
	}
	if got := performer.Calls(); len(got) != 2 {
		t.Errorf("calls = %q", got)
	}
	if cursor, _ := store.Load(context.Background(), path); cursor != 3 {
		t.Errorf("cursor = %d, want 3", cursor)
	}
	if !strings.Contains(m.View(), "File processing complete") {
		t.Errorf("unexpected result view:\n%s", m.View())
	}

	m.Update(keyRunes("r"))
	m.Update(m.loadPending()())
	if m.ViewState() != QueueView || len(m.pending) != 0 {
		t.Errorf("reloaded queue should be empty, got %d lines", len(m.pending))
	}
	if !strings.Contains(m.View(), "Nothing left to process.") {
		t.Errorf("unexpected empty queue view:\n%s", m.View())
	}
}

func TestModelHaltedRun(t *testing.T) {
	performer := &tu.RecordingPerformer{Fail: map[string]bool{"b": true}}
	m, _, _ := newTestModel(t, performer, "a", "b", "c")

	m.Update(m.loadPending()())
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := m.Update(keyRunes("y"))
	drain(t, m, cmd)

	if m.Result() == nil || m.Result().Failed == nil {
		t.Fatalf("expected a halted run, got %+v", m.Result())
	}
	if !strings.Contains(m.View(), "Halted at line 2") {
		t.Errorf("unexpected result view:\n%s", m.View())
	}
}

func TestModelResultArrivesWithCompletion(t *testing.T) {
	m, _, _ := newTestModel(t, &tu.RecordingPerformer{}, "a", "b")

	m.Update(m.loadPending()())
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := m.Update(keyRunes("y"))

	for i := 0; cmd != nil && i < 100; i++ {
		msg := cmd()
		if mm, ok := msg.(Msg); ok && mm.kind == MsgRunComplete {
			if m.Result() != nil || m.ViewState() != RunView {
				t.Fatalf("model changed before the completion message was applied: %+v", m.Result())
			}
			data := mm.data.(runData)
			if data.result == nil || data.result.Succeeded != 2 {
				t.Fatalf("completion message carries %+v", data.result)
			}

			m.Update(msg)
			if m.Result() != data.result || m.ViewState() != ResultView {
				t.Errorf("expected result from the completion message, got %+v", m.Result())
			}
			return
		}
		_, cmd = m.Update(msg)
	}
	t.Fatal("run did not complete")
}

func TestModelEnterIgnoredWhenEmpty(t *testing.T) {
	m, _, _ := newTestModel(t, &tu.RecordingPerformer{}, "", "  ")

	m.Update(m.loadPending()())
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.ViewState() != QueueView {
		t.Errorf("expected to stay in QueueView, got %d", m.ViewState())
	}
}

func TestModelMissingFile(t *testing.T) {
	store := repositories.NewFileProgressStore(filepath.Join(t.TempDir(), "progress.json"), nil)
	processor := tasks.NewBatchProcessor(tasks.BatchOpts{Store: store, Performer: &tu.RecordingPerformer{}})
	m := NewModel(context.Background(), processor, filepath.Join(t.TempDir(), "nope.txt"))

	m.Update(m.loadPending()())
	if m.Err() == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}

func TestModelQuit(t *testing.T) {
	m, _, _ := newTestModel(t, &tu.RecordingPerformer{}, "a")
	m.Update(m.loadPending()())

	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
