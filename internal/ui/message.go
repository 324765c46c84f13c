package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kwdl/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPendingLoaded MsgKind = iota
	MsgProgressUpdate
	MsgRunComplete
)

type pendingData struct {
	lines  []tasks.Line
	cursor int
	err    error
}

type runData struct {
	result *tasks.RunResult
	err    error
}

// pendingLoadedMsg is the constructor for [MsgPendingLoaded]
func pendingLoadedMsg(lines []tasks.Line, cursor int, err error) Msg {
	return Msg{kind: MsgPendingLoaded, data: pendingData{lines, cursor, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runData{result, err}}
}
