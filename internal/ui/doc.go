// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for a batch run over one title file:
//  1. [QueueView] : Browse the lines the run would still perform
//  2. [ConfirmView] : Confirm the run
//  3. [RunView] : Monitor real-time progress with a spinner
//  4. [ResultView] : Display the run summary and the line that halted it, if any
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the BatchProcessor, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
