// Package ui implements an interactive terminal interface for a sync run using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [ConfirmView] : Pick the write mode and confirm the run
//  2. [SyncView] : Monitor real-time progress updates per phase
//  3. [ResultView] : Browse failures and reconciled tasks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the sync engine, providing non-blocking status reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, m, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
