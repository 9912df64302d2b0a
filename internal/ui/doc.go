// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI renders the controller's view-models:
//  1. [CollectionView] : Browse, search, sort, filter and select the loaded page
//  2. [DetailView] : One LaserDisc with its cover preview and markdown notes
//  3. [FormView] : The add/edit modal
//  4. [ScanView] : The scan modal with camera status, overlay preview and manual entry
//  5. [RandomView] : A random unwatched pick
//  6. [AuthView] : Access token entry after a 401
//  7. [ConfirmView] : Answers confirmations requested through [Prompter]
//  8. [ProgressView] : Bulk operation progress
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Backend calls run as commands; controller changes made outside the loop (accepted scans, 401s) arrive as [Changed].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
