package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/tasks"
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
	MsgLoaded MsgKind = iota
	MsgDone
	MsgChanged
	MsgNotified
	MsgExpired
	MsgProgress
	MsgBulkDone
	MsgConfirm
	MsgCover
	MsgTick
)

// doneData is the outcome of a backend flow started from a key press.
type doneData struct {
	op  string
	err error
}

type bulkData struct {
	result *tasks.BulkResult
	err    error
}

type confirmData struct {
	prompt string
	reply  chan<- bool
}

type coverData struct {
	url string
	art string
	err error
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(err error) Msg {
	return Msg{kind: MsgLoaded, data: err}
}

// doneMsg is the constructor for [MsgDone]
func doneMsg(op string, err error) Msg {
	return Msg{kind: MsgDone, data: doneData{op, err}}
}

// Changed is the constructor for [MsgChanged], sent when the controller changes state
// outside the update loop.
func Changed() Msg {
	return Msg{kind: MsgChanged}
}

// notifiedMsg is the constructor for [MsgNotified]
func notifiedMsg(n notify.Notification) Msg {
	return Msg{kind: MsgNotified, data: n}
}

// expiredMsg is the constructor for [MsgExpired]
func expiredMsg(id string) Msg {
	return Msg{kind: MsgExpired, data: id}
}

// progressMsg is the constructor for [MsgProgress]
func progressMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgress, data: update}
}

// bulkDoneMsg is the constructor for [MsgBulkDone]
func bulkDoneMsg(result *tasks.BulkResult, err error) Msg {
	return Msg{kind: MsgBulkDone, data: bulkData{result, err}}
}

// confirmMsg is the constructor for [MsgConfirm]
func confirmMsg(prompt string, reply chan<- bool) Msg {
	return Msg{kind: MsgConfirm, data: confirmData{prompt, reply}}
}

// coverMsg is the constructor for [MsgCover]
func coverMsg(url, art string, err error) Msg {
	return Msg{kind: MsgCover, data: coverData{url, art, err}}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}
