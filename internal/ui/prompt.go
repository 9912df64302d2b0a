package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ldx/internal/notify"
)

var _ notify.Confirmer = (*Prompter)(nil)

// Prompter answers confirmations through the TUI's confirm view.
//
// Confirm blocks the calling goroutine until the user answers, so it must never be called
// from the update loop. Until a program is attached, and after it closes, every prompt is declined.
type Prompter struct {
	mu   sync.Mutex
	send func(tea.Msg)
	done chan struct{}
}

// NewPrompter creates a detached prompter.
func NewPrompter() *Prompter {
	return &Prompter{done: make(chan struct{})}
}

// Attach routes prompts to send, usually [tea.Program.Send].
func (p *Prompter) Attach(send func(tea.Msg)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send = send
}

// Close declines pending and future prompts.
func (p *Prompter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

func (p *Prompter) Confirm(prompt string) bool {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return false
	}

	reply := make(chan bool, 1)
	send(confirmMsg(prompt, reply))
	select {
	case ok := <-reply:
		return ok
	case <-p.done:
		return false
	}
}
