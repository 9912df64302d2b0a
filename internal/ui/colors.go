package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/scanner"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F5F", "#FFA500", "#626262", "#5FAFFF")

// Painter colors text with [lipgloss] styles.
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	info   lipgloss.Style
	label  lipgloss.Style
	modal  lipgloss.Style
	status lipgloss.Style
}

var _ Painter = (*Palette)(nil)

func NewPalette(t, s, e, w, h, i string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		info:   NewStyle(i),
		label:  NewBold(h).Width(10),
		modal:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(1, 2),
		status: NewStyle(h),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

// level picks the style for a notification.
func (p *Palette) level(l notify.Level) lipgloss.Style {
	switch l {
	case notify.Success:
		return p.ok
	case notify.Warning:
		return p.warn
	case notify.Error:
		return p.err
	default:
		return p.info
	}
}

// kind picks the style for a scanner status line.
func (p *Palette) kind(k scanner.StatusKind) lipgloss.Style {
	switch k {
	case scanner.StatusSuccess:
		return p.ok
	case scanner.StatusError:
		return p.err
	default:
		return p.info
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
