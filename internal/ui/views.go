package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ldx/internal/app"
	"github.com/desertthunder/ldx/internal/collection"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/desertthunder/ldx/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	coverWidth   = 24
	coverHeight  = 12
	previewWidth = 40
	textWidth    = 60
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case CollectionView:
		body = m.renderCollection()
	case DetailView:
		body = m.renderDetail()
	case FormView:
		body = m.renderForm()
	case ScanView:
		body = m.renderScan()
	case RandomView:
		body = m.renderRandom()
	case AuthView:
		body = m.renderAuth()
	case ConfirmView:
		body = m.renderConfirm()
	case ProgressView:
		body = m.renderProgress()
	}

	if bar := m.renderNotification(); bar != "" {
		return body + "\n\n" + bar
	}
	return body
}

func (m *Model) renderNotification() string {
	if m.center == nil {
		return ""
	}
	n, ok := m.center.Current()
	if !ok {
		return ""
	}
	return styles.level(n.Level).Render(shared.Sanitize(n.Message))
}

func (m *Model) renderCollection() string {
	var content string
	snap := m.ctrl.State().Snapshot()
	switch {
	case m.ctrl.LoadFailed():
		content = styles.err.Render(collection.LoadFailedMessage)
	case len(snap.Items) == 0:
		content = renderEmpty(snap.Search)
	default:
		content = m.list.View()
	}

	var input string
	if m.mode != inputNone {
		input = "\n" + m.query.View()
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s%s\n%s", content, m.renderStatus(), input, helpView)
}

// renderEmpty is shown instead of the list when a load returned nothing.
func renderEmpty(search string) string {
	hint := collection.EmptyHintNew
	if search != "" {
		hint = collection.EmptyHintSearch
	}
	return styles.title.Render(collection.EmptyMessage) + "\n" + styles.help.Render(hint)
}

// renderStatus summarises stats, listing options, pagination and the selection.
func (m *Model) renderStatus() string {
	snap := m.ctrl.State().Snapshot()
	parts := []string{
		fmt.Sprintf("%s total • %s watched • %s unwatched",
			humanize.Comma(snap.Stats.Total), humanize.Comma(snap.Stats.Watched), humanize.Comma(snap.Stats.Unwatched)),
		fmt.Sprintf("sort: %s %s", snap.SortKey, snap.SortOrder),
		fmt.Sprintf("filter: %s", snap.Filter),
	}
	if p := snap.Pagination; p.Total > 0 {
		parts = append(parts, fmt.Sprintf("showing %d-%d of %s", p.Offset+1, p.PageEnd(), humanize.Comma(p.Total)))
	}
	if snap.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", shared.Sanitize(snap.Search)))
	}
	if m.pattern != "" {
		parts = append(parts, fmt.Sprintf("find: %q", m.pattern))
	}
	if n := len(snap.Selected); n > 0 {
		parts = append(parts, shared.Pluralize(n, "item", "items")+" selected")
	}
	return styles.status.Render(strings.Join(parts, " | "))
}

func (m *Model) renderDetail() string {
	item, ok := m.ctrl.State().Item(m.detailID)
	if !ok {
		return styles.err.Render(app.MsgItemMissing)
	}

	title := styles.title.Render(shared.Sanitize(item.Title))
	info := detailFields(item)
	if art := m.covers[item.CoverImageURL]; item.HasCover() && art != "" {
		info = lipgloss.JoinHorizontal(lipgloss.Top, art, "  ", info)
	}

	var notes string
	if item.Notes != "" {
		notes = "\n\n" + m.renderNotes(item.Notes)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.edit, m.keys.watched, m.keys.del, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, notes, helpView)
}

func detailFields(item models.CatalogItem) string {
	watched := "no"
	if item.Watched {
		watched = "yes"
	}
	rows := [][2]string{
		{"UPC", item.UPC},
		{"Year", yearOf(item.Year)},
		{"Director", item.Director},
		{"Genre", item.Genre},
		{"Format", item.Format},
		{"Sides", sidesOf(item.Sides)},
		{"Runtime", shared.FormatRuntime(item.Runtime)},
		{"Watched", watched},
		{"Added", addedAgo(item.AddedDate, time.Now())},
		{"LDDB", item.LDDBURL},
	}

	lines := []string{}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		lines = append(lines, styles.label.Render(r[0])+" "+shared.Sanitize(r[1]))
	}
	return strings.Join(lines, "\n")
}

// renderNotes renders markdown notes, falling back to wrapped plain text.
func (m *Model) renderNotes(notes string) string {
	notes = shared.Sanitize(notes)
	width := textWidth
	if m.width > 0 {
		width = min(m.width-4, textWidth)
	}

	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
	if err == nil {
		if out, err := r.Render(notes); err == nil {
			return strings.TrimSpace(out)
		}
	}
	return wordwrap.String(notes, width)
}

func (m *Model) renderForm() string {
	heading := "Add LaserDisc"
	if m.ctrl.Form().EditingID() != 0 {
		heading = "Edit LaserDisc"
	}

	body := m.form.view()
	if url, visible := m.ctrl.Form().Cover(); visible {
		if art := m.covers[url]; art != "" {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", art)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.prev, m.keys.save, m.keys.back})
	return styles.modal.Render(fmt.Sprintf("%s\n%s\n\n%s", styles.title.Render(heading), body, helpView))
}

func (m *Model) renderScan() string {
	title := styles.title.Render("Scan Barcode")
	scanUI := m.ctrl.Scanner()
	if scanUI == nil {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
		return styles.modal.Render(fmt.Sprintf("%s\n%s\n\n%s", title, m.manual.View(), helpView))
	}

	st := scanUI.Panel().State()
	camera := styles.help.Render(st.Placeholder)
	if ov := scanUI.Controller().Overlay(); ov != nil && st.ShowStop {
		if img := ov.Last(); img != nil {
			camera = HalfBlocks(img, previewWidth, previewWidth/4)
		}
	}

	bindings := []key.Binding{m.keys.enter}
	if st.ShowStart {
		bindings = append(bindings, m.keys.start)
	}
	if st.ShowStop {
		bindings = append(bindings, m.keys.stop)
	}
	if st.ShowTorch {
		bindings = append(bindings, m.keys.torch)
	}
	bindings = append(bindings, m.keys.back)

	lines := []string{
		title,
		fmt.Sprintf("Engine: %s", scanUI.Controller().EngineName()),
		camera,
		st.Instructions,
		styles.kind(st.Kind).Render(st.Status),
		"",
		m.manual.View(),
		"",
		m.help.ShortHelpView(bindings),
	}
	return styles.modal.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderRandom() string {
	item, ok := m.ctrl.Modals().Random()
	if !ok {
		return ""
	}

	lines := []string{
		styles.title.Render("Random Pick"),
		styles.ok.Render(truncate.StringWithTail(shared.Sanitize(item.Title), textWidth, ellipsis)),
	}
	if meta := metadata(item); meta != "" {
		lines = append(lines, meta)
	}
	if rt := shared.FormatRuntime(item.Runtime); rt != "" {
		lines = append(lines, rt)
	}
	if item.Notes != "" {
		lines = append(lines, "", wordwrap.String(shared.Sanitize(item.Notes), textWidth))
	}
	lines = append(lines, "", m.help.ShortHelpView([]key.Binding{m.keys.watched, m.keys.another, m.keys.back}))
	return styles.modal.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderAuth() string {
	lines := []string{
		styles.title.Render("Sign In"),
		app.MsgAuthRequired,
		"",
		m.token.View(),
		"",
		m.help.ShortHelpView([]key.Binding{m.keys.enter}),
	}
	return styles.modal.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderConfirm() string {
	prompt := ""
	if m.confirm != nil {
		prompt = m.confirm.prompt
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return styles.modal.Render(fmt.Sprintf("%s\n\n%s", styles.warn.Render(prompt), helpView))
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Working")

	var phase string
	switch m.progress.Phase {
	case tasks.MarkWatched:
		phase = fmt.Sprintf("Marking watched (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.DeleteItems:
		phase = fmt.Sprintf("Deleting (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}
	if m.progress.Total == 0 {
		phase = "Processing..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func yearOf(y int) string {
	if y <= 0 {
		return ""
	}
	return fmt.Sprint(y)
}

func sidesOf(n int) string {
	if n <= 0 {
		return ""
	}
	return shared.Pluralize(n, "side", "sides")
}
