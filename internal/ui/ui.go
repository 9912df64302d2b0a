package ui

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/app"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/desertthunder/ldx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CollectionView ViewState = iota
	DetailView
	FormView
	ScanView
	RandomView
	AuthView
	ConfirmView
	ProgressView
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputFind
)

const scanRefresh = 250 * time.Millisecond

// Options configure a [Model].
type Options struct {
	Controller *app.Controller
	Center     *notify.Center
	Prompter   *Prompter
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Model is the bubbletea model for the collection manager.
type Model struct {
	ctx      context.Context
	ctrl     *app.Controller
	center   *notify.Center
	prompter *Prompter
	client   *http.Client
	logger   *log.Logger

	view          ViewState
	width, height int

	list     list.Model
	detailID uint
	form     formModel
	query    textinput.Model
	mode     inputMode
	pattern  string
	manual   textinput.Model
	token    textinput.Model

	confirm  *confirmData
	returnTo ViewState

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	bulk         *tasks.BulkResult

	covers map[string]string

	help help.Model
	keys keyMap
}

// NewModel creates the TUI model and routes bulk progress into it.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Prompter == nil {
		opts.Prompter = NewPrompter()
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "LaserDisc Collection"
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	query := textinput.New()
	query.Prompt = "/ "
	manual := textinput.New()
	manual.Prompt = "UPC or reference: "
	manual.CharLimit = 64
	token := textinput.New()
	token.Prompt = "Access token: "
	token.Placeholder = "WORD-WORD-1234"
	token.EchoMode = textinput.EchoPassword

	m := &Model{
		ctx:          ctx,
		ctrl:         opts.Controller,
		center:       opts.Center,
		prompter:     opts.Prompter,
		client:       opts.HTTPClient,
		logger:       shared.WithLogger(opts.Logger, "component", "ui"),
		list:         l,
		form:         newFormModel(),
		query:        query,
		manual:       manual,
		token:        token,
		progressChan: make(chan tasks.ProgressUpdate, 50),
		covers:       map[string]string{},
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.ctrl.SetContext(ctx)
	m.ctrl.Collection().SetProgress(m.progressChan)
	return m
}

// Run starts the program and wires controller changes, notifications and confirmations into it.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)

	m.ctrl.OnChange(func() { p.Send(Changed()) })
	if m.center != nil {
		m.center.Subscribe(func(n notify.Notification) { p.Send(notifiedMsg(n)) })
	}
	m.prompter.Attach(p.Send)
	defer m.prompter.Close()

	_, err := p.Run()
	return err
}

// ViewState returns the current view.
func (m *Model) ViewState() ViewState { return m.view }

// Init loads the first page and starts listening for bulk progress.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		m.refreshList()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoaded, MsgChanged:
		return m, m.sync()

	case MsgDone:
		d := msg.data.(doneData)
		if d.err != nil {
			m.logger.Debug("operation failed", "op", d.op, "error", d.err)
		}
		return m, m.sync()

	case MsgNotified:
		n := msg.data.(notify.Notification)
		return m, tea.Tick(time.Until(n.ExpiresAt), func(time.Time) tea.Msg { return expiredMsg(n.ID) })

	case MsgExpired:
		return m, nil

	case MsgProgress:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgBulkDone:
		d := msg.data.(bulkData)
		m.bulk = d.result
		if d.err != nil {
			m.logger.Debug("bulk operation failed", "error", d.err)
		}
		m.progress = tasks.ProgressUpdate{}
		if m.view == ProgressView {
			m.view = CollectionView
		}
		return m, m.sync()

	case MsgConfirm:
		d := msg.data.(confirmData)
		m.confirm = &d
		if m.view != ConfirmView {
			m.returnTo = m.view
		}
		m.view = ConfirmView
		return m, nil

	case MsgCover:
		d := msg.data.(coverData)
		m.covers[d.url] = d.art
		if d.err != nil {
			m.logger.Debug("cover preview unavailable", "url", d.url, "error", d.err)
			if url, _ := m.ctrl.Form().Cover(); url == d.url {
				m.ctrl.Form().HideCover()
			}
		}
		return m, nil

	case MsgTick:
		if m.view != ScanView {
			return m, nil
		}
		m.syncManual()
		return m, m.tick()
	}
	return m, nil
}

// sync derives the view from the controller after any state change.
func (m *Model) sync() tea.Cmd {
	m.refreshList()
	if m.view == ConfirmView || m.view == ProgressView {
		return nil
	}

	if m.ctrl.AuthRequired() {
		if m.view != AuthView {
			m.view = AuthView
			m.token.SetValue("")
			return m.token.Focus()
		}
		return nil
	}

	switch m.ctrl.Modals().Current() {
	case app.ModalScan:
		if m.view != ScanView {
			m.view = ScanView
			m.manual.SetValue(m.ctrl.Form().Manual())
			return tea.Batch(m.manual.Focus(), m.tick())
		}
	case app.ModalAdd, app.ModalEdit:
		if m.view != FormView {
			m.view = FormView
			return tea.Batch(m.form.load(m.ctrl.Form().Values()), m.formCover())
		}
	case app.ModalRandom:
		m.view = RandomView
	default:
		switch m.view {
		case ScanView, FormView, RandomView, AuthView:
			m.view = CollectionView
		case DetailView:
			if _, ok := m.ctrl.State().Item(m.detailID); !ok {
				m.view = CollectionView
			}
		}
	}
	return nil
}

// refreshList rebuilds the list from the session, narrowed by the quick-find pattern.
func (m *Model) refreshList() {
	snap := m.ctrl.State().Snapshot()
	items := snap.Items
	if m.pattern != "" {
		items = m.ctrl.Collection().QuickFind(m.pattern)
	}
	m.list.SetItems(catalogItems(items, snap.IsSelected, m.list.Width()))
}

func (m *Model) syncManual() {
	if v := m.ctrl.Form().Manual(); v != "" && v != m.manual.Value() {
		m.manual.SetValue(v)
	}
}

func (m *Model) selected() (uint, bool) {
	if it, ok := m.list.SelectedItem().(catalogItem); ok {
		return it.item.ID, true
	}
	return 0, false
}

// focused returns the item the detail view shows, or the list selection.
func (m *Model) focused() (uint, bool) {
	if m.view == DetailView {
		return m.detailID, true
	}
	return m.selected()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case CollectionView:
		return m.handleCollectionKeys(msg)
	case DetailView:
		return m.handleDetailKeys(msg)
	case FormView:
		return m.handleFormKeys(msg)
	case ScanView:
		return m.handleScanKeys(msg)
	case RandomView:
		return m.handleRandomKeys(msg)
	case AuthView:
		return m.handleAuthKeys(msg)
	case ConfirmView:
		return m.handleConfirmKeys(msg)
	}
	return m, nil
}

func (m *Model) handleCollectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != inputNone {
		return m.handleQueryKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if id, ok := m.selected(); ok {
			m.detailID = id
			m.view = DetailView
			return m, m.itemCover(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		if m.pattern != "" {
			m.pattern = ""
			m.refreshList()
		}
		return m, nil
	case key.Matches(msg, m.keys.sel):
		if id, ok := m.selected(); ok {
			m.ctrl.Collection().ToggleSelection(id)
			m.refreshList()
		}
		return m, nil
	case key.Matches(msg, m.keys.selAll):
		if m.ctrl.State().SelectedCount() > 0 {
			m.ctrl.Collection().ClearSelection()
		} else {
			m.ctrl.Collection().SelectAll()
		}
		m.refreshList()
		return m, nil
	case key.Matches(msg, m.keys.bulkWatch):
		return m, m.runBulk(m.ctrl.Collection().MarkSelectedWatched)
	case key.Matches(msg, m.keys.bulkDel):
		return m, m.runBulk(func(ctx context.Context) (*tasks.BulkResult, error) {
			return m.ctrl.Collection().DeleteSelected(ctx, m.prompter)
		})
	case key.Matches(msg, m.keys.sort):
		k, _, _ := m.ctrl.State().Listing()
		return m, m.perform("sort", func(ctx context.Context) error {
			return m.ctrl.Collection().UpdateSort(ctx, k.Next())
		})
	case key.Matches(msg, m.keys.order):
		return m, m.perform("order", m.ctrl.Collection().ToggleSortOrder)
	case key.Matches(msg, m.keys.filter):
		_, _, f := m.ctrl.State().Listing()
		return m, m.perform("filter", func(ctx context.Context) error {
			return m.ctrl.Collection().UpdateFilter(ctx, f.Next())
		})
	case key.Matches(msg, m.keys.search):
		search, _ := m.ctrl.State().Search()
		return m, m.openQuery(inputSearch, "/ ", search)
	case key.Matches(msg, m.keys.find):
		return m, m.openQuery(inputFind, "find: ", m.pattern)
	case key.Matches(msg, m.keys.reload):
		return m, m.load()
	case key.Matches(msg, m.keys.logout):
		return m, m.perform("logout", m.ctrl.Logout)
	}

	if cmd, ok := m.commonKeys(msg); ok {
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// commonKeys handles the bindings shared by the collection and detail views.
func (m *Model) commonKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.add):
		m.ctrl.Form().Reset()
		m.ctrl.Modals().Open(app.ModalAdd)
		return m.sync(), true
	case key.Matches(msg, m.keys.lookup):
		m.ctrl.Form().Reset()
		m.ctrl.Modals().Open(app.ModalScan)
		return m.sync(), true
	case key.Matches(msg, m.keys.scan):
		m.ctrl.Form().Reset()
		return m.perform("scan", m.ctrl.OpenScan), true
	case key.Matches(msg, m.keys.random):
		return m.perform("random", func(ctx context.Context) error {
			_, err := m.ctrl.RandomPick(ctx)
			return err
		}), true
	}

	id, ok := m.focused()
	if !ok {
		return nil, false
	}
	switch {
	case key.Matches(msg, m.keys.edit):
		if err := m.ctrl.BeginEdit(id); err != nil {
			m.logger.Debug("edit unavailable", "id", id, "error", err)
		}
		return m.sync(), true
	case key.Matches(msg, m.keys.del):
		return m.perform("delete", func(ctx context.Context) error {
			_, err := m.ctrl.Delete(ctx, id)
			return err
		}), true
	case key.Matches(msg, m.keys.watched):
		return m.perform("watched", func(ctx context.Context) error {
			_, err := m.ctrl.ToggleWatched(ctx, id)
			return err
		}), true
	}
	return nil, false
}

func (m *Model) openQuery(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.query.Prompt = prompt
	m.query.SetValue(value)
	m.query.CursorEnd()
	return m.query.Focus()
}

func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == inputFind {
			m.pattern = ""
			m.refreshList()
		}
		m.closeQuery()
		return m, nil
	case tea.KeyEnter:
		mode, value := m.mode, m.query.Value()
		m.closeQuery()
		if mode == inputSearch {
			m.pattern = ""
			return m, m.perform("search", func(ctx context.Context) error {
				return m.ctrl.Search(ctx, value)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.mode == inputFind {
		m.pattern = m.query.Value()
		m.refreshList()
		m.list.ResetSelected()
	}
	return m, cmd
}

func (m *Model) closeQuery() {
	m.mode = inputNone
	m.query.Blur()
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CollectionView
		return m, nil
	}
	cmd, _ := m.commonKeys(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.ctrl.Modals().Close()
		return m, m.sync()
	case key.Matches(msg, m.keys.save):
		return m, m.submitForm()
	case msg.Type == tea.KeyEnter:
		if m.form.last() {
			return m, m.submitForm()
		}
		return m, m.form.move(1)
	case key.Matches(msg, m.keys.next):
		return m, m.form.move(1)
	case key.Matches(msg, m.keys.prev):
		return m, m.form.move(-1)
	}
	return m, m.form.update(msg)
}

func (m *Model) submitForm() tea.Cmd {
	form := m.ctrl.Form()
	form.SetValues(m.form.values(form.Values()))
	editing := form.EditingID() != 0

	return m.perform("save", func(ctx context.Context) error {
		var err error
		if editing {
			_, err = m.ctrl.SaveEdit(ctx)
		} else {
			_, err = m.ctrl.SubmitAdd(ctx)
		}
		return err
	})
}

func (m *Model) handleScanKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	scanUI := m.ctrl.Scanner()
	switch {
	case key.Matches(msg, m.keys.back):
		m.ctrl.Modals().Close()
		return m, m.sync()
	case msg.Type == tea.KeyEnter:
		code := m.manual.Value()
		m.ctrl.Form().SetManual(code)
		return m, m.perform("lookup", func(ctx context.Context) error {
			_, err := m.ctrl.Lookup(ctx, code)
			return err
		})
	case key.Matches(msg, m.keys.start) && scanUI != nil:
		return m, m.perform("start", scanUI.Start)
	case key.Matches(msg, m.keys.stop) && scanUI != nil:
		scanUI.Stop()
		return m, nil
	case key.Matches(msg, m.keys.torch) && scanUI != nil:
		return m, m.perform("torch", scanUI.ToggleTorch)
	}

	var cmd tea.Cmd
	m.manual, cmd = m.manual.Update(msg)
	return m, cmd
}

func (m *Model) handleRandomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.ctrl.Modals().Close()
		return m, m.sync()
	case key.Matches(msg, m.keys.watched):
		return m, m.perform("random watched", m.ctrl.MarkRandomWatched)
	case key.Matches(msg, m.keys.another):
		return m, m.perform("pick another", func(ctx context.Context) error {
			_, err := m.ctrl.PickAnother(ctx)
			return err
		})
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		token := m.token.Value()
		return m, m.perform("authenticate", func(ctx context.Context) error {
			if err := m.ctrl.Authenticate(ctx, token); err != nil {
				return err
			}
			return m.ctrl.Reload(ctx)
		})
	}

	var cmd tea.Cmd
	m.token, cmd = m.token.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.answer(true)
	case key.Matches(msg, m.keys.no):
		m.answer(false)
	default:
		return m, nil
	}
	return m, m.sync()
}

func (m *Model) answer(ok bool) {
	if m.confirm != nil {
		m.confirm.reply <- ok
		m.confirm = nil
	}
	m.view = m.returnTo
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CollectionView:
		if m.mode != inputNone {
			m.query, cmd = m.query.Update(msg)
		} else {
			m.list, cmd = m.list.Update(msg)
		}
	case FormView:
		cmd = m.form.update(msg)
	case ScanView:
		m.manual, cmd = m.manual.Update(msg)
	case AuthView:
		m.token, cmd = m.token.Update(msg)
	}
	return m, cmd
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg(m.ctrl.Load(m.ctx, "", 0))
	}
}

// perform runs fn off the update loop; failures were already surfaced as notifications.
func (m *Model) perform(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg(op, fn(m.ctx))
	}
}

func (m *Model) runBulk(fn func(context.Context) (*tasks.BulkResult, error)) tea.Cmd {
	m.bulk = nil
	m.view = ProgressView
	return func() tea.Msg {
		result, err := fn(m.ctx)
		return bulkDoneMsg(result, err)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-m.progressChan:
			return progressMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(scanRefresh, func(time.Time) tea.Msg { return tickMsg() })
}

// formCover fetches the add/edit form's cover preview once per URL.
func (m *Model) formCover() tea.Cmd {
	url, visible := m.ctrl.Form().Cover()
	if !visible {
		return nil
	}
	return m.fetchCover(url)
}

func (m *Model) itemCover(id uint) tea.Cmd {
	item, ok := m.ctrl.State().Item(id)
	if !ok || !item.HasCover() {
		return nil
	}
	return m.fetchCover(item.CoverImageURL)
}

func (m *Model) fetchCover(url string) tea.Cmd {
	if _, ok := m.covers[url]; ok {
		return nil
	}
	return func() tea.Msg {
		img, err := FetchCover(m.ctx, m.client, url)
		if err != nil {
			return coverMsg(url, "", err)
		}
		return coverMsg(url, HalfBlocks(img, coverWidth, coverHeight), nil)
	}
}
