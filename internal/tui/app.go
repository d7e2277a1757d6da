package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expense-cli/internal/i18n"
	"expense-cli/internal/logging"
	"expense-cli/internal/mutate"
	"expense-cli/internal/remote"
	"expense-cli/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenHome screen = iota
	screenTags
	screenReport
)

type modalKind int

const (
	modalNone modalKind = iota
	modalConfirmDelete
	modalAmount
	modalLocation
)

type (
	reloadTickMsg   struct{}
	storeChangedMsg struct{}
	syncDoneMsg     struct {
		res remote.FlushResult
		err error
	}
	locationDoneMsg struct{ err error }
	syncRequestMsg  struct{}
)

const reloadInterval = 750 * time.Millisecond

type appModel struct {
	ctx       context.Context
	db        *store.DB
	tr        *i18n.Translator
	client    remote.Client
	cfg       *store.GlobalConfig
	log       *slog.Logger
	workspace string
	email     string

	width  int
	height int

	screen screen
	home   list.Model
	tags   tagsScreen
	report reportScreen

	modal      modalKind
	modalFocus confirmModalFocus
	amount     textinput.Model
	amountErr  string
	location   *locationFlow

	spinner spinner.Model
	version int64
	syncing bool
	// resync asks for another flush once the running one finishes.
	resync bool
	// flushPending asks Update to start a flush for writes made while reloading.
	flushPending bool
	// changes carries store observer callbacks into the program loop.
	changes chan struct{}
	flash   string
	err     string
}

func newAppModel(ctx context.Context, opts Options) (appModel, error) {
	if opts.DB == nil {
		return appModel{}, errors.New("tui: missing store")
	}
	m := appModel{
		ctx:       ctx,
		db:        opts.DB,
		tr:        opts.Translator,
		client:    opts.Client,
		cfg:       opts.Config,
		log:       logging.OrDiscard(opts.Logger).With("component", "tui"),
		workspace: opts.Workspace,
		email:     opts.Email,
		screen:    screenHome,
		changes:   make(chan struct{}, 1),
	}
	if m.tr == nil {
		m.tr = i18n.MustNew("")
	}
	if m.client == nil {
		m.client = remote.Loopback{}
	}
	if m.cfg == nil {
		m.cfg = &store.GlobalConfig{}
	}

	m.home = newList()
	m.tags.list = newList()
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.amount = textinput.New()
	m.amount.Placeholder = "12.50"
	m.amount.CharLimit = 16

	v, err := m.db.Version(ctx)
	if err != nil {
		return appModel{}, err
	}
	m.version = v
	m.refreshHome()
	m.restoreState()
	return m, nil
}

func newList() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func (m appModel) Init() tea.Cmd {
	// Requests queued while the UI was closed go out on start.
	requestSync := func() tea.Msg { return syncRequestMsg{} }
	return tea.Batch(tickReload(), m.spinner.Tick, requestSync, waitForChange(m.ctx, m.changes))
}

func tickReload() tea.Cmd {
	return tea.Tick(reloadInterval, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

// observe registers the screen's store observers. Bursts of changes collapse
// into one pending signal.
func (m appModel) observe() (unsubscribe func()) {
	ch := m.changes
	unsubs := make([]func(), 0, len(observedKeys))
	for _, key := range observedKeys {
		unsubs = append(unsubs, m.db.Subscribe(key, func(string) {
			select {
			case ch <- struct{}{}:
			default:
			}
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func waitForChange(ctx context.Context, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch:
			return storeChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	am, ok := next.(appModel)
	if !ok || !am.flushPending {
		return next, cmd
	}
	am.flushPending = false
	flush := am.flushCmd()
	return am, tea.Batch(cmd, flush)
}

func (m appModel) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		m.reloadCurrent()
		return m, nil

	case reloadTickMsg:
		// Writes from other processes never reach our observers; the version counter does.
		if v, err := m.db.Version(m.ctx); err == nil && v != m.version {
			m.version = v
			m.db.NotifyAll()
		}
		return m, tickReload()

	case storeChangedMsg:
		m.reloadCurrent()
		return m, waitForChange(m.ctx, m.changes)

	case syncDoneMsg:
		m.syncing = false
		switch {
		case msg.err != nil:
			m.setErr(msg.err)
		case msg.res.Offline:
			m.flash = m.tr.T(i18n.CommonOffline)
		case msg.res.Failed > 0:
			m.flash = fmt.Sprintf("sync: %d request(s) failed", msg.res.Failed)
		}
		m.syncVersion()
		m.reloadCurrent()
		if m.resync {
			m.resync = false
			cmd := m.flushCmd()
			return m, cmd
		}
		return m, nil

	case syncRequestMsg:
		cmd := m.flushCmd()
		return m, cmd

	case locationDoneMsg:
		return m.handleLocationDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.saveState()
			return m, tea.Quit
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		m.flash = ""
		switch m.screen {
		case screenTags:
			return m.updateTags(msg)
		case screenReport:
			return m.updateReport(msg)
		default:
			return m.updateHome(msg)
		}
	}
	return m, nil
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalConfirmDelete:
		return m.updateDeleteModal(msg)
	case modalAmount:
		return m.updateAmountModal(msg)
	case modalLocation:
		return m.updateLocationModal(msg)
	}
	return m, nil
}

func (m appModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("expense  workspace=%s  email=%s",
		emptyAsDash(m.workspace), emptyAsDash(m.email)))
	if m.syncing {
		header += "  " + m.spinner.View()
	}

	var body, help string
	switch m.screen {
	case screenTags:
		body, help = m.viewTags(), tagsHelp
	case screenReport:
		body, help = m.viewReport(), reportHelp
	default:
		body, help = m.home.View(), homeHelp
	}

	status := styleMuted().Render(help)
	if m.err != "" {
		status = styleError().Render(glyphWarning() + " " + m.err)
	} else if m.flash != "" {
		status = styleMuted().Render(m.flash)
	}

	out := strings.Join([]string{header, body, status}, "\n\n")
	if modal := m.viewModal(); modal != "" {
		return overlayCenter(modal, m.width, m.height)
	}
	return out
}

func (m appModel) viewModal() string {
	switch m.modal {
	case modalConfirmDelete:
		return m.viewDeleteModal()
	case modalAmount:
		return m.viewAmountModal()
	case modalLocation:
		return m.viewLocationModal()
	}
	return ""
}

func (m *appModel) resizeLists() {
	h := m.height - 8
	if h < 4 {
		h = 4
	}
	w := m.width
	if w < 20 {
		w = 20
	}
	m.home.SetSize(w, h)
	m.tags.list.SetSize(w, h-4)
}

func (m *appModel) reloadCurrent() {
	switch m.screen {
	case screenTags:
		m.reloadTags()
	case screenReport:
		m.reloadReport()
	default:
		m.refreshHome()
	}
}

// narrow reports whether the tags screen uses the small-screen layout.
// Before the first WindowSizeMsg the width is unknown and treated as wide.
func (m appModel) narrow() bool {
	limit := defaultNarrowWidth
	if m.cfg.TUI != nil && m.cfg.TUI.NarrowWidth > 0 {
		limit = m.cfg.TUI.NarrowWidth
	}
	return m.width > 0 && m.width < limit
}

// apply writes a mutation and, when it queued a request, flushes the outbox.
func (m *appModel) apply(res mutate.Result) tea.Cmd {
	if err := mutate.Apply(m.ctx, m.db, res); err != nil {
		m.setErr(err)
		return nil
	}
	m.err = ""
	m.syncVersion()
	m.reloadCurrent()
	if res.Request == nil {
		return nil
	}
	return m.flushCmd()
}

func (m *appModel) flushCmd() tea.Cmd {
	if m.syncing {
		m.resync = true
		return nil
	}
	m.syncing = true
	ctx, db, client, log := m.ctx, m.db, m.client, m.log
	return func() tea.Msg {
		res, err := remote.Flush(ctx, db, client, log)
		return syncDoneMsg{res: res, err: err}
	}
}

// syncVersion records our own writes so the reload tick does not redo them.
func (m *appModel) syncVersion() {
	if v, err := m.db.Version(m.ctx); err == nil {
		m.version = v
	}
}

func (m *appModel) setErr(err error) {
	if err == nil {
		m.err = ""
		return
	}
	m.err = err.Error()
	m.log.Warn("tui action failed", "screen", m.screen, "err", err)
}

func (m *appModel) copy(label, s string) {
	if err := copyToClipboard(s); err != nil {
		m.setErr(fmt.Errorf("copy %s: %w", label, err))
		return
	}
	m.flash = "copied " + label + ": " + s
}

func (m appModel) saveState() {
	st := &store.TUIState{}
	switch m.screen {
	case screenTags:
		st.Screen = "tags"
		st.PolicyID = m.tags.policyID
		st.OrderWeight = m.tags.orderWeight
	case screenReport:
		st.Screen = "report"
		st.ReportID = m.report.reportID
	}
	if err := store.SaveTUIState(m.db.Dir(), st); err != nil {
		m.log.Warn("save tui state", "err", err)
	}
}

// restoreState reopens the last screen. Anything that no longer resolves
// leaves the home screen up.
func (m *appModel) restoreState() {
	st, err := store.LoadTUIState(m.db.Dir())
	if err != nil {
		m.log.Warn("load tui state", "err", err)
		return
	}
	switch st.Screen {
	case "tags":
		if err := m.enterTags(st.PolicyID, st.OrderWeight); err != nil {
			m.log.Info("tui state: tags screen not restored", "policy", st.PolicyID, "err", err)
		}
	case "report":
		if err := m.enterReport(st.ReportID); err != nil {
			m.log.Info("tui state: report screen not restored", "report", st.ReportID, "err", err)
		}
	}
}

func emptyAsDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
