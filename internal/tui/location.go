package tui

import (
	"context"
	"errors"
	"strings"
	"sync"

	"expense-cli/internal/i18n"
	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/permission"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// locationFlow is one run of the location prompt for a pending money request.
type locationFlow struct {
	flow     *permission.Flow
	reportID string
	amount   int64

	mu      sync.Mutex
	outcome string
}

func (lf *locationFlow) set(outcome string) {
	lf.mu.Lock()
	lf.outcome = outcome
	lf.mu.Unlock()
}

func (lf *locationFlow) result() string {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.outcome
}

// confirmedAsker answers the OS dialog in the TUI. The terminal belongs to the
// program, so the app prompt's confirm stands in for it.
type confirmedAsker struct{}

func (confirmedAsker) Ask(ctx context.Context, name string) (permission.Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return permission.Granted, nil
}

// Amount input.

func (m appModel) updateAmountModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.modal = modalNone
		m.amount.Blur()
		return m, nil
	case "enter":
		cents, err := mutate.ParseAmount(m.amount.Value())
		if err != nil {
			m.amountErr = err.Error()
			return m, nil
		}
		m.amount.Blur()
		m.modal = modalNone
		return m.startLocationFlow(cents)
	}
	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

func (m appModel) viewAmountModal() string {
	body := m.amount.View()
	if m.amountErr != "" {
		body += "\n" + styleError().Render(m.amountErr)
	}
	body += "\n\n" + styleMuted().Width(modalBodyWidth(m.width)).Render("enter: continue   esc: cancel")
	return renderModalBox(m.width, m.tr.T(i18n.ReportNewExpense), body)
}

// Location prompt.

func (m appModel) startLocationFlow(cents int64) (tea.Model, tea.Cmd) {
	behaviour, err := permission.ParseBehaviour(m.cfg.Permissions.Location)
	if err != nil {
		m.setErr(err)
		return m, nil
	}
	lf := &locationFlow{reportID: m.report.reportID, amount: cents}
	dev := permission.NewDevicePermission(m.db, "location", behaviour, confirmedAsker{})
	settings := permission.NewSystemSettings(m.cfg.Permissions.Settings)
	lf.flow = permission.New(dev, settings, permission.Handlers{
		OnGrant: func() { lf.set("granted") },
		OnDeny:  func() { lf.set("denied") },
		OnReset: func() { lf.set("reset") },
	}, permission.WithLogger(m.log))

	if err := lf.flow.SetTrigger(m.ctx, true); err != nil {
		m.setErr(err)
		return m, nil
	}
	if lf.flow.Prompt().Visible {
		m.location = lf
		m.modal = modalLocation
		m.modalFocus = confirmFocusConfirm
		return m, nil
	}
	cmd := m.finishLocationFlow(lf)
	return m, cmd
}

func (m appModel) updateLocationModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lf := m.location
	if lf == nil {
		m.modal = modalNone
		return m, nil
	}
	if lf.flow.Prompt().Loading {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m.closeLocationPrompt(lf.flow.Dismiss())
	case "tab", "shift+tab", "left", "right", "h", "l":
		m.modalFocus = m.modalFocus.next()
		return m, nil
	case "enter":
		if m.modalFocus == confirmFocusCancel {
			return m.closeLocationPrompt(lf.flow.Cancel())
		}
		ctx := m.ctx
		return m, func() tea.Msg { return locationDoneMsg{err: lf.flow.Confirm(ctx)} }
	}
	return m, nil
}

func (m appModel) closeLocationPrompt(err error) (tea.Model, tea.Cmd) {
	if err != nil && !errors.Is(err, permission.ErrNoPrompt) {
		m.setErr(err)
		return m, nil
	}
	lf := m.location
	m.modal = modalNone
	m.location = nil
	cmd := m.finishLocationFlow(lf)
	return m, cmd
}

func (m appModel) handleLocationDone(msg locationDoneMsg) (tea.Model, tea.Cmd) {
	lf := m.location
	if lf == nil {
		return m, nil
	}
	if msg.err != nil {
		m.setErr(msg.err)
	}
	if lf.flow.Prompt().Visible {
		// Request failed or access is blocked: the prompt stays, now with settings copy.
		m.modalFocus = confirmFocusConfirm
		return m, nil
	}
	m.modal = modalNone
	m.location = nil
	cmd := m.finishLocationFlow(lf)
	return m, cmd
}

// finishLocationFlow creates the money request. The location is attached only
// when access was granted; a denied or dismissed prompt still creates it.
func (m *appModel) finishLocationFlow(lf *locationFlow) tea.Cmd {
	if lf == nil || lf.amount <= 0 {
		return nil
	}
	r, err := m.db.Report(m.ctx, lf.reportID)
	if err != nil {
		m.setErr(err)
		return nil
	}
	if r == nil {
		m.setErr(mutate.NotFoundError{Kind: "report", ID: lf.reportID})
		return nil
	}
	in := mutate.MoneyRequest{Amount: lf.amount, ActorEmail: m.email}
	outcome := lf.result()
	if outcome == "granted" {
		in.Location = &model.Location{Lat: m.cfg.Permissions.Latitude, Lng: m.cfg.Permissions.Longitude}
	}
	res, tx, err := mutate.CreateMoneyRequest(r, in)
	if err != nil {
		m.setErr(err)
		return nil
	}
	m.log.Info("money request created", "report", r.ReportID, "transaction", tx.TransactionID, "location", outcome)
	m.flash = "added " + formatMoney(tx.Amount, tx.Currency)
	return m.apply(res)
}

func (m appModel) viewLocationModal() string {
	if m.location == nil {
		return ""
	}
	p := m.location.flow.Prompt()
	cm := confirmModal{
		title:   m.tr.T(p.TitleKey),
		body:    m.tr.T(p.MessageKey),
		confirm: m.tr.T(p.ConfirmKey),
		cancel:  m.tr.T(p.CancelKey),
		focus:   m.modalFocus,
	}
	if p.Loading {
		cm.loading = m.spinner.View() + " " + strings.TrimSuffix(m.tr.T(i18n.CommonLoading), "...")
	}
	if p.HasError {
		cm.body = lipgloss.NewStyle().Foreground(colors.Error).Render(cm.body)
	}
	return renderConfirmModal(m.width, cm)
}
