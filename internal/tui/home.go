package tui

import (
	"fmt"

	"expense-cli/internal/perm"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const homeHelp = "enter: open   c: copy id   q: quit"

type homeItemKind int

const (
	homePolicy homeItemKind = iota
	homeReport
)

type homeItem struct {
	kind  homeItemKind
	id    string
	title string
	desc  string
}

func (it homeItem) Title() string       { return it.title }
func (it homeItem) Description() string { return it.desc }
func (it homeItem) FilterValue() string { return it.title }

func (m *appModel) refreshHome() {
	var items []list.Item

	policies, err := m.db.Policies(m.ctx)
	if err != nil {
		m.setErr(err)
	}
	for _, p := range policies {
		role := string(p.Role)
		if perm.IsAdmin(&p, m.email) {
			role = "admin"
		}
		items = append(items, homeItem{
			kind:  homePolicy,
			id:    p.ID,
			title: p.Name,
			desc:  fmt.Sprintf("Workspace tags · %s · %s", p.ID, role),
		})
	}

	reports, err := m.db.Reports(m.ctx)
	if err != nil {
		m.setErr(err)
	}
	for _, r := range reports {
		name := r.Name
		if name == "" {
			name = r.ReportID
		}
		items = append(items, homeItem{
			kind:  homeReport,
			id:    r.ReportID,
			title: name,
			desc:  fmt.Sprintf("Report · %s · %s", r.ReportID, formatMoney(r.Total, r.Currency)),
		})
	}

	idx := m.home.Index()
	m.home.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.home.Select(idx)
	}
}

func (m appModel) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.saveState()
		return m, tea.Quit
	case "enter":
		it, ok := m.home.SelectedItem().(homeItem)
		if !ok {
			return m, nil
		}
		if it.kind == homePolicy {
			cmd := m.openTags(it.id)
			return m, cmd
		}
		if err := m.enterReport(it.id); err != nil {
			m.setErr(err)
		}
		return m, nil
	case "c":
		if it, ok := m.home.SelectedItem().(homeItem); ok {
			m.copy("id", it.id)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.home, cmd = m.home.Update(msg)
	return m, cmd
}

func (m *appModel) goHome() {
	m.screen = screenHome
	m.refreshHome()
}
