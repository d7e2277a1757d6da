package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

func (f confirmModalFocus) next() confirmModalFocus {
	if f == confirmFocusConfirm {
		return confirmFocusCancel
	}
	return confirmFocusConfirm
}

// confirmModal is the shape shared by the delete confirmation and the
// location prompt.
type confirmModal struct {
	title   string
	body    string
	confirm string
	cancel  string
	danger  bool
	loading string
	focus   confirmModalFocus
}

func renderConfirmModal(width int, m confirmModal) string {
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colors.SurfaceFg).
		Background(colors.ControlBg)
	btnActive := btnBase.
		Foreground(colors.SelectedFg).
		Background(colors.SelectedBg).
		Bold(true)
	if m.danger {
		btnActive = btnActive.Foreground(colors.AccentFg).Background(colors.Error)
	}

	confirm := btnBase.Render(m.confirm)
	cancel := btnBase.Render(m.cancel)
	if m.focus == confirmFocusConfirm {
		confirm = btnActive.Render(m.confirm)
	} else {
		cancel = btnActive.Render(m.cancel)
	}
	if m.loading != "" {
		confirm = btnBase.Render(m.loading)
	}

	sep := lipgloss.NewStyle().Background(colors.ControlBg).Render(" ")
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, sep, cancel)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Width(bodyW).Render("tab: focus   enter: select   esc: dismiss")

	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(m.body),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, m.title, content)
}
