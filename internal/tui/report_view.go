package tui

import (
	"fmt"
	"strings"

	"expense-cli/internal/i18n"
	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/nav"
	"expense-cli/internal/report"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const reportHelp = "n: new expense   j/k: scroll   ctrl+e: dismiss error   c: copy id   esc: back"

type reportScreen struct {
	reportID string
	policyID string
	stack    *nav.Stack
	view     report.View
	offset   int
}

// enterReport opens the report as if it was picked from the search list, so
// going back lands on the workspace's canned search.
func (m *appModel) enterReport(reportID string) error {
	r, err := m.db.Report(m.ctx, reportID)
	if err != nil {
		return err
	}
	if r == nil {
		return mutate.NotFoundError{Kind: "report", ID: reportID}
	}
	m.screen = screenReport
	m.report = reportScreen{
		reportID: reportID,
		policyID: r.PolicyID,
		stack:    nav.NewStack(nav.SearchRoot(nav.CannedSearchQuery(r.PolicyID)), nav.SearchReportRoute(reportID)),
	}
	m.reloadReport()
	return nil
}

func (m *appModel) reloadReport() {
	in, err := report.Load(m.ctx, m.db, m.report.reportID, true)
	if err != nil {
		m.setErr(err)
		return
	}
	if in.Email == "" {
		in.Email = m.email
	}
	m.report.view = report.Build(in)
}

func (m appModel) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := &m.report
	switch msg.String() {
	case "q":
		m.saveState()
		return m, tea.Quit

	case "esc", "backspace":
		report.GoBack(r.stack, "", r.policyID, m.log)
		m.goHome()
		return m, nil

	case "ctrl+e":
		if len(r.view.Errors) == 0 {
			return m, nil
		}
		if err := report.DismissCreationError(m.ctx, m.db, r.stack, r.reportID, r.policyID, m.log); err != nil {
			m.setErr(err)
			return m, nil
		}
		m.syncVersion()
		m.goHome()
		return m, nil

	case "c":
		m.copy("report id", r.reportID)
		return m, nil

	case "n":
		if r.view.Report == nil {
			return m, nil
		}
		m.modal = modalAmount
		m.amountErr = ""
		m.amount.SetValue("")
		cmd := m.amount.Focus()
		return m, cmd

	case "j", "down":
		r.offset++
		return m, nil

	case "k", "up":
		if r.offset > 0 {
			r.offset--
		}
		return m, nil
	}
	return m, nil
}

func (m appModel) viewReport() string {
	v := m.report.view
	width := max(m.width, 40)
	var lines []string

	if v.Report != nil {
		title := v.Report.Name
		if title == "" {
			title = v.Report.ReportID
		}
		head := styleTitle().Render(title) + "  " + m.tr.T(i18n.ReportTotal) + ": " + formatMoney(v.Report.Total, v.Report.Currency)
		if v.PendingAction != model.PendingNone {
			head += "  " + stylePending().Render("("+string(v.PendingAction)+")")
		}
		lines = append(lines, head)
	}
	if msg := latestError(v.Errors); msg != "" {
		lines = append(lines, styleError().Render(glyphWarning()+" "+msg)+styleMuted().Render("  ctrl+e: "+m.tr.T(i18n.CommonDismiss)))
	}
	lines = append(lines, styleMuted().Render(strings.Repeat(glyphHRule(), width)))

	switch v.Layout {
	case report.LayoutInitialSkeleton, report.LayoutActionsSkeleton:
		lines = append(lines, m.spinner.View()+" "+m.tr.T(i18n.ReportLoading))
	case report.LayoutEmpty:
		lines = append(lines, styleMuted().Render(m.tr.T(i18n.ReportEmpty)))
	default:
		if v.Layout == report.LayoutLoadingApp {
			lines = append(lines, m.spinner.View()+" "+m.tr.T(i18n.CommonLoading))
		}
		lines = append(lines, m.viewTransactions(v)...)
		lines = append(lines, "")
		lines = append(lines, m.viewActions(v, width)...)
	}

	body := strings.Join(lines, "\n")
	if off := m.report.offset; off > 0 {
		all := strings.Split(body, "\n")
		if off >= len(all) {
			off = len(all) - 1
		}
		body = strings.Join(all[off:], "\n")
	}
	if v.ShowFooter {
		body += "\n\n" + lipgloss.NewStyle().Foreground(colors.Accent).Render("n: "+m.tr.T(i18n.ReportNewExpense))
	}
	return body
}

func (m appModel) viewTransactions(v report.View) []string {
	if len(v.Transactions) == 0 {
		return nil
	}
	if v.SingleTransaction {
		tx := v.Transactions[0]
		out := []string{
			lipgloss.NewStyle().Bold(true).Render(m.tr.T(i18n.ReportSingleExpense)),
			"  " + formatMoney(tx.Amount, tx.Currency) + "  " + emptyAsDash(tx.Merchant),
			"  " + styleMuted().Render(tx.Created.Local().Format("2006-01-02 15:04")),
		}
		if tx.Location != nil {
			out = append(out, "  "+styleMuted().Render(fmt.Sprintf("%.5f, %.5f", tx.Location.Lat, tx.Location.Lng)))
		}
		return out
	}
	out := []string{lipgloss.NewStyle().Bold(true).Render(m.tr.T(i18n.ReportExpenses))}
	for _, tx := range v.Transactions {
		line := fmt.Sprintf("  %-12s %s", formatMoney(tx.Amount, tx.Currency), emptyAsDash(tx.Merchant))
		switch {
		case len(tx.Errors) > 0:
			line = styleError().Render(line + "  " + glyphWarning() + " " + latestError(tx.Errors))
		case tx.PendingAction != model.PendingNone:
			line = stylePending().Render(line)
		}
		out = append(out, line)
	}
	return out
}

func (m appModel) viewActions(v report.View, width int) []string {
	var out []string
	for i := range v.Actions {
		a := &v.Actions[i]
		if report.IsDeletedParentAction(a) {
			continue
		}
		head := styleMuted().Render(a.Created.Local().Format("Jan 2 15:04")) + "  " + emptyAsDash(a.ActorEmail)
		var text string
		switch a.ActionName {
		case model.ActionCreated:
			text = styleMuted().Render("created the report")
		case model.ActionIOU:
			if om := a.OriginalMessage; om != nil {
				text = fmt.Sprintf("%s %s", om.Type, formatMoney(om.Amount, om.Currency))
			}
		case model.ActionAddComment:
			text = renderMarkdown(a.Message, width-4)
		default:
			text = strings.ToLower(string(a.ActionName))
		}
		if a.PendingAction != model.PendingNone {
			text = stylePending().Render(text)
		}
		if msg := latestError(a.Errors); msg != "" {
			text += "\n" + styleError().Render(glyphWarning()+" "+msg)
		}
		if v.LastEditableAction != nil && v.LastEditableAction.ReportActionID == a.ReportActionID {
			head += styleMuted().Render("  (editable)")
		}
		out = append(out, head, text)
	}
	return out
}

// formatMoney prints minor units as "12.50 USD".
func formatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
