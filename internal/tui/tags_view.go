package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"expense-cli/internal/i18n"
	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/perm"
	"expense-cli/internal/policy"
	"expense-cli/internal/store"
	"expense-cli/internal/tags"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tagsHelp = "space: select   a: all   t: switch   e/d: enable/disable   x: delete   r: required   s: select mode   [/]: list   ctrl+e: dismiss error   c: copy   esc: back"

// tagsScreen is the state of the workspace tags screen. Everything shown is
// re-projected from the store on each reload; only sel is owned here.
type tagsScreen struct {
	policyID    string
	orderWeight int
	policy      *model.Policy
	lists       model.PolicyTagLists
	sel         tags.Selection
	view        tags.Screen
	list        list.Model
}

type tagRow struct{ item tags.Item }

func (r tagRow) FilterValue() string { return r.item.Text }

// enterTags opens the tags screen of policyID after the access check.
func (m *appModel) enterTags(policyID string, orderWeight int) error {
	id := policy.IDOrDefault(policyID)
	p, err := m.db.Policy(m.ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return mutate.NotFoundError{Kind: "policy", ID: id}
	}
	if err := perm.CanManageTags(p, m.email); err != nil {
		return err
	}
	m.screen = screenTags
	m.tags.policyID = id
	m.tags.orderWeight = orderWeight
	m.tags.sel = tags.Selection{}
	m.tags.list.Select(0)
	m.reloadTags()
	return nil
}

// openTags enters the screen and asks the remote for fresh tag lists.
func (m *appModel) openTags(policyID string) tea.Cmd {
	if err := m.enterTags(policyID, 0); err != nil {
		m.setErr(err)
		return nil
	}
	return m.apply(mutate.OpenTagsPage(m.tags.policyID))
}

// leaveTags clears the selection; it never outlives the screen.
func (m *appModel) leaveTags() {
	m.tags.sel = tags.Selection{}
	m.goHome()
}

func (m *appModel) reloadTags() {
	t := &m.tags
	var err error
	if t.policy, err = m.db.Policy(m.ctx, t.policyID); err != nil {
		m.setErr(err)
		return
	}
	if t.lists, err = m.db.PolicyTags(m.ctx, t.policyID); err != nil {
		m.setErr(err)
		return
	}
	network, err := m.db.Network(m.ctx)
	if err != nil {
		m.setErr(err)
		return
	}
	mode, err := m.db.SelectionMode(m.ctx)
	if err != nil {
		m.setErr(err)
		return
	}
	if l, ok := policy.TagList(t.lists, t.orderWeight); ok && tags.ShouldClearRequired(l) && m.clearRequired() {
		m.reloadTags()
		return
	}

	t.view = tags.BuildScreen(tags.ScreenInput{
		Policy:        t.policy,
		Lists:         t.lists,
		OrderWeight:   t.orderWeight,
		Selection:     t.sel,
		Narrow:        m.narrow(),
		SelectionMode: mode.IsEnabled,
		Offline:       network.IsOffline,
		Compare:       m.tr.Comparer(),
	})
	t.sel = t.view.Selection
	t.list.SetDelegate(tagDelegate{multi: tags.CanSelectMultiple(m.narrow(), mode.IsEnabled)})

	rows := make([]list.Item, 0, len(t.view.Items))
	for _, it := range t.view.Items {
		rows = append(rows, tagRow{item: it})
	}
	idx := t.list.Index()
	t.list.SetItems(rows)
	if idx >= len(rows) {
		idx = len(rows) - 1
	}
	if idx >= 0 {
		t.list.Select(idx)
	}
}

// clearRequired turns "required" off for a list left with nothing to pick.
// The request goes out with the next flush Update starts.
func (m *appModel) clearRequired() bool {
	res, err := mutate.SetTagsRequired(m.tags.policyID, m.tags.lists, false, m.tags.orderWeight)
	if err == nil {
		err = mutate.Apply(m.ctx, m.db, res)
	}
	if err != nil {
		m.setErr(err)
		return false
	}
	m.syncVersion()
	m.flushPending = true
	return true
}

func (m appModel) currentTag() (tags.Item, bool) {
	row, ok := m.tags.list.SelectedItem().(tagRow)
	return row.item, ok
}

func (m appModel) canSelectMultiple() bool {
	mode, err := m.db.SelectionMode(m.ctx)
	if err != nil {
		return !m.narrow()
	}
	return tags.CanSelectMultiple(m.narrow(), mode.IsEnabled)
}

func (m appModel) updateTags(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := &m.tags
	switch msg.String() {
	case "q":
		m.saveState()
		return m, tea.Quit

	case "esc", "backspace":
		m.leaveTags()
		return m, nil

	case " ":
		it, ok := m.currentTag()
		if !ok || it.IsDisabled {
			return m, nil
		}
		if !m.canSelectMultiple() {
			cmd := m.setTagsEnabled(map[string]bool{it.Value: !it.Enabled})
			return m, cmd
		}
		t.sel = t.sel.Toggle(it.Value)
		m.reloadTags()
		return m, nil

	case "a":
		if m.canSelectMultiple() {
			t.sel = t.sel.ToggleAll(t.view.Items)
			m.reloadTags()
		}
		return m, nil

	case "t":
		it, ok := m.currentTag()
		if !ok || it.IsDisabled {
			return m, nil
		}
		cmd := m.setTagsEnabled(map[string]bool{it.Value: !it.Enabled})
		return m, cmd

	case "e":
		if a, ok := tags.FindBulkAction(t.view.BulkActions, tags.BulkEnable); ok {
			cmd := m.runBulk(a)
			return m, cmd
		}
		return m, nil

	case "d":
		if a, ok := tags.FindBulkAction(t.view.BulkActions, tags.BulkDisable); ok {
			cmd := m.runBulk(a)
			return m, cmd
		}
		return m, nil

	case "x":
		if _, ok := tags.FindBulkAction(t.view.BulkActions, tags.BulkDelete); ok {
			m.modal = modalConfirmDelete
			m.modalFocus = confirmFocusCancel
		}
		return m, nil

	case "r":
		req := t.view.Required
		if !req.Visible || (!req.Active && req.Disabled) {
			return m, nil
		}
		res, err := mutate.SetTagsRequired(t.policyID, t.lists, !req.Active, t.orderWeight)
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		cmd := m.apply(res)
		return m, cmd

	case "s":
		mode, err := m.db.SelectionMode(m.ctx)
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		if mode.IsEnabled {
			t.sel = tags.Selection{}
		}
		if err := m.db.Set(m.ctx, store.KeySelectionMode, model.SelectionMode{IsEnabled: !mode.IsEnabled}); err != nil {
			m.setErr(err)
			return m, nil
		}
		m.syncVersion()
		m.reloadTags()
		return m, nil

	case "[", "]":
		ws := orderWeights(t.lists)
		next, ok := stepOrderWeight(ws, t.orderWeight, msg.String() == "]")
		if ok && next != t.orderWeight {
			t.orderWeight = next
			t.sel = tags.Selection{}
			t.list.Select(0)
			m.reloadTags()
		}
		return m, nil

	case "ctrl+e":
		cmd := m.dismissTagErrors()
		return m, cmd

	case "c":
		if it, ok := m.currentTag(); ok {
			m.copy("tag", it.Value)
		}
		return m, nil

	case "g":
		cmd := m.apply(mutate.OpenTagsPage(t.policyID))
		return m, cmd
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return m, cmd
}

func (m *appModel) setTagsEnabled(set map[string]bool) tea.Cmd {
	res, err := mutate.SetTagsEnabled(m.tags.policyID, m.tags.lists, set, m.tags.orderWeight)
	if err != nil {
		m.setErr(err)
		return nil
	}
	return m.apply(res)
}

// runBulk applies an enable or disable action and clears the selection.
func (m *appModel) runBulk(a tags.BulkAction) tea.Cmd {
	m.tags.sel = tags.Selection{}
	return m.setTagsEnabled(a.Tags)
}

// dismissTagErrors clears the most specific error in view: the focused row,
// then the required switch, then the list banner.
func (m *appModel) dismissTagErrors() tea.Cmd {
	t := &m.tags
	var (
		res mutate.Result
		err error
	)
	it, ok := m.currentTag()
	switch {
	case ok && len(it.Errors) > 0:
		res, err = mutate.ClearTagErrors(t.policyID, t.lists, it.Value, t.orderWeight)
	case len(t.view.Required.Errors) > 0:
		res, err = mutate.ClearTagListErrorField(t.policyID, t.lists, t.orderWeight, "required")
	case len(t.view.Errors) > 0:
		res, err = mutate.ClearTagListErrors(t.policyID, t.lists, t.orderWeight)
	default:
		return nil
	}
	if err != nil {
		m.setErr(err)
		return nil
	}
	return m.apply(res)
}

func orderWeights(lists model.PolicyTagLists) []int {
	out := make([]int, 0, len(lists))
	for _, l := range policy.SortedTagLists(lists) {
		out = append(out, l.OrderWeight)
	}
	sort.Ints(out)
	return out
}

func stepOrderWeight(ws []int, cur int, forward bool) (int, bool) {
	if len(ws) == 0 {
		return cur, false
	}
	i := sort.SearchInts(ws, cur)
	found := i < len(ws) && ws[i] == cur
	switch {
	case forward && found && i+1 < len(ws):
		return ws[i+1], true
	case forward && !found && i < len(ws):
		return ws[i], true
	case !forward && i > 0:
		return ws[i-1], true
	}
	return cur, false
}

// Delete confirmation.

func (m appModel) updateDeleteModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.modal = modalNone
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		m.modalFocus = m.modalFocus.next()
		return m, nil
	case "enter":
		m.modal = modalNone
		if m.modalFocus != confirmFocusConfirm {
			return m, nil
		}
		a, ok := tags.FindBulkAction(m.tags.view.BulkActions, tags.BulkDelete)
		if !ok {
			return m, nil
		}
		res, err := mutate.DeleteTags(m.tags.policyID, m.tags.lists, a.Names)
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		m.tags.sel = tags.Selection{}
		cmd := m.apply(res)
		return m, cmd
	}
	return m, nil
}

func (m appModel) viewDeleteModal() string {
	a, _ := tags.FindBulkAction(m.tags.view.BulkActions, tags.BulkDelete)
	titleKey, promptKey := tags.DeleteConfirmKeys(a.Count)
	return renderConfirmModal(m.width, confirmModal{
		title:   m.tr.T(titleKey),
		body:    m.tr.T(promptKey) + "\n\n" + strings.Join(a.Names, ", "),
		confirm: m.tr.T(i18n.CommonDelete),
		cancel:  m.tr.T(i18n.CommonCancel),
		danger:  true,
		focus:   m.modalFocus,
	})
}

// Rendering.

func (m appModel) viewTags() string {
	t := m.tags
	var b strings.Builder

	title := t.view.ListName
	if title == "" {
		title = m.tr.T(i18n.TagsCustomTagName)
	}
	name := t.policyID
	if t.policy != nil {
		name = t.policy.Name
	}
	b.WriteString(styleTitle().Render(name + " · " + title))
	if h := t.view.Header; h.Visible {
		label := m.tr.T(i18n.CommonSelected, h.SelectedCount)
		if h.Disabled {
			b.WriteString("  " + styleMuted().Render("["+label+"]"))
		} else {
			b.WriteString("  " + styleSelected().Render("["+label+" ▾]"))
			var labels []string
			for _, a := range t.view.BulkActions {
				labels = append(labels, bulkKey(a.Kind)+": "+m.tr.T(a.LabelKey))
			}
			b.WriteString("  " + styleMuted().Render(strings.Join(labels, "  ")))
		}
	} else if m.narrow() {
		b.WriteString("  " + styleMuted().Render("s: "+m.tr.T(i18n.CommonSelectMultiple)))
	}
	b.WriteString("\n")

	if msg := latestError(t.view.Errors); msg != "" {
		b.WriteString(styleError().Render(glyphWarning()+" "+msg) + styleMuted().Render("  ctrl+e: "+m.tr.T(i18n.CommonDismiss)) + "\n")
	}

	if req := t.view.Required; req.Visible {
		line := glyphSwitch(req.Active) + " " + m.tr.T(i18n.CommonRequired)
		switch {
		case req.Pending != model.PendingNone:
			line = stylePending().Render(line)
		case req.Disabled:
			line = styleMuted().Render(line)
		}
		b.WriteString(line)
		if msg := latestError(req.Errors); msg != "" {
			b.WriteString("  " + styleError().Render(msg))
		}
		b.WriteString("\n")
	}
	b.WriteString(styleMuted().Render(strings.Repeat(glyphHRule(), max(m.width, 20))) + "\n")

	switch {
	case t.view.Loading:
		b.WriteString(m.spinner.View() + " " + m.tr.T(i18n.CommonLoading))
	case len(t.view.Items) == 0:
		b.WriteString(styleMuted().Render(m.tr.T(i18n.TagsEmpty)))
	default:
		b.WriteString(t.list.View())
	}
	return b.String()
}

func bulkKey(k tags.BulkKind) string {
	switch k {
	case tags.BulkDelete:
		return "x"
	case tags.BulkDisable:
		return "d"
	default:
		return "e"
	}
}

type tagDelegate struct {
	multi bool
}

func (d tagDelegate) Height() int                             { return 1 }
func (d tagDelegate) Spacing() int                            { return 0 }
func (d tagDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d tagDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(tagRow)
	if !ok {
		return
	}
	it := row.item
	width := m.Width()
	if width < 8 {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = glyphCursor() + " "
	}
	check := ""
	if d.multi {
		check = glyphCheckbox(it.IsSelected) + " "
	}
	switchW := lipgloss.Width(glyphSwitch(true))
	text := it.Text
	if msg := latestError(it.Errors); msg != "" {
		text += "  " + glyphWarning() + " " + msg
	}
	left := fitLine(cursor+check+text, max(width-switchW-1, 1))
	line := left + " " + glyphSwitch(it.Enabled)

	style := lipgloss.NewStyle()
	switch {
	case it.IsDisabled:
		style = styleMuted().Strikethrough(true)
	case it.PendingAction != model.PendingNone:
		style = stylePending()
	case len(it.Errors) > 0:
		style = styleError()
	}
	if index == m.Index() {
		style = style.Inherit(styleSelected())
	}
	fmt.Fprint(w, style.Render(line))
}

// latestError returns the newest message; keys are microsecond timestamps.
func latestError(errs model.Errors) string {
	if len(errs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return errs[keys[len(keys)-1]]
}
