package tags

import (
	"expense-cli/internal/i18n"
	"expense-cli/internal/model"
	"expense-cli/internal/policy"
)

type BulkKind string

const (
	BulkDelete  BulkKind = "delete"
	BulkDisable BulkKind = "disable"
	BulkEnable  BulkKind = "enable"
)

// BulkAction is one entry of the "N selected" dropdown.
type BulkAction struct {
	Kind  BulkKind `json:"kind"`
	Count int      `json:"count"`
	// Tags maps tag name to the enabled value the action writes. Empty for delete.
	Tags map[string]bool `json:"tags,omitempty"`
	// Names are the affected tags, sorted.
	Names    []string `json:"names"`
	LabelKey string   `json:"labelKey"`
}

// BulkContext carries the workspace facts that restrict bulk actions.
type BulkContext struct {
	MultiLevel     bool
	HasConnections bool
}

// NewBulkContext derives the context from the stored workspace and tag lists.
func NewBulkContext(p *model.Policy, lists model.PolicyTagLists) BulkContext {
	return BulkContext{
		MultiLevel:     policy.IsMultiLevelTags(lists),
		HasConnections: policy.HasAccountingConnections(p),
	}
}

// BulkActions partitions selected into currently enabled and currently disabled
// tags and returns, in order: delete (only without accounting connections and
// multi-level tags), disable-selected, enable-selected. Empty subsets produce no
// action. Names missing from byName count as disabled.
func BulkActions(selected []string, byName map[string]Item, ctx BulkContext) []BulkAction {
	if len(selected) == 0 {
		return nil
	}
	var out []BulkAction

	if !ctx.HasConnections && !ctx.MultiLevel {
		out = append(out, BulkAction{
			Kind:     BulkDelete,
			Count:    len(selected),
			Names:    append([]string(nil), selected...),
			LabelKey: pluralKey(len(selected), i18n.TagsDeleteTag, i18n.TagsDeleteTags),
		})
	}

	toDisable := map[string]bool{}
	toEnable := map[string]bool{}
	var disableNames, enableNames []string
	for _, name := range selected {
		if byName[name].Enabled {
			toDisable[name] = false
			disableNames = append(disableNames, name)
		} else {
			toEnable[name] = true
			enableNames = append(enableNames, name)
		}
	}

	if len(toDisable) > 0 {
		out = append(out, BulkAction{
			Kind:     BulkDisable,
			Count:    len(toDisable),
			Tags:     toDisable,
			Names:    disableNames,
			LabelKey: pluralKey(len(toDisable), i18n.TagsDisableTag, i18n.TagsDisableTags),
		})
	}
	if len(toEnable) > 0 {
		out = append(out, BulkAction{
			Kind:     BulkEnable,
			Count:    len(toEnable),
			Tags:     toEnable,
			Names:    enableNames,
			LabelKey: pluralKey(len(toEnable), i18n.TagsEnableTag, i18n.TagsEnableTags),
		})
	}
	return out
}

// FindBulkAction returns the action of kind, if derived.
func FindBulkAction(actions []BulkAction, kind BulkKind) (BulkAction, bool) {
	for _, a := range actions {
		if a.Kind == kind {
			return a, true
		}
	}
	return BulkAction{}, false
}

// DeleteConfirmKeys returns the title and prompt keys for the delete confirmation.
func DeleteConfirmKeys(count int) (title string, prompt string) {
	return pluralKey(count, i18n.TagsDeleteTag, i18n.TagsDeleteTags),
		pluralKey(count, i18n.TagsDeleteTagConfirmation, i18n.TagsDeleteTagsConfirmation)
}

func pluralKey(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Header describes the bulk-action button in the screen header.
type Header struct {
	Visible       bool `json:"visible"`
	Disabled      bool `json:"disabled"`
	SelectedCount int  `json:"selectedCount"`
}

// HeaderButton: wide layouts show the button once something is selected; narrow
// layouts show it for as long as selection mode is on.
func HeaderButton(selectedCount int, narrow bool, selectionMode bool) Header {
	if (!narrow && selectedCount == 0) || (narrow && !selectionMode) {
		return Header{SelectedCount: selectedCount}
	}
	return Header{Visible: true, Disabled: selectedCount == 0, SelectedCount: selectedCount}
}
