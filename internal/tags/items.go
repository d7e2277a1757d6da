// Package tags projects a workspace tag list into the rows, selection and bulk
// actions shown on the tags screen. Everything here is a pure function of its
// inputs; callers recompute on every store change instead of caching.
package tags

import (
	"sort"

	"expense-cli/internal/model"
	"expense-cli/internal/policy"
)

// Item is one row of the tags screen.
type Item struct {
	// Value is the raw tag name; it is the key for selection and mutations.
	Value string `json:"value"`
	// Text is the display name.
	Text          string              `json:"text"`
	IsSelected    bool                `json:"isSelected"`
	Enabled       bool                `json:"enabled"`
	PendingAction model.PendingAction `json:"pendingAction,omitempty"`
	Errors        model.Errors        `json:"errors,omitempty"`
	// IsDisabled rows are pending deletion and cannot be selected or toggled.
	IsDisabled bool `json:"isDisabled"`
}

// CompareFunc orders two display names; i18n.Translator.Comparer fits.
type CompareFunc func(a, b string) int

// BuildItems sorts the tags of list by display name using cmp and projects them
// into rows. Ties keep raw-name order, so the result is deterministic.
func BuildItems(list model.PolicyTagList, sel Selection, canSelectMultiple bool, cmp CompareFunc) []Item {
	out := make([]Item, 0, len(list.Tags))
	for key, tag := range list.Tags {
		name := tag.Name
		if name == "" {
			name = key
		}
		out = append(out, Item{
			Value:         name,
			Text:          policy.CleanedTagName(name),
			IsSelected:    sel[name] && canSelectMultiple,
			Enabled:       tag.Enabled,
			PendingAction: tag.PendingAction,
			Errors:        tag.Errors,
			IsDisabled:    tag.PendingAction == model.PendingDelete,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	if cmp != nil {
		sort.SliceStable(out, func(i, j int) bool { return cmp(out[i].Text, out[j].Text) < 0 })
	}
	return out
}

// KeyByName indexes items by raw tag name.
func KeyByName(items []Item) map[string]Item {
	out := make(map[string]Item, len(items))
	for _, it := range items {
		out[it.Value] = it
	}
	return out
}

// CanSelectMultiple: wide layouts always allow multi-select; narrow ones only in selection mode.
func CanSelectMultiple(narrow bool, selectionMode bool) bool {
	if narrow {
		return selectionMode
	}
	return true
}

// IsLoading reports whether the screen should show a spinner instead of rows.
// Offline users see whatever is cached instead of an endless spinner.
func IsLoading(offline bool, lists model.PolicyTagLists) bool {
	return !offline && lists == nil
}
