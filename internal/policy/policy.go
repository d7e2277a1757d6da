// Package policy holds read-only helpers over workspace (policy) records and their tag lists.
package policy

import (
	"sort"
	"strings"

	"expense-cli/internal/model"
)

// OwnerEmailFakeID is the placeholder id used by personal expenses that have no workspace.
const OwnerEmailFakeID = "_FAKE_"

// IDOrDefault maps an empty or placeholder policy id to "-1", a key that never exists.
func IDOrDefault(policyID string) string {
	policyID = strings.TrimSpace(policyID)
	if policyID == "" || policyID == OwnerEmailFakeID {
		return "-1"
	}
	return policyID
}

// SortedTagLists orders tag lists by order weight, then by name.
func SortedTagLists(lists model.PolicyTagLists) []model.PolicyTagList {
	out := make([]model.PolicyTagList, 0, len(lists))
	for name, l := range lists {
		if l.Name == "" {
			l.Name = name
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderWeight != out[j].OrderWeight {
			return out[i].OrderWeight < out[j].OrderWeight
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TagListName returns the name of the tag list at orderWeight, or "".
func TagListName(lists model.PolicyTagLists, orderWeight int) string {
	for _, l := range SortedTagLists(lists) {
		if l.OrderWeight == orderWeight {
			return l.Name
		}
	}
	return ""
}

// TagList returns the tag list at orderWeight.
func TagList(lists model.PolicyTagLists, orderWeight int) (model.PolicyTagList, bool) {
	name := TagListName(lists, orderWeight)
	if name == "" {
		return model.PolicyTagList{}, false
	}
	l := lists[name]
	if l.Name == "" {
		l.Name = name
	}
	return l, true
}

func IsMultiLevelTags(lists model.PolicyTagLists) bool {
	return len(lists) > 1
}

// HasDependentTags reports whether tags in lower levels are filtered by the
// selection in a parent level. Such tag sets cannot be toggled "required" or
// bulk-deleted independently.
func HasDependentTags(p *model.Policy, lists model.PolicyTagLists) bool {
	if p == nil {
		return false
	}
	for _, l := range lists {
		for _, tag := range l.Tags {
			if tag.Rules != nil && strings.TrimSpace(tag.Rules.ParentTagsFilter) != "" {
				return true
			}
		}
	}
	return false
}

func HasAccountingConnections(p *model.Policy) bool {
	return p != nil && len(p.Connections) > 0
}

// CleanedTagName unescapes the ":" separators stored as `\:` in tag names.
func CleanedTagName(name string) string {
	return strings.ReplaceAll(name, `\:`, ":")
}

// HasEnabledTag reports whether any tag in the list is enabled.
func HasEnabledTag(l model.PolicyTagList) bool {
	for _, t := range l.Tags {
		if t.Enabled {
			return true
		}
	}
	return false
}
