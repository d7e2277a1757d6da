package tags

import (
	"expense-cli/internal/model"
	"expense-cli/internal/policy"
)

// RequiredToggle is the "Required" switch row above the list.
type RequiredToggle struct {
	Visible  bool                `json:"visible"`
	Active   bool                `json:"active"`
	Disabled bool                `json:"disabled"`
	Pending  model.PendingAction `json:"pending,omitempty"`
	Errors   model.Errors        `json:"errors,omitempty"`
}

// Required derives the switch row. It is hidden for dependent tag sets and
// cannot be turned on while no tag is enabled.
func Required(p *model.Policy, lists model.PolicyTagLists, list model.PolicyTagList) RequiredToggle {
	return RequiredToggle{
		Visible:  !policy.HasDependentTags(p, lists),
		Active:   list.Required,
		Disabled: !list.Required && !policy.HasEnabledTag(list),
		Pending:  list.PendingFields["required"],
		Errors:   list.ErrorFields["required"],
	}
}

// ShouldClearRequired reports a list that is required but has nothing left to
// pick; callers turn "required" off so expenses stay submittable.
func ShouldClearRequired(list model.PolicyTagList) bool {
	return list.Required && !policy.HasEnabledTag(list)
}
