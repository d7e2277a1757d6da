package perm

import (
	"fmt"
	"strings"

	"expense-cli/internal/model"
)

// Variant names one access requirement of a workspace screen.
type Variant string

const (
	VariantAdmin   Variant = "admin"
	VariantPaid    Variant = "paid"
	VariantFeature Variant = "feature"
)

// AccessError means the screen should render as "not found" for this user.
type AccessError struct {
	PolicyID string
	Missing  Variant
}

func (e AccessError) Error() string {
	switch e.Missing {
	case VariantAdmin:
		return fmt.Sprintf("workspace %s: admin access required", e.PolicyID)
	case VariantPaid:
		return fmt.Sprintf("workspace %s: tags are only available on paid workspaces", e.PolicyID)
	case VariantFeature:
		return fmt.Sprintf("workspace %s: tags are not enabled", e.PolicyID)
	}
	return fmt.Sprintf("workspace %s not found", e.PolicyID)
}

// IsPaid reports whether the workspace is on a paid plan.
func IsPaid(p *model.Policy) bool {
	return p != nil && (p.Type == model.PolicyTypeTeam || p.Type == model.PolicyTypeCorporate)
}

// IsAdmin reports whether the current user administers the workspace.
// The workspace owner is always an admin, whatever role the record carries.
func IsAdmin(p *model.Policy, email string) bool {
	if p == nil {
		return false
	}
	if p.Role == model.PolicyRoleAdmin {
		return true
	}
	email = strings.TrimSpace(email)
	return email != "" && strings.EqualFold(email, strings.TrimSpace(p.OwnerEmail))
}

// CanManageTags enforces the tags screen access rules.
//
// Rules (checked in order, first failure wins):
// - the workspace exists and is not pending deletion
// - the user is an admin (or the owner)
// - the workspace is paid (team or corporate)
// - the tags feature is enabled
func CanManageTags(p *model.Policy, email string) error {
	if p == nil {
		return AccessError{}
	}
	if p.PendingAction == model.PendingDelete {
		return AccessError{PolicyID: p.ID}
	}
	if !IsAdmin(p, email) {
		return AccessError{PolicyID: p.ID, Missing: VariantAdmin}
	}
	if !IsPaid(p) {
		return AccessError{PolicyID: p.ID, Missing: VariantPaid}
	}
	if !p.AreTagsEnabled {
		return AccessError{PolicyID: p.ID, Missing: VariantFeature}
	}
	return nil
}
