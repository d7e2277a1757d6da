package perm

import (
	"errors"
	"testing"

	"expense-cli/internal/model"
)

func TestCanManageTags_Variants(t *testing.T) {
	p := &model.Policy{
		ID:             "pol-1",
		Role:           model.PolicyRoleAdmin,
		Type:           model.PolicyTypeCorporate,
		AreTagsEnabled: true,
	}
	if err := CanManageTags(p, "admin@example.com"); err != nil {
		t.Fatalf("expected access, got %v", err)
	}

	var ae AccessError

	p.AreTagsEnabled = false
	if err := CanManageTags(p, ""); !errors.As(err, &ae) || ae.Missing != VariantFeature {
		t.Fatalf("expected feature variant, got %v", err)
	}

	p.AreTagsEnabled = true
	p.Type = model.PolicyTypePersonal
	if err := CanManageTags(p, ""); !errors.As(err, &ae) || ae.Missing != VariantPaid {
		t.Fatalf("expected paid variant, got %v", err)
	}

	p.Type = model.PolicyTypeTeam
	p.Role = model.PolicyRoleUser
	if err := CanManageTags(p, "someone@example.com"); !errors.As(err, &ae) || ae.Missing != VariantAdmin {
		t.Fatalf("expected admin variant, got %v", err)
	}
}

func TestCanManageTags_OwnerIsAdmin(t *testing.T) {
	p := &model.Policy{
		ID:             "pol-1",
		Role:           model.PolicyRoleUser,
		Type:           model.PolicyTypeTeam,
		OwnerEmail:     "Owner@Example.com",
		AreTagsEnabled: true,
	}
	if err := CanManageTags(p, "owner@example.com"); err != nil {
		t.Fatalf("expected owner access, got %v", err)
	}
}

func TestCanManageTags_MissingOrDeletedPolicyIsNotFound(t *testing.T) {
	var ae AccessError
	if err := CanManageTags(nil, ""); !errors.As(err, &ae) || ae.Missing != "" {
		t.Fatalf("expected not-found access error, got %v", err)
	}
	p := &model.Policy{ID: "pol-1", Role: model.PolicyRoleAdmin, Type: model.PolicyTypeTeam, AreTagsEnabled: true, PendingAction: model.PendingDelete}
	if err := CanManageTags(p, ""); !errors.As(err, &ae) || ae.Missing != "" {
		t.Fatalf("expected not-found access error, got %v", err)
	}
}
