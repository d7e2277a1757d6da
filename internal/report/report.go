// Package report derives the money request report screen from store records:
// which transactions belong to it, which skeleton or layout to show, and where
// the back button goes.
package report

import (
	"sort"
	"strings"

	"expense-cli/internal/model"
)

// SortedActions orders actions newest first, the order the screen lists them in.
func SortedActions(actions model.ReportActions) []model.ReportAction {
	out := make([]model.ReportAction, 0, len(actions))
	for id, a := range actions {
		if a.ReportActionID == "" {
			a.ReportActionID = id
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ReportActionID > out[j].ReportActionID
	})
	return out
}

func IsMoneyRequestAction(a *model.ReportAction) bool {
	return a != nil && a.ActionName == model.ActionIOU
}

func IsDeletedParentAction(a *model.ReportAction) bool {
	return a != nil && a.IsDeletedParentAction
}

// IOUActionForTransaction finds the money request action that created or
// tracked transactionID.
func IOUActionForTransaction(actions []model.ReportAction, transactionID string) *model.ReportAction {
	for i := range actions {
		a := &actions[i]
		if !IsMoneyRequestAction(a) || a.OriginalMessage == nil {
			continue
		}
		if a.OriginalMessage.Type == model.IOUDelete {
			continue
		}
		if a.OriginalMessage.IOUTransactionID == transactionID {
			return a
		}
	}
	return nil
}

// SelectTransactions returns the transactions of reportID whose money request
// action is not a deleted parent action, oldest first.
func SelectTransactions(all model.Transactions, reportID string, actions []model.ReportAction) []model.Transaction {
	if strings.TrimSpace(reportID) == "" {
		return nil
	}
	var out []model.Transaction
	for id, t := range all {
		if t.TransactionID == "" {
			t.TransactionID = id
		}
		if t.ReportID != reportID {
			continue
		}
		if IsDeletedParentAction(IOUActionForTransaction(actions, t.TransactionID)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out
}

// ParentReportAction looks up the action a thread report hangs off.
func ParentReportAction(parentActions model.ReportActions, parentReportActionID string) *model.ReportAction {
	if parentActions == nil || parentReportActionID == "" {
		return nil
	}
	a, ok := parentActions[parentReportActionID]
	if !ok {
		return nil
	}
	if a.ReportActionID == "" {
		a.ReportActionID = parentReportActionID
	}
	return &a
}

// CanEditAction: only comments written by email that are not being deleted.
// An empty email skips the author check.
func CanEditAction(a *model.ReportAction, email string) bool {
	if a == nil || a.ActionName != model.ActionAddComment {
		return false
	}
	if a.PendingAction == model.PendingDelete || a.IsDeletedParentAction || a.Message == "" {
		return false
	}
	return email == "" || strings.EqualFold(a.ActorEmail, email)
}

// LastEditableAction is the newest action the composer may edit, looking at
// the report's actions first and the parent action last.
func LastEditableAction(actions []model.ReportAction, parent *model.ReportAction, email string) *model.ReportAction {
	for i := range actions {
		a := &actions[i]
		if CanEditAction(a, email) && !IsMoneyRequestAction(a) {
			return a
		}
	}
	if CanEditAction(parent, email) && !IsMoneyRequestAction(parent) {
		return parent
	}
	return nil
}

// OneTransactionThreadReportID returns the child report of the only money
// request on the report, or "" when there are zero or several. Offline, pending
// deletions still count so the view does not jump before the remote answers.
func OneTransactionThreadReportID(reportID string, actions []model.ReportAction, offline bool) string {
	if reportID == "" {
		return ""
	}
	var found []*model.ReportAction
	for i := range actions {
		a := &actions[i]
		if !IsMoneyRequestAction(a) || a.OriginalMessage == nil {
			continue
		}
		if t := a.OriginalMessage.Type; t != model.IOUCreate && t != model.IOUTrack {
			continue
		}
		if a.IsDeletedParentAction {
			continue
		}
		if !offline && a.PendingAction == model.PendingDelete {
			continue
		}
		found = append(found, a)
	}
	if len(found) != 1 {
		return ""
	}
	return found[0].ChildReportID
}

// Creation fields whose errors mean the report never made it to the remote.
var creationFields = []string{"createReport", "createChat", "addWorkspaceRoom"}

// OfflineFeedback returns the pending action and errors of the report's creation.
func OfflineFeedback(r *model.Report) (model.PendingAction, model.Errors) {
	if r == nil {
		return "", nil
	}
	var pending model.PendingAction
	var errs model.Errors
	for _, f := range creationFields {
		if pending == "" {
			pending = r.PendingFields[f]
		}
		if len(errs) == 0 {
			errs = r.ErrorFields[f]
		}
	}
	return pending, errs
}
