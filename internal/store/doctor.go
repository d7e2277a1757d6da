package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"expense-cli/internal/model"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
	DoctorIssueLevelInfo  DoctorIssueLevel = "info"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Key     string           `json:"key,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

var ErrDoctorIssuesFound = errors.New("doctor: issues found")

// Doctor checks the workspace records for things the screens cannot show
// properly: values that no longer decode, records whose owner is gone, and
// requests still waiting in the outbox.
func Doctor(ctx context.Context, db *DB) (DoctorReport, error) {
	var issues []DoctorIssue

	policies, err := rawMembers(ctx, db, PolicyPrefix, &issues, func(b []byte) error {
		var p model.Policy
		return json.Unmarshal(b, &p)
	})
	if err != nil {
		return DoctorReport{}, err
	}
	reports, err := rawMembers(ctx, db, ReportPrefix, &issues, func(b []byte) error {
		var r model.Report
		return json.Unmarshal(b, &r)
	})
	if err != nil {
		return DoctorReport{}, err
	}

	tagLists, err := rawMembers(ctx, db, PolicyTagsPrefix, &issues, func(b []byte) error {
		var l model.PolicyTagLists
		return json.Unmarshal(b, &l)
	})
	if err != nil {
		return DoctorReport{}, err
	}
	for _, id := range tagLists {
		if !contains(policies, id) {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "orphan_tag_lists",
				Message: fmt.Sprintf("tag lists for missing workspace %s", id),
				Key:     PolicyTagsKey(id),
			})
		}
	}

	actionSets, err := rawMembers(ctx, db, ReportActionsPrefix, &issues, func(b []byte) error {
		var a model.ReportActions
		return json.Unmarshal(b, &a)
	})
	if err != nil {
		return DoctorReport{}, err
	}
	for _, id := range actionSets {
		if !contains(reports, id) {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "orphan_report_actions",
				Message: fmt.Sprintf("actions for missing report %s", id),
				Key:     ReportActionsKey(id),
			})
		}
	}

	raw, err := db.Collection(ctx, TransactionPrefix)
	if err != nil {
		return DoctorReport{}, err
	}
	for _, k := range sortedKeys(raw) {
		var t model.Transaction
		if err := json.Unmarshal(raw[k], &t); err != nil {
			issues = append(issues, undecodable(k, err))
			continue
		}
		if t.ReportID != "" && !contains(reports, t.ReportID) {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "orphan_transaction",
				Message: fmt.Sprintf("transaction of missing report %s", t.ReportID),
				Key:     k,
			})
		}
	}

	pending, err := db.Pending(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	if len(pending) > 0 {
		issues = append(issues, DoctorIssue{
			Level:   DoctorIssueLevelInfo,
			Code:    "outbox_pending",
			Message: fmt.Sprintf("%d request(s) waiting to sync (run: expense sync)", len(pending)),
		})
	}

	return DoctorReport{Issues: issuesOrEmpty(issues)}, nil
}

// rawMembers returns the sorted member ids under prefix. Members that fail
// decode are reported and left out.
func rawMembers(ctx context.Context, db *DB, prefix string, issues *[]DoctorIssue, decode func([]byte) error) ([]string, error) {
	raw, err := db.Collection(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, k := range sortedKeys(raw) {
		if err := decode(raw[k]); err != nil {
			*issues = append(*issues, undecodable(k, err))
			continue
		}
		ids = append(ids, MemberID(prefix, k))
	}
	return ids, nil
}

func undecodable(key string, err error) DoctorIssue {
	return DoctorIssue{
		Level:   DoctorIssueLevelError,
		Code:    "undecodable_value",
		Message: err.Error(),
		Key:     key,
	}
}

func sortedKeys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// contains expects ids sorted.
func contains(ids []string, id string) bool {
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id
}

func issuesOrEmpty(xs []DoctorIssue) []DoctorIssue {
	if xs == nil {
		return []DoctorIssue{}
	}
	return xs
}
