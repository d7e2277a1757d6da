package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"expense-cli/internal/model"
)

func (db *DB) Policy(ctx context.Context, policyID string) (*model.Policy, error) {
	var p model.Policy
	ok, err := db.Get(ctx, PolicyKey(policyID), &p)
	if err != nil || !ok {
		return nil, err
	}
	if p.ID == "" {
		p.ID = policyID
	}
	return &p, nil
}

func (db *DB) Policies(ctx context.Context) ([]model.Policy, error) {
	raw, err := db.Collection(ctx, PolicyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.Policy, 0, len(raw))
	for k, v := range raw {
		var p model.Policy
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", k, err)
		}
		if p.ID == "" {
			p.ID = MemberID(PolicyPrefix, k)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PolicyTags returns nil (not an empty map) when the policy has never loaded its tags.
func (db *DB) PolicyTags(ctx context.Context, policyID string) (model.PolicyTagLists, error) {
	var lists model.PolicyTagLists
	ok, err := db.Get(ctx, PolicyTagsKey(policyID), &lists)
	if err != nil || !ok {
		return nil, err
	}
	if lists == nil {
		lists = model.PolicyTagLists{}
	}
	return lists, nil
}

func (db *DB) Report(ctx context.Context, reportID string) (*model.Report, error) {
	var r model.Report
	ok, err := db.Get(ctx, ReportKey(reportID), &r)
	if err != nil || !ok {
		return nil, err
	}
	if r.ReportID == "" {
		r.ReportID = reportID
	}
	return &r, nil
}

func (db *DB) Reports(ctx context.Context) ([]model.Report, error) {
	raw, err := db.Collection(ctx, ReportPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.Report, 0, len(raw))
	for k, v := range raw {
		var r model.Report
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", k, err)
		}
		if r.ReportID == "" {
			r.ReportID = MemberID(ReportPrefix, k)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportID < out[j].ReportID })
	return out, nil
}

func (db *DB) ReportMetadata(ctx context.Context, reportID string) (*model.ReportMetadata, error) {
	var md model.ReportMetadata
	ok, err := db.Get(ctx, ReportMetadataKey(reportID), &md)
	if err != nil || !ok {
		return nil, err
	}
	return &md, nil
}

func (db *DB) ReportActions(ctx context.Context, reportID string) (model.ReportActions, error) {
	actions := model.ReportActions{}
	if reportID == "" {
		return actions, nil
	}
	if _, err := db.Get(ctx, ReportActionsKey(reportID), &actions); err != nil {
		return nil, err
	}
	for id, a := range actions {
		if a.ReportActionID == "" {
			a.ReportActionID = id
			actions[id] = a
		}
	}
	return actions, nil
}

// Transactions returns every transaction in the workspace, keyed by transaction id.
func (db *DB) Transactions(ctx context.Context) (model.Transactions, error) {
	raw, err := db.Collection(ctx, TransactionPrefix)
	if err != nil {
		return nil, err
	}
	out := make(model.Transactions, len(raw))
	for k, v := range raw {
		var t model.Transaction
		if err := json.Unmarshal(v, &t); err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", k, err)
		}
		if t.TransactionID == "" {
			t.TransactionID = MemberID(TransactionPrefix, k)
		}
		out[t.TransactionID] = t
	}
	return out, nil
}

func (db *DB) Network(ctx context.Context) (model.Network, error) {
	var n model.Network
	_, err := db.Get(ctx, KeyNetwork, &n)
	return n, err
}

func (db *DB) Session(ctx context.Context) (model.Session, error) {
	var s model.Session
	_, err := db.Get(ctx, KeySession, &s)
	return s, err
}

func (db *DB) IsLoadingApp(ctx context.Context) (bool, error) {
	var v bool
	_, err := db.Get(ctx, KeyIsLoadingApp, &v)
	return v, err
}

func (db *DB) SelectionMode(ctx context.Context) (model.SelectionMode, error) {
	var v model.SelectionMode
	_, err := db.Get(ctx, KeySelectionMode, &v)
	return v, err
}
