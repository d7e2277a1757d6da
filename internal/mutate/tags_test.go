package mutate

import (
	"context"
	"errors"
	"testing"
	"time"

	"expense-cli/internal/model"
	"expense-cli/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func fixedClock(t *testing.T) {
	t.Helper()
	prevNow, prevID := nowFunc, newID
	n := 0
	nowFunc = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	newID = func() string {
		n++
		return "id-" + string(rune('a'+n-1))
	}
	t.Cleanup(func() { nowFunc, newID = prevNow, prevID })
}

func seedTags(t *testing.T, db *store.DB, required bool) model.PolicyTagLists {
	t.Helper()
	lists := model.PolicyTagLists{
		"Department": {
			Name:     "Department",
			Required: required,
			Tags: map[string]model.PolicyTag{
				"Audit": {Name: "Audit", Enabled: true},
				"Sales": {Name: "Sales", Enabled: false},
			},
		},
	}
	if err := db.Set(context.Background(), store.PolicyTagsKey("pol-1"), lists); err != nil {
		t.Fatalf("Set: %v", err)
	}
	return lists
}

func loadTags(t *testing.T, db *store.DB) model.PolicyTagLists {
	t.Helper()
	got, err := db.PolicyTags(context.Background(), "pol-1")
	if err != nil {
		t.Fatalf("PolicyTags: %v", err)
	}
	return got
}

func TestSetTagsEnabled_OptimisticThenSuccess(t *testing.T) {
	fixedClock(t)
	ctx := context.Background()
	db := openTestDB(t)
	lists := seedTags(t, db, false)

	res, err := SetTagsEnabled("pol-1", lists, map[string]bool{"Sales": true}, 0)
	if err != nil {
		t.Fatalf("SetTagsEnabled: %v", err)
	}
	if err := Apply(ctx, db, res); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	sales := loadTags(t, db)["Department"].Tags["Sales"]
	if !sales.Enabled || sales.PendingAction != model.PendingUpdate || sales.PendingFields["enabled"] != model.PendingUpdate {
		t.Fatalf("unexpected optimistic Sales: %#v", sales)
	}

	pending, err := db.Pending(ctx)
	if err != nil || len(pending) != 1 || pending[0].Command != CommandSetTagsEnabled {
		t.Fatalf("expected one queued request, got %#v (err=%v)", pending, err)
	}

	if err := db.Apply(ctx, pending[0].Success); err != nil {
		t.Fatalf("apply success: %v", err)
	}
	sales = loadTags(t, db)["Department"].Tags["Sales"]
	if !sales.Enabled || sales.PendingAction != "" || len(sales.PendingFields) != 0 {
		t.Fatalf("unexpected Sales after success: %#v", sales)
	}
}

func TestSetTagsEnabled_FailureRestores(t *testing.T) {
	fixedClock(t)
	ctx := context.Background()
	db := openTestDB(t)
	lists := seedTags(t, db, false)

	res, err := SetTagsEnabled("pol-1", lists, map[string]bool{"Audit": false}, 0)
	if err != nil {
		t.Fatalf("SetTagsEnabled: %v", err)
	}
	if err := Apply(ctx, db, res); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := db.Apply(ctx, res.Request.Failure); err != nil {
		t.Fatalf("apply failure: %v", err)
	}
	audit := loadTags(t, db)["Department"].Tags["Audit"]
	if !audit.Enabled || audit.PendingAction != "" || len(audit.Errors) != 1 {
		t.Fatalf("unexpected Audit after failure: %#v", audit)
	}
}

func TestSetTagsEnabled_ClearsRequiredWhenNothingLeft(t *testing.T) {
	fixedClock(t)
	ctx := context.Background()
	db := openTestDB(t)
	lists := seedTags(t, db, true)

	res, err := SetTagsEnabled("pol-1", lists, map[string]bool{"Audit": false}, 0)
	if err != nil {
		t.Fatalf("SetTagsEnabled: %v", err)
	}
	if err := Apply(ctx, db, res); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	l := loadTags(t, db)["Department"]
	if l.Required || l.PendingFields["required"] != model.PendingUpdate {
		t.Fatalf("expected required cleared optimistically: %#v", l)
	}
}

func TestSetTagsEnabled_Validation(t *testing.T) {
	lists := model.PolicyTagLists{"D": {Name: "D", Tags: map[string]model.PolicyTag{
		"Gone": {Name: "Gone", PendingAction: model.PendingDelete},
	}}}
	if _, err := SetTagsEnabled("pol-1", lists, nil, 0); !errors.Is(err, ErrNoTags) {
		t.Fatalf("expected ErrNoTags, got %v", err)
	}
	var nf NotFoundError
	if _, err := SetTagsEnabled("pol-1", lists, map[string]bool{"Nope": true}, 0); !errors.As(err, &nf) || nf.Kind != "tag" {
		t.Fatalf("expected tag NotFoundError, got %v", err)
	}
	if _, err := SetTagsEnabled("pol-1", lists, map[string]bool{"Gone": true}, 0); !errors.Is(err, ErrPendingDelete) {
		t.Fatalf("expected ErrPendingDelete, got %v", err)
	}
	if _, err := SetTagsEnabled("pol-1", lists, map[string]bool{"Gone": true}, 3); !errors.As(err, &nf) || nf.Kind != "tag list" {
		t.Fatalf("expected tag list NotFoundError, got %v", err)
	}
	if _, err := SetTagsRequired("pol-1", nil, true, 0); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for missing lists, got %v", err)
	}
}

func TestSetTagsRequired_FailureSetsErrorField(t *testing.T) {
	fixedClock(t)
	ctx := context.Background()
	db := openTestDB(t)
	lists := seedTags(t, db, false)

	res, err := SetTagsRequired("pol-1", lists, true, 0)
	if err != nil {
		t.Fatalf("SetTagsRequired: %v", err)
	}
	if err := Apply(ctx, db, res); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !loadTags(t, db)["Department"].Required {
		t.Fatalf("expected required optimistically")
	}
	if err := db.Apply(ctx, res.Request.Failure); err != nil {
		t.Fatalf("apply failure: %v", err)
	}
	l := loadTags(t, db)["Department"]
	if l.Required || len(l.ErrorFields["required"]) != 1 {
		t.Fatalf("unexpected list after failure: %#v", l)
	}

	clear, err := ClearTagListErrorField("pol-1", lists, 0, "required")
	if err != nil {
		t.Fatalf("ClearTagListErrorField: %v", err)
	}
	if err := Apply(ctx, db, clear); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if l := loadTags(t, db)["Department"]; len(l.ErrorFields["required"]) != 0 {
		t.Fatalf("expected required error cleared: %#v", l.ErrorFields)
	}
}

func TestDeleteTags_SuccessRemoves(t *testing.T) {
	fixedClock(t)
	ctx := context.Background()
	db := openTestDB(t)
	lists := seedTags(t, db, false)

	res, err := DeleteTags("pol-1", lists, []string{"Sales"})
	if err != nil {
		t.Fatalf("DeleteTags: %v", err)
	}
	if err := Apply(ctx, db, res); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := loadTags(t, db)["Department"].Tags["Sales"].PendingAction; got != model.PendingDelete {
		t.Fatalf("expected pending delete, got %q", got)
	}
	if err := db.Apply(ctx, res.Request.Success); err != nil {
		t.Fatalf("apply success: %v", err)
	}
	tags := loadTags(t, db)["Department"].Tags
	if _, ok := tags["Sales"]; ok {
		t.Fatalf("expected Sales removed")
	}
	if _, ok := tags["Audit"]; !ok {
		t.Fatalf("expected Audit kept")
	}
}

func TestClearTagErrors(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	lists := model.PolicyTagLists{"D": {Name: "D", Tags: map[string]model.PolicyTag{
		"New": {Name: "New", PendingAction: model.PendingAdd, Errors: model.Errors{"1": "failed"}},
		"Old": {Name: "Old", Enabled: true, PendingAction: model.PendingUpdate, Errors: model.Errors{"1": "failed"}},
	}}}
	if err := db.Set(ctx, store.PolicyTagsKey("pol-1"), lists); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for _, name := range []string{"New", "Old"} {
		res, err := ClearTagErrors("pol-1", lists, name, 0)
		if err != nil {
			t.Fatalf("ClearTagErrors(%s): %v", name, err)
		}
		if res.Request != nil {
			t.Fatalf("expected a local-only mutation")
		}
		if err := Apply(ctx, db, res); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	tags := loadTags(t, db)["D"].Tags
	if _, ok := tags["New"]; ok {
		t.Fatalf("expected failed add removed")
	}
	if old := tags["Old"]; len(old.Errors) != 0 || old.PendingAction != "" || !old.Enabled {
		t.Fatalf("unexpected Old: %#v", old)
	}
}

func TestOpenTagsPage_IsRead(t *testing.T) {
	res := OpenTagsPage("pol-1")
	if res.Request == nil || !res.Request.Read || res.Request.Command != CommandOpenTagsPage {
		t.Fatalf("unexpected request: %#v", res.Request)
	}
	if len(res.Optimistic) != 0 {
		t.Fatalf("expected no optimistic data")
	}
}
