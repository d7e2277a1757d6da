package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-cli/internal/logging"
	"expense-cli/internal/model"
	"expense-cli/internal/nav"
	"expense-cli/internal/store"
)

var t0 = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func iou(id, txID string, typ model.IOUType, at time.Duration) model.ReportAction {
	return model.ReportAction{
		ReportActionID:  id,
		ActionName:      model.ActionIOU,
		Created:         t0.Add(at),
		OriginalMessage: &model.OriginalMessage{IOUTransactionID: txID, Type: typ},
		ChildReportID:   "thread-" + txID,
	}
}

func fixture() Input {
	deleted := iou("a3", "t3", model.IOUCreate, 3*time.Minute)
	deleted.IsDeletedParentAction = true
	return Input{
		Report: &model.Report{ReportID: "r1", PolicyID: "p1", ParentReportID: "chat", ParentReportActionID: "pa"},
		Actions: model.ReportActions{
			"a0": {ReportActionID: "a0", ActionName: model.ActionCreated, Created: t0},
			"a1": iou("a1", "t1", model.IOUCreate, time.Minute),
			"a2": iou("a2", "t2", model.IOUTrack, 2*time.Minute),
			"a3": deleted,
			"c1": {ReportActionID: "c1", ActionName: model.ActionAddComment, ActorEmail: "me@example.com", Message: "hi", Created: t0.Add(4 * time.Minute)},
		},
		ParentActions: model.ReportActions{
			"pa": {ActionName: model.ActionAddComment, ActorEmail: "me@example.com", Message: "parent"},
		},
		Transactions: model.Transactions{
			"t1": {TransactionID: "t1", ReportID: "r1", Created: t0.Add(time.Minute)},
			"t2": {TransactionID: "t2", ReportID: "r1", Created: t0.Add(2 * time.Minute)},
			"t3": {TransactionID: "t3", ReportID: "r1", Created: t0.Add(3 * time.Minute)},
			"t9": {TransactionID: "t9", ReportID: "other"},
		},
		Email:      "me@example.com",
		ShowFooter: true,
	}
}

func TestSelectTransactions(t *testing.T) {
	in := fixture()
	actions := SortedActions(in.Actions)
	got := SelectTransactions(in.Transactions, "r1", actions)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TransactionID)
	assert.Equal(t, "t2", got[1].TransactionID)
	assert.Empty(t, SelectTransactions(in.Transactions, "", actions))
}

func TestLastEditableAction(t *testing.T) {
	in := fixture()
	actions := SortedActions(in.Actions)
	parent := ParentReportAction(in.ParentActions, "pa")
	require.NotNil(t, parent)
	assert.Equal(t, "pa", parent.ReportActionID)

	got := LastEditableAction(actions, parent, in.Email)
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ReportActionID)

	got = LastEditableAction(actions, parent, "someone@else.com")
	assert.Nil(t, got)

	withoutComment := SortedActions(model.ReportActions{"a1": iou("a1", "t1", model.IOUCreate, 0)})
	got = LastEditableAction(withoutComment, parent, in.Email)
	require.NotNil(t, got)
	assert.Equal(t, "pa", got.ReportActionID)
}

func TestOneTransactionThreadReportID(t *testing.T) {
	one := SortedActions(model.ReportActions{"a1": iou("a1", "t1", model.IOUCreate, 0)})
	assert.Equal(t, "thread-t1", OneTransactionThreadReportID("r1", one, false))
	assert.Equal(t, "", OneTransactionThreadReportID("", one, false))

	two := SortedActions(fixture().Actions)
	assert.Equal(t, "", OneTransactionThreadReportID("r1", two, false))

	pending := iou("a2", "t2", model.IOUCreate, time.Minute)
	pending.PendingAction = model.PendingDelete
	mixed := SortedActions(model.ReportActions{"a1": iou("a1", "t1", model.IOUCreate, 0), "a2": pending})
	assert.Equal(t, "thread-t1", OneTransactionThreadReportID("r1", mixed, false))
	assert.Equal(t, "", OneTransactionThreadReportID("r1", mixed, true))
}

func TestBuild_Layouts(t *testing.T) {
	in := fixture()
	v := Build(in)
	assert.Equal(t, LayoutFull, v.Layout)
	assert.False(t, v.SingleTransaction)
	assert.True(t, v.ShowFooter)
	assert.Equal(t, "c1", v.Actions[0].ReportActionID)

	loading := fixture()
	loading.Actions = nil
	loading.Metadata = &model.ReportMetadata{IsLoadingInitialReportActions: true}
	assert.Equal(t, LayoutInitialSkeleton, Build(loading).Layout)

	loading.IsOffline = true
	assert.Equal(t, LayoutActionsSkeleton, Build(loading).Layout)

	missing := fixture()
	missing.Report = nil
	assert.Equal(t, LayoutEmpty, Build(missing).Layout)

	booting := fixture()
	booting.IsLoadingApp = true
	booting.ShowFooter = false
	v = Build(booting)
	assert.Equal(t, LayoutLoadingApp, v.Layout)
	assert.False(t, v.ShowFooter)

	single := fixture()
	delete(single.Transactions, "t2")
	assert.True(t, Build(single).SingleTransaction)
}

func TestOfflineFeedback(t *testing.T) {
	r := &model.Report{
		PendingFields: map[string]model.PendingAction{"createReport": model.PendingAdd},
		ErrorFields:   map[string]model.Errors{"createReport": {"1": "failed"}},
	}
	pending, errs := OfflineFeedback(r)
	assert.Equal(t, model.PendingAdd, pending)
	assert.Equal(t, model.Errors{"1": "failed"}, errs)

	pending, errs = OfflineFeedback(nil)
	assert.Empty(t, pending)
	assert.Nil(t, errs)
}

func TestGoBack(t *testing.T) {
	log := logging.Discard()

	s := nav.NewStack(nav.TagsRoute("p1"), nav.ReportRoute("r1"))
	assert.True(t, GoBack(s, "workspaces/p1/tags", "p1", log))
	assert.Equal(t, 1, s.Len())

	s = nav.NewStack(nav.ReportRoute("r1"))
	assert.False(t, GoBack(s, "", "p1", log), "outside the search navigator")

	s = nav.NewStack(nav.SearchRoot("type:expense"), nav.SearchReportRoute("r1"))
	assert.True(t, GoBack(s, "", "p1", log))
	top, _ := s.Top()
	assert.Equal(t, nav.SearchRoot("type:expense"), top)

	s = nav.NewStack(nav.SearchReportRoute("r1"))
	assert.True(t, GoBack(s, "", "p1", log))
	top, _ = s.Top()
	assert.Equal(t, nav.SearchRoot("type:expense policyID:p1"), top)
}

func TestDismissCreationError(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Apply(ctx, []store.Update{
		store.SetUpdate(store.ReportKey("r1"), model.Report{ReportID: "r1", ErrorFields: map[string]model.Errors{"createReport": {"1": "x"}}}),
		store.SetUpdate(store.TransactionKey("t1"), model.Transaction{TransactionID: "t1", ReportID: "r1"}),
	}))

	s := nav.NewStack(nav.SearchReportRoute("r1"))
	require.NoError(t, DismissCreationError(ctx, db, s, "r1", "p1", logging.Discard()))

	in, err := Load(ctx, db, "r1", true)
	require.NoError(t, err)
	assert.Nil(t, in.Report)
	assert.Empty(t, in.Transactions)
	top, _ := s.Top()
	assert.Equal(t, nav.NavigatorSearch, top.Navigator)
}
