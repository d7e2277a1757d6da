package cli

import (
	"strings"
	"time"

	"expense-cli/internal/model"
	"expense-cli/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	var policyID, reportID string
	var multiLevel bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a demo workspace policy, tag list and expense report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			email, err := currentEmail(ctx, app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			if email == "" {
				return writeErr(cmd, errNoSession)
			}
			if policyID = strings.TrimSpace(policyID); policyID == "" {
				policyID = shortID("pol")
			}
			if reportID = strings.TrimSpace(reportID); reportID == "" {
				reportID = shortID("r")
			}

			updates := seedUpdates(policyID, reportID, email, multiLevel, time.Now().UTC())
			if err := db.Apply(ctx, updates); err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("seeded workspace", "policy", policyID, "report", reportID)

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"policyId": policyID,
					"reportId": reportID,
				},
				"meta": map[string]any{"keys": len(updates)},
			})
		},
	}

	cmd.Flags().StringVar(&policyID, "policy-id", "", "Policy id (default: generated)")
	cmd.Flags().StringVar(&reportID, "report-id", "", "Report id (default: generated)")
	cmd.Flags().BoolVar(&multiLevel, "multi-level", false, "Seed a second, dependent tag list")
	return cmd
}

func shortID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func seedUpdates(policyID, reportID, email string, multiLevel bool, now time.Time) []store.Update {
	pol := model.Policy{
		ID:             policyID,
		Name:           "Demo workspace",
		Role:           model.PolicyRoleAdmin,
		Type:           model.PolicyTypeTeam,
		OwnerEmail:     email,
		AreTagsEnabled: true,
	}

	department := model.PolicyTagList{
		Name: "Department",
		Tags: map[string]model.PolicyTag{},
	}
	for _, t := range []struct {
		name    string
		enabled bool
		gl      string
	}{
		{"Audit", true, "100"},
		{"Engineering", true, "200"},
		{"Sales", false, "300"},
		{`Travel\: Air`, true, ""},
		{"Item 2", true, ""},
		{"Item 10", true, ""},
	} {
		department.Tags[t.name] = model.PolicyTag{Name: t.name, Enabled: t.enabled, GLCode: t.gl}
	}
	lists := model.PolicyTagLists{department.Name: department}
	if multiLevel {
		lists["Team"] = model.PolicyTagList{
			Name:        "Team",
			OrderWeight: 1,
			Tags: map[string]model.PolicyTag{
				"Platform": {Name: "Platform", Enabled: true, Rules: &model.TagRules{ParentTagsFilter: "Engineering"}},
				"Field":    {Name: "Field", Enabled: true, Rules: &model.TagRules{ParentTagsFilter: "Sales"}},
			},
		}
	}

	tx1 := model.Transaction{
		TransactionID: uuid.NewString(),
		ReportID:      reportID,
		Amount:        4200,
		Currency:      "USD",
		Merchant:      "Blue Bottle",
		Created:       now.Add(-3 * time.Hour),
	}
	tx2 := model.Transaction{
		TransactionID: uuid.NewString(),
		ReportID:      reportID,
		Amount:        12999,
		Currency:      "USD",
		Merchant:      "Delta",
		Created:       now.Add(-2 * time.Hour),
	}
	actions := model.ReportActions{}
	add := func(a model.ReportAction) {
		a.ReportActionID = uuid.NewString()
		actions[a.ReportActionID] = a
	}
	add(model.ReportAction{ActionName: model.ActionCreated, ActorEmail: email, Created: now.Add(-4 * time.Hour)})
	for _, tx := range []model.Transaction{tx1, tx2} {
		add(model.ReportAction{
			ActionName: model.ActionIOU,
			ActorEmail: email,
			Created:    tx.Created,
			OriginalMessage: &model.OriginalMessage{
				IOUTransactionID: tx.TransactionID,
				Type:             model.IOUCreate,
				Amount:           tx.Amount,
				Currency:         tx.Currency,
			},
		})
	}
	add(model.ReportAction{
		ActionName: model.ActionAddComment,
		ActorEmail: email,
		Created:    now.Add(-time.Hour),
		Message:    "**Receipts** attached for the offsite. Flights are in `Travel: Air`.",
	})

	rep := model.Report{
		ReportID:   reportID,
		PolicyID:   policyID,
		Type:       model.ReportTypeExpense,
		Name:       "Team offsite",
		OwnerEmail: email,
		Total:      tx1.Amount + tx2.Amount,
		Currency:   "USD",
	}

	return []store.Update{
		store.SetUpdate(store.PolicyKey(policyID), pol),
		store.SetUpdate(store.PolicyTagsKey(policyID), lists),
		store.SetUpdate(store.ReportKey(reportID), rep),
		store.SetUpdate(store.ReportMetadataKey(reportID), model.ReportMetadata{}),
		store.SetUpdate(store.ReportActionsKey(reportID), actions),
		store.SetUpdate(store.TransactionKey(tx1.TransactionID), tx1),
		store.SetUpdate(store.TransactionKey(tx2.TransactionID), tx2),
	}
}
