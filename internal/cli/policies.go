package cli

import (
	"expense-cli/internal/nav"
	"expense-cli/internal/perm"
	"expense-cli/internal/policy"

	"github.com/spf13/cobra"
)

func newPoliciesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policies",
		Aliases: []string{"policy", "workspaces"},
		Short:   "Workspace policies",
	}
	cmd.AddCommand(newPoliciesListCmd(app))
	cmd.AddCommand(newPoliciesShowCmd(app))
	return cmd
}

func newPoliciesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			pols, err := db.Policies(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": pols,
				"meta": map[string]any{"count": len(pols)},
			})
		},
	}
}

func newPoliciesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <policy-id>",
		Short: "Show a policy with its tag lists and what the current account may do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			p, err := db.Policy(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if p == nil {
				return writeErr(cmd, errNotFound("policy", args[0]))
			}
			lists, err := db.PolicyTags(ctx, p.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			email, err := currentEmail(ctx, app, db)
			if err != nil {
				return writeErr(cmd, err)
			}

			tagAccess := "ok"
			if err := perm.CanManageTags(p, email); err != nil {
				tagAccess = err.Error()
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"policy":   p,
					"tagLists": policy.SortedTagLists(lists),
				},
				"meta": map[string]any{
					"isAdmin":          perm.IsAdmin(p, email),
					"isPaid":           perm.IsPaid(p),
					"tagAccess":        tagAccess,
					"multiLevelTags":   policy.IsMultiLevelTags(lists),
					"dependentTags":    policy.HasDependentTags(p, lists),
					"hasConnections":   policy.HasAccountingConnections(p),
					"cannedSearchRoot": nav.SearchRoot(nav.CannedSearchQuery(p.ID)).Path,
				},
			})
		},
	}
}
