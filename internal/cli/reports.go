package cli

import (
	"context"
	"strings"

	"expense-cli/internal/nav"
	"expense-cli/internal/report"
	"expense-cli/internal/store"

	"github.com/spf13/cobra"
)

func newReportsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Expense reports",
	}
	cmd.AddCommand(newReportsListCmd(app))
	cmd.AddCommand(newReportsShowCmd(app))
	cmd.AddCommand(newReportsBackCmd(app))
	cmd.AddCommand(newReportsDismissErrorCmd(app))
	return cmd
}

func newReportsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			reps, err := db.Reports(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": reps,
				"meta": map[string]any{"count": len(reps)},
			})
		},
	}
}

func newReportsShowCmd(app *App) *cobra.Command {
	var noFooter bool

	cmd := &cobra.Command{
		Use:   "show <report-id>",
		Short: "Show a report the way the report screen lays it out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			v, err := loadReportView(ctx, app, db, args[0], !noFooter)
			if err != nil {
				return writeErr(cmd, err)
			}
			if v.Report == nil {
				return writeErr(cmd, errNotFound("report", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"data": v,
				"meta": map[string]any{
					"layout":       v.Layout,
					"transactions": len(v.Transactions),
					"actions":      len(v.Actions),
				},
			})
		},
	}
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "Render without the composer footer")
	return cmd
}

func loadReportView(ctx context.Context, app *App, db *store.DB, reportID string, showFooter bool) (report.View, error) {
	in, err := report.Load(ctx, db, strings.TrimSpace(reportID), showFooter)
	if err != nil {
		return report.View{}, err
	}
	if app.Email != "" {
		in.Email = app.Email
	}
	return report.Build(in), nil
}

// navFlags describe the navigation stack a report screen sits on. The CLI has
// no live navigator, so the caller passes the routes below the report.
type navFlags struct {
	stack  []string
	backTo string
	from   string
}

func (f *navFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.stack, "stack", nil, "Routes below the report, bottom first (e.g. search?q=type%3Aexpense)")
	cmd.Flags().StringVar(&f.backTo, "back-to", "", "Explicit back route (wins over the stack)")
	cmd.Flags().StringVar(&f.from, "from", "search", "Navigator the report was opened from (search|report)")
}

func (f *navFlags) build(reportID string) *nav.Stack {
	s := nav.NewStack()
	for _, p := range f.stack {
		if p = strings.TrimSpace(p); p != "" {
			s.Push(nav.ParseRoute(p))
		}
	}
	if f.from == "report" {
		s.Push(nav.ReportRoute(reportID))
	} else {
		s.Push(nav.SearchReportRoute(reportID))
	}
	return s
}

func newReportsBackCmd(app *App) *cobra.Command {
	var nf navFlags

	cmd := &cobra.Command{
		Use:   "back <report-id>",
		Short: "Resolve where the report screen's back button leads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			r, err := db.Report(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			policyID := ""
			if r != nil {
				policyID = r.PolicyID
			}
			stack := nf.build(args[0])
			moved := report.GoBack(stack, nf.backTo, policyID, app.log)
			top, _ := stack.Top()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"moved": moved, "route": top},
				"meta": map[string]any{"stack": stack.Routes()},
			})
		},
	}
	nf.bind(cmd)
	return cmd
}

func newReportsDismissErrorCmd(app *App) *cobra.Command {
	var nf navFlags

	cmd := &cobra.Command{
		Use:   "dismiss-error <report-id>",
		Short: "Dismiss a report creation error: go back and drop the failed report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			r, err := db.Report(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if r == nil {
				return writeErr(cmd, errNotFound("report", args[0]))
			}
			stack := nf.build(r.ReportID)
			if err := report.DismissCreationError(ctx, db, stack, r.ReportID, r.PolicyID, app.log); err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("dismissed report creation error", "report", r.ReportID)
			top, _ := stack.Top()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"removed": r.ReportID, "route": top},
			})
		},
	}
	nf.bind(cmd)
	return cmd
}
