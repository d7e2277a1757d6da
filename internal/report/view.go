package report

import (
	"context"
	"log/slog"

	"expense-cli/internal/logging"
	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/nav"
	"expense-cli/internal/store"
)

type Layout string

const (
	// LayoutInitialSkeleton: header and actions skeleton while the first page loads.
	LayoutInitialSkeleton Layout = "initial-skeleton"
	// LayoutActionsSkeleton: static actions skeleton, nothing loaded yet.
	LayoutActionsSkeleton Layout = "actions-skeleton"
	// LayoutEmpty renders nothing.
	LayoutEmpty Layout = "empty"
	// LayoutLoadingApp: skeletons plus the footer while the app boots.
	LayoutLoadingApp Layout = "loading-app"
	LayoutFull       Layout = "full"
)

// Input is everything the screen reads from the store.
type Input struct {
	Report        *model.Report
	Metadata      *model.ReportMetadata
	Actions       model.ReportActions
	ParentActions model.ReportActions
	Transactions  model.Transactions
	IsOffline     bool
	IsLoadingApp  bool
	ShowFooter    bool
	Email         string
}

// View is the screen as it should render.
type View struct {
	Layout                    Layout               `json:"layout"`
	Report                    *model.Report        `json:"report,omitempty"`
	Actions                   []model.ReportAction `json:"actions,omitempty"`
	Transactions              []model.Transaction  `json:"transactions,omitempty"`
	SingleTransaction         bool                 `json:"singleTransaction"`
	TransactionThreadReportID string               `json:"transactionThreadReportId,omitempty"`
	ParentAction              *model.ReportAction  `json:"parentAction,omitempty"`
	LastEditableAction        *model.ReportAction  `json:"lastEditableAction,omitempty"`
	ShowFooter                bool                 `json:"showFooter"`
	PendingAction             model.PendingAction  `json:"pendingAction,omitempty"`
	Errors                    model.Errors         `json:"errors,omitempty"`
	HasOlderActions           bool                 `json:"hasOlderActions"`
	HasNewerActions           bool                 `json:"hasNewerActions"`
}

// Build derives the view. The checks run in a fixed order: a first load shows
// the full skeleton, no actions shows the actions skeleton, a missing report
// renders nothing, and app boot shows skeletons with the footer.
func Build(in Input) View {
	actions := SortedActions(in.Actions)
	v := View{Report: in.Report, Actions: actions}

	var md model.ReportMetadata
	if in.Metadata != nil {
		md = *in.Metadata
	}
	v.HasOlderActions, v.HasNewerActions = md.HasOlderActions, md.HasNewerActions

	reportID := ""
	if in.Report != nil {
		reportID = in.Report.ReportID
		v.ParentAction = ParentReportAction(in.ParentActions, in.Report.ParentReportActionID)
	}
	v.Transactions = SelectTransactions(in.Transactions, reportID, actions)
	v.SingleTransaction = len(v.Transactions) == 1
	v.TransactionThreadReportID = OneTransactionThreadReportID(reportID, actions, in.IsOffline)
	v.LastEditableAction = LastEditableAction(actions, v.ParentAction, in.Email)
	v.PendingAction, v.Errors = OfflineFeedback(in.Report)

	switch {
	case md.IsLoadingInitialReportActions && len(actions) == 0 && !in.IsOffline:
		v.Layout = LayoutInitialSkeleton
	case len(actions) == 0:
		v.Layout = LayoutActionsSkeleton
	case in.Report == nil:
		v.Layout = LayoutEmpty
	case in.IsLoadingApp:
		v.Layout = LayoutLoadingApp
		v.ShowFooter = in.ShowFooter
	default:
		v.Layout = LayoutFull
		v.ShowFooter = in.ShowFooter
	}
	return v
}

// Load reads the input for reportID from db.
func Load(ctx context.Context, db *store.DB, reportID string, showFooter bool) (Input, error) {
	in := Input{ShowFooter: showFooter}
	var err error
	if in.Report, err = db.Report(ctx, reportID); err != nil {
		return in, err
	}
	if in.Metadata, err = db.ReportMetadata(ctx, reportID); err != nil {
		return in, err
	}
	if in.Actions, err = db.ReportActions(ctx, reportID); err != nil {
		return in, err
	}
	if in.Report != nil && in.Report.ParentReportID != "" {
		if in.ParentActions, err = db.ReportActions(ctx, in.Report.ParentReportID); err != nil {
			return in, err
		}
	}
	if in.Transactions, err = db.Transactions(ctx); err != nil {
		return in, err
	}
	network, err := db.Network(ctx)
	if err != nil {
		return in, err
	}
	in.IsOffline = network.IsOffline
	if in.IsLoadingApp, err = db.IsLoadingApp(ctx); err != nil {
		return in, err
	}
	session, err := db.Session(ctx)
	if err != nil {
		return in, err
	}
	in.Email = session.Email
	return in, nil
}

// GoBack follows the back button. backTo wins when set. Otherwise the screen
// must sit in the search navigator: it pops to the previous route, or to the
// canned search for policyID when it is the only route. Called from any other
// navigator it logs and stays put.
func GoBack(stack *nav.Stack, backTo string, policyID string, log *slog.Logger) bool {
	if backTo != "" {
		stack.GoBackTo(nav.ParseRoute(backTo))
		return true
	}
	top, ok := stack.Top()
	if !ok || top.Navigator != nav.NavigatorSearch {
		logging.OrDiscard(log).Warn("report back navigation called outside the search navigator", "top", top.Path)
		return false
	}
	if stack.Len() > 1 {
		return stack.GoBack()
	}
	stack.GoBackTo(nav.SearchRoot(nav.CannedSearchQuery(policyID)))
	return true
}

// DismissCreationError leaves the screen and drops the report that failed to
// be created.
func DismissCreationError(ctx context.Context, db *store.DB, stack *nav.Stack, reportID, policyID string, log *slog.Logger) error {
	GoBack(stack, "", policyID, log)
	txs, err := db.Transactions(ctx)
	if err != nil {
		return err
	}
	res, err := mutate.RemoveFailedReport(reportID, txs)
	if err != nil {
		return err
	}
	return mutate.Apply(ctx, db, res)
}
