package mutate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"expense-cli/internal/model"
	"expense-cli/internal/store"
)

const CommandRequestMoney = "RequestMoney"

// RemoveFailedReport drops a report whose creation failed, together with its
// metadata, actions and transactions. It is local only.
func RemoveFailedReport(reportID string, transactions model.Transactions) (Result, error) {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return Result{}, NotFoundError{Kind: "report", ID: reportID}
	}
	updates := []store.Update{
		store.RemoveUpdate(store.ReportKey(reportID)),
		store.RemoveUpdate(store.ReportMetadataKey(reportID)),
		store.RemoveUpdate(store.ReportActionsKey(reportID)),
	}
	var ids []string
	for id, t := range transactions {
		if t.ReportID == reportID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		updates = append(updates, store.RemoveUpdate(store.TransactionKey(id)))
	}
	return Result{Optimistic: updates}, nil
}

// ParseAmount turns a major-unit amount like "12.5" into 1250 minor units.
func ParseAmount(s string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents := int64(math.Round(f * 100))
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MoneyRequest is the input of CreateMoneyRequest.
type MoneyRequest struct {
	Amount     int64
	Currency   string
	Merchant   string
	ActorEmail string
	// Location is attached only when the user granted location access.
	Location *model.Location
}

// CreateMoneyRequest adds a transaction to report and the IOU action that
// points at it, both pending until the remote confirms.
func CreateMoneyRequest(report *model.Report, in MoneyRequest) (Result, model.Transaction, error) {
	if report == nil {
		return Result{}, model.Transaction{}, NotFoundError{Kind: "report", ID: ""}
	}
	if in.Amount <= 0 {
		return Result{}, model.Transaction{}, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = report.Currency
	}

	now := nowFunc().UTC()
	tx := model.Transaction{
		TransactionID: newID(),
		ReportID:      report.ReportID,
		Amount:        in.Amount,
		Currency:      currency,
		Merchant:      strings.TrimSpace(in.Merchant),
		Created:       now,
		Location:      in.Location,
		PendingAction: model.PendingAdd,
	}
	action := model.ReportAction{
		ReportActionID: newID(),
		ActionName:     model.ActionIOU,
		ActorEmail:     in.ActorEmail,
		Created:        now,
		OriginalMessage: &model.OriginalMessage{
			IOUTransactionID: tx.TransactionID,
			Type:             model.IOUCreate,
			Amount:           tx.Amount,
			Currency:         tx.Currency,
		},
		PendingAction: model.PendingAdd,
	}

	txKey := store.TransactionKey(tx.TransactionID)
	actionsKey := store.ReportActionsKey(report.ReportID)
	reportKey := store.ReportKey(report.ReportID)

	params := map[string]any{
		"reportID":       report.ReportID,
		"transactionID":  tx.TransactionID,
		"reportActionID": action.ReportActionID,
		"amount":         tx.Amount,
		"currency":       tx.Currency,
		"merchant":       tx.Merchant,
		"created":        now,
	}
	if in.Location != nil {
		params["location"] = in.Location
	}

	failure := map[string]any{"errors": map[string]any{errorKey(): genericFailure}}
	res := Result{
		Optimistic: []store.Update{
			store.SetUpdate(txKey, tx),
			store.MergeUpdate(actionsKey, map[string]any{action.ReportActionID: action}),
			store.MergeUpdate(reportKey, map[string]any{"total": report.Total + tx.Amount}),
		},
		Request: newRequest(CommandRequestMoney, params,
			[]store.Update{
				store.MergeUpdate(txKey, map[string]any{"pendingAction": nil}),
				store.MergeUpdate(actionsKey, map[string]any{action.ReportActionID: map[string]any{"pendingAction": nil}}),
			},
			[]store.Update{
				store.MergeUpdate(txKey, failure),
				store.MergeUpdate(actionsKey, map[string]any{action.ReportActionID: failure}),
				store.MergeUpdate(reportKey, map[string]any{"total": report.Total}),
			},
		),
	}
	return res, tx, nil
}
