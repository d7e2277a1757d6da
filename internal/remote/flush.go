package remote

import (
	"context"
	"log/slog"
	"time"

	"expense-cli/internal/logging"
	"expense-cli/internal/store"
)

type FlushResult struct {
	Sent      int  `json:"sent"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"`
	Offline   bool `json:"offline"`
}

// Flush sends queued requests oldest first. Each answer applies the response
// data and then the request's success (jsonCode 200) or failure updates, and
// removes the request from the queue. A transport error marks the network
// offline and stops; the request stays queued for the next flush.
func Flush(ctx context.Context, db *store.DB, client Client, log *slog.Logger) (FlushResult, error) {
	log = logging.OrDiscard(log)
	var res FlushResult

	pending, err := db.Pending(ctx)
	if err != nil {
		return res, err
	}
	for i, req := range pending {
		var resp Response
		if req.Read {
			resp, err = client.Read(ctx, req)
		} else {
			resp, err = client.Write(ctx, req)
		}
		if err != nil {
			log.Warn("remote request failed; going offline", "command", req.Command, "id", req.ID, "err", err)
			res.Offline = true
			res.Remaining = len(pending) - i
			if mErr := db.Merge(ctx, store.KeyNetwork, map[string]any{"isOffline": true}); mErr != nil {
				return res, mErr
			}
			return res, nil
		}
		res.Sent++

		updates := append([]store.Update(nil), resp.OnyxData...)
		if resp.JSONCode == CodeOK {
			res.Succeeded++
			updates = append(updates, req.Success...)
		} else {
			res.Failed++
			log.Info("remote rejected request", "command", req.Command, "id", req.ID, "code", resp.JSONCode, "message", resp.Message)
			updates = append(updates, req.Failure...)
		}
		updates = append(updates, req.Finally...)
		if err := db.Apply(ctx, updates); err != nil {
			return res, err
		}
		if err := db.Ack(ctx, req.Seq); err != nil {
			return res, err
		}
	}

	err = db.Merge(ctx, store.KeyNetwork, map[string]any{
		"isOffline":  false,
		"lastSyncAt": time.Now().UTC(),
	})
	return res, err
}
