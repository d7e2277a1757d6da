// Package mutate builds the store writes behind every user action. Each builder
// is a pure function of the current records and returns the optimistic updates
// to apply now plus the request (with its success and failure updates) to send
// to the remote later.
package mutate

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"expense-cli/internal/store"
)

// Result is the outcome of a mutation builder.
type Result struct {
	Optimistic []store.Update
	// Request is nil for local-only mutations (e.g. clearing errors).
	Request *store.Request
}

// Apply writes the optimistic updates and queues the request.
func Apply(ctx context.Context, db *store.DB, res Result) error {
	if err := db.Apply(ctx, res.Optimistic); err != nil {
		return err
	}
	if res.Request == nil {
		return nil
	}
	return db.Enqueue(ctx, *res.Request)
}

var (
	nowFunc = time.Now
	newID   = uuid.NewString
)

// errorKey is the microsecond timestamp errors are keyed by.
func errorKey() string {
	return strconv.FormatInt(nowFunc().UnixMicro(), 10)
}

func newRequest(command string, params map[string]any, success, failure []store.Update) *store.Request {
	return &store.Request{
		ID:        newID(),
		Command:   command,
		Params:    params,
		Success:   success,
		Failure:   failure,
		CreatedAt: nowFunc().UTC(),
	}
}
