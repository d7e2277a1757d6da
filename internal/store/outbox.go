package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Request is a queued remote command together with the updates to apply once
// the remote answers. Success applies on a 200 response, Failure on any other
// response code, Finally in both cases.
type Request struct {
	Seq       int64          `json:"seq,omitempty"`
	ID        string         `json:"id"`
	Command   string         `json:"command"`
	Read      bool           `json:"read,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Success   []Update       `json:"success,omitempty"`
	Failure   []Update       `json:"failure,omitempty"`
	Finally   []Update       `json:"finally,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Enqueue appends req to the outbox. Optimistic updates are expected to have been
// applied by the caller already.
func (db *DB) Enqueue(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Command) == "" {
		return errors.New("store: request without command")
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = db.sql.ExecContext(ctx, `INSERT INTO outbox(id, command, json, created_at_unixms) VALUES(?, ?, ?, ?)`,
		req.ID, req.Command, string(b), req.CreatedAt.UnixMilli())
	return err
}

// Pending lists queued requests oldest first.
func (db *DB) Pending(ctx context.Context) ([]Request, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT seq, json FROM outbox ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		var seq int64
		var raw string
		if err := rows.Scan(&seq, &raw); err != nil {
			return nil, err
		}
		var req Request
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, err
		}
		req.Seq = seq
		out = append(out, req)
	}
	return out, rows.Err()
}

// Ack removes a request from the outbox.
func (db *DB) Ack(ctx context.Context, seq int64) error {
	_, err := db.sql.ExecContext(ctx, `DELETE FROM outbox WHERE seq = ?`, seq)
	return err
}
