package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "state.sqlite"

type UpdateMethod string

const (
	MethodSet    UpdateMethod = "set"
	MethodMerge  UpdateMethod = "merge"
	MethodRemove UpdateMethod = "remove"
)

// Update is one keyed write. Batches of updates are applied atomically by DB.Apply.
type Update struct {
	Method UpdateMethod `json:"method"`
	Key    string       `json:"key"`
	Value  any          `json:"value,omitempty"`
}

func SetUpdate(key string, v any) Update   { return Update{Method: MethodSet, Key: key, Value: v} }
func MergeUpdate(key string, v any) Update { return Update{Method: MethodMerge, Key: key, Value: v} }
func RemoveUpdate(key string) Update       { return Update{Method: MethodRemove, Key: key} }

// DB is the workspace state container: a JSON value per key, persisted in SQLite,
// with observers notified after every committed write.
type DB struct {
	dir string
	sql *sql.DB

	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id      int
	pattern string
	fn      func(key string)
}

// Open opens (and creates if needed) the state database under dir.
func Open(ctx context.Context, dir string) (*DB, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store: empty dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	sdb, err := sql.Open("sqlite", filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI read while a CLI invocation in another terminal writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := sdb.ExecContext(ctx, p); err != nil {
			_ = sdb.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, sdb); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &DB{dir: dir, sql: sdb}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outbox (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			command TEXT NOT NULL,
			json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) Dir() string { return db.dir }

// Path is the SQLite file backing db.
func (db *DB) Path() string { return filepath.Join(db.dir, sqliteFileName) }

func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	return db.sql.Close()
}

// Get decodes the value stored at key into v. It returns false when the key is absent.
func (db *DB) Get(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := db.sql.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if v == nil {
		return true, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

// Keys lists keys starting with prefix, sorted.
func (db *DB) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT k FROM kv WHERE substr(k, 1, ?) = ? ORDER BY k`, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Collection returns the raw JSON of every member under prefix, keyed by full key.
func (db *DB) Collection(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT k, v FROM kv WHERE substr(k, 1, ?) = ?`, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]json.RawMessage{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = json.RawMessage(v)
	}
	return out, rows.Err()
}

func (db *DB) Set(ctx context.Context, key string, v any) error {
	return db.Apply(ctx, []Update{SetUpdate(key, v)})
}

func (db *DB) Merge(ctx context.Context, key string, patch any) error {
	return db.Apply(ctx, []Update{MergeUpdate(key, patch)})
}

func (db *DB) Remove(ctx context.Context, key string) error {
	return db.Apply(ctx, []Update{RemoveUpdate(key)})
}

// Apply writes a batch of updates in a single transaction, then notifies observers
// of every key the batch touched.
func (db *DB) Apply(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := db.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	changed := make([]string, 0, len(updates))
	seen := map[string]bool{}
	for _, u := range updates {
		key := strings.TrimSpace(u.Key)
		if key == "" {
			return errors.New("store: update with empty key")
		}
		if err := applyOne(ctx, tx, key, u, nowMs); err != nil {
			return fmt.Errorf("store: %s %s: %w", u.Method, key, err)
		}
		if !seen[key] {
			seen[key] = true
			changed = append(changed, key)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta(k, v) VALUES('version', '1')
		ON CONFLICT(k) DO UPDATE SET v = CAST(CAST(v AS INTEGER) + 1 AS TEXT)`); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.notify(changed)
	return nil
}

func applyOne(ctx context.Context, tx *sql.Tx, key string, u Update, nowMs int64) error {
	switch u.Method {
	case MethodRemove:
		_, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
		return err
	case MethodSet, MethodMerge:
	default:
		return fmt.Errorf("unknown method %q", u.Method)
	}

	next, err := toGeneric(u.Value)
	if err != nil {
		return err
	}
	if u.Method == MethodMerge {
		var prev any
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal([]byte(raw), &prev); err != nil {
				return err
			}
		}
		next = mergeValues(prev, next)
	} else {
		next = stripNulls(next)
	}
	if next == nil {
		_, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
		return err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO kv(k, v, updated_at_unixms) VALUES(?, ?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at_unixms = excluded.updated_at_unixms`,
		key, string(b), nowMs)
	return err
}

// Version is a write counter shared by every process using this workspace.
// Polling it is how a long-running UI notices writes made by another process.
func (db *DB) Version(ctx context.Context) (int64, error) {
	var raw string
	err := db.sql.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'version'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Subscribe registers fn for changes to pattern: an exact key, or a collection
// prefix (ending in "_") matching every member. Callbacks run after commit on the
// writing goroutine, in registration order.
func (db *DB) Subscribe(pattern string, fn func(key string)) (unsubscribe func()) {
	db.mu.Lock()
	db.nextID++
	id := db.nextID
	db.subs = append(db.subs, subscription{id: id, pattern: pattern, fn: fn})
	db.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			db.mu.Lock()
			defer db.mu.Unlock()
			for i, s := range db.subs {
				if s.id == id {
					db.subs = append(db.subs[:i], db.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// NotifyAll fires every observer once, as if its pattern changed.
func (db *DB) NotifyAll() {
	db.mu.Lock()
	subs := append([]subscription(nil), db.subs...)
	db.mu.Unlock()
	for _, s := range subs {
		s.fn(s.pattern)
	}
}

func (db *DB) notify(keys []string) {
	db.mu.Lock()
	subs := append([]subscription(nil), db.subs...)
	db.mu.Unlock()
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	for _, s := range subs {
		for _, k := range keys {
			if matchesKey(s.pattern, k) {
				s.fn(k)
			}
		}
	}
}
