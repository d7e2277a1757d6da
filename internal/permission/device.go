package permission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"expense-cli/internal/store"
)

// Behaviour decides how the simulated device answers a request.
type Behaviour string

const (
	BehaviourGrant Behaviour = "grant"
	BehaviourDeny  Behaviour = "deny"
	BehaviourBlock Behaviour = "block"
	BehaviourAsk   Behaviour = "ask"
)

func ParseBehaviour(s string) (Behaviour, error) {
	switch b := Behaviour(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BehaviourAsk, nil
	case BehaviourGrant, BehaviourDeny, BehaviourBlock, BehaviourAsk:
		return b, nil
	default:
		return "", fmt.Errorf("invalid permission behaviour %q (expected grant|deny|block|ask)", s)
	}
}

// Asker stands in for the OS dialog when the behaviour is "ask".
type Asker interface {
	Ask(ctx context.Context, name string) (Status, error)
}

// DevicePermission is a store-backed device permission. The status lives under
// devicePermissions.<name>, so every process sharing the workspace sees it.
type DevicePermission struct {
	db        *store.DB
	name      string
	behaviour Behaviour
	asker     Asker
}

func NewDevicePermission(db *store.DB, name string, behaviour Behaviour, asker Asker) *DevicePermission {
	if behaviour == "" {
		behaviour = BehaviourAsk
	}
	return &DevicePermission{db: db, name: name, behaviour: behaviour, asker: asker}
}

func (d *DevicePermission) Name() string { return d.name }

// Status returns the stored status. A permission never asked for reads as denied.
func (d *DevicePermission) Status(ctx context.Context) (Status, error) {
	var all map[string]Status
	ok, err := d.db.Get(ctx, store.KeyDevicePermissions, &all)
	if err != nil {
		return "", err
	}
	if !ok {
		return Denied, nil
	}
	st, ok := all[d.name]
	if !ok || st == "" {
		return Denied, nil
	}
	return st, nil
}

// Request behaves like the OS: blocked and unavailable permissions never show a
// dialog and allowed ones are returned as is. The outcome is persisted.
func (d *DevicePermission) Request(ctx context.Context) (Status, error) {
	cur, err := d.Status(ctx)
	if err != nil {
		return "", err
	}
	if cur.Allowed() || cur == Blocked || cur == Unavailable {
		return cur, nil
	}

	var next Status
	switch d.behaviour {
	case BehaviourGrant:
		next = Granted
	case BehaviourDeny:
		next = Denied
	case BehaviourBlock:
		next = Blocked
	default:
		if d.asker == nil {
			next = Denied
			break
		}
		next, err = d.asker.Ask(ctx, d.name)
		if err != nil {
			return "", err
		}
	}
	if err := d.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

func (d *DevicePermission) Set(ctx context.Context, st Status) error {
	return d.db.Merge(ctx, store.KeyDevicePermissions, map[string]any{d.name: string(st)})
}

// Reset forgets the stored status so the next request asks again.
func (d *DevicePermission) Reset(ctx context.Context) error {
	return d.db.Merge(ctx, store.KeyDevicePermissions, map[string]any{d.name: nil})
}

// TerminalAsker reads the dialog answer from a line-oriented reader. In is
// shared with other prompts on the same terminal, so it must not be re-wrapped.
type TerminalAsker struct {
	In  *bufio.Reader
	Out io.Writer
}

// Ask prints a y/n/b question and maps the answer: y grants, b blocks, anything
// else denies. EOF denies.
func (a TerminalAsker) Ask(ctx context.Context, name string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.Out != nil {
		fmt.Fprintf(a.Out, "Allow %s access? [y]es / [n]o / [b]lock: ", name)
	}
	if a.In == nil {
		return Denied, nil
	}
	line, err := a.In.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return Granted, nil
	case "b", "block":
		return Blocked, nil
	default:
		return Denied, nil
	}
}
