// Package permission drives the "allow location access" prompt: it asks the
// device for the current status, shows a confirmation when needed, requests the
// permission, and falls back to the OS settings once access is blocked.
package permission

import (
	"context"
	"fmt"
	"strings"
)

// Status is the answer of the device permission API.
type Status string

const (
	// Granted means full access.
	Granted Status = "granted"
	// Limited is partial access; it counts as granted for our purposes.
	Limited Status = "limited"
	// Blocked means the OS will not show its dialog again; only settings can fix it.
	Blocked Status = "blocked"
	// Denied means the user said no but may be asked again.
	Denied Status = "denied"
	// Unavailable means the device has no such capability.
	Unavailable Status = "unavailable"
)

// Allowed reports granted or limited.
func (s Status) Allowed() bool { return s == Granted || s == Limited }

// ParseStatus accepts the lowercase status names.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case Granted, Limited, Blocked, Denied, Unavailable:
		return st, nil
	default:
		return "", fmt.Errorf("invalid permission status %q (expected granted|limited|blocked|denied|unavailable)", s)
	}
}

// Permission is the device permission API.
type Permission interface {
	// Status queries without showing anything to the user.
	Status(ctx context.Context) (Status, error)
	// Request shows the OS dialog (when the OS still allows it) and returns the outcome.
	Request(ctx context.Context) (Status, error)
}

// SettingsOpener launches the OS privacy settings. Not every platform has one.
type SettingsOpener interface {
	Available() bool
	OpenSettings(ctx context.Context) error
}
