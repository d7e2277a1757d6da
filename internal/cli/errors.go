package cli

import (
	"errors"
	"fmt"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type bulkUnavailableError struct {
	kind     string
	policyID string
}

func (e bulkUnavailableError) Error() string {
	return fmt.Sprintf("workspace %s: %s is unavailable for these tags", e.policyID, e.kind)
}

var (
	errNoSession     = errors.New("no account email; run `expense init --email <email>` (or pass --email)")
	errMissingPolicy = errors.New("missing --policy")
)
