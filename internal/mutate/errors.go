package mutate

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

var (
	ErrNoTags        = errors.New("no tags given")
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrPendingDelete is returned when toggling a tag that is already being deleted.
	ErrPendingDelete = errors.New("tag is pending deletion")
)

// genericFailure is the message attached to records whose request failed.
const genericFailure = "Unexpected error, please try again later."
